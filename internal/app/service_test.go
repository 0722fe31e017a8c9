// internal/app/service_test.go
package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/awmpietro/policy-blocks/internal/policy"
)

var errMissing = errors.New("missing")

type memStore struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemStore() *memStore { return &memStore{items: map[string][]byte{}} }

func (m *memStore) Put(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = append([]byte(nil), data...)
	return nil
}

func (m *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.items[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errMissing, key)
	}
	return data, nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[key]; !ok {
		return errMissing
	}
	delete(m.items, key)
	return nil
}

func (m *memStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

type fakeCompiler struct {
	calls int
	p     *policy.Policy
	err   error
}

func (f *fakeCompiler) Compile(dot string) (*policy.Policy, error) {
	f.calls++
	return f.p, f.err
}

// fakeCache memoizes by raw content, like the real one, and counts computes.
type fakeCache struct {
	computes int
	items    map[string]policy.Document
}

func (c *fakeCache) GetOrCompute(raw []byte, fn func() (policy.Document, error)) (policy.Document, error) {
	if c.items == nil {
		c.items = map[string]policy.Document{}
	}
	if doc, ok := c.items[string(raw)]; ok {
		return doc, nil
	}
	c.computes++
	doc, err := fn()
	if err != nil {
		return policy.Document{}, err
	}
	c.items[string(raw)] = doc
	return doc, nil
}

type spyOpObserver struct {
	mu  sync.Mutex
	ops []string
}

func (s *spyOpObserver) ObserveOp(op, name string, duration time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := "ok"
	if err != nil {
		status = "err"
	}
	s.ops = append(s.ops, op+":"+name+":"+status)
}

func (s *spyOpObserver) Ops() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ops...)
}

func agePolicy(t *testing.T) *policy.Policy {
	t.Helper()
	start := policy.NewStart()
	cond, err := policy.NewConditional(policy.OpGreaterEqual, "age", 18)
	if err != nil {
		t.Fatal(err)
	}
	yes, _ := policy.NewEnd(1)
	no, _ := policy.NewEnd(0)
	start.Next = cond
	cond.NextTrue = yes
	cond.NextFalse = no
	return policy.New("Age Check").MustAddBlocks(start, cond, yes, no)
}

func TestService_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	s := NewService(store, &fakeCompiler{})

	p := agePolicy(t)
	if err := s.Save(ctx, p); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.items["Age Check"]; !ok {
		t.Fatalf("expected policy to be stored under its name")
	}

	q, err := s.Load(ctx, "Age Check")
	if err != nil {
		t.Fatal(err)
	}
	if q == p || q.Len() != 4 {
		t.Fatalf("expected a fresh policy with 4 blocks, got %d", q.Len())
	}
	if err := q.Validate(); err != nil {
		t.Fatalf("expected reloaded policy to validate, got %v", err)
	}
}

func TestService_Save_RequiresName(t *testing.T) {
	s := NewService(newMemStore(), &fakeCompiler{})
	if err := s.Save(context.Background(), policy.New("  ")); err == nil {
		t.Fatalf("expected error for blank name")
	}
	if err := s.Save(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil policy")
	}
}

func TestService_Load_WrapsStoreErrors(t *testing.T) {
	s := NewService(newMemStore(), &fakeCompiler{})
	_, err := s.Load(context.Background(), "nope")
	if !errors.Is(err, policy.ErrPersistence) || !errors.Is(err, errMissing) {
		t.Fatalf("expected ErrPersistence wrapping the store error, got %v", err)
	}
}

func TestService_Load_UsesCacheButReturnsFreshPolicies(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	c := &fakeCache{}
	s := NewService(store, &fakeCompiler{}, WithCache(c))

	if err := s.Save(ctx, agePolicy(t)); err != nil {
		t.Fatal(err)
	}

	a, err := s.Load(ctx, "Age Check")
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Load(ctx, "Age Check")
	if err != nil {
		t.Fatal(err)
	}

	if c.computes != 1 {
		t.Fatalf("expected one decode, got %d", c.computes)
	}
	if a == b || a.Start() == b.Start() {
		t.Fatalf("expected distinct policy instances per load")
	}
}

func TestService_Validate_Report(t *testing.T) {
	ctx := context.Background()
	s := NewService(newMemStore(), &fakeCompiler{})

	// valid but with an unreachable end block
	p := agePolicy(t)
	stray, _ := policy.NewEnd("orphan")
	if err := p.AddBlock(stray); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, p); err != nil {
		t.Fatal(err)
	}

	r, err := s.Validate(ctx, "Age Check")
	if err != nil {
		t.Fatal(err)
	}
	if !r.OK() {
		t.Fatalf("expected valid policy, got %v", r.Err)
	}
	if len(r.Issues) != 1 || r.Issues[0].Code != policy.IssueUnreachable {
		t.Fatalf("expected one unreachable issue, got %v", r.Issues)
	}

	// invalid: conditional missing its false branch
	broken := policy.New("Broken")
	start := policy.NewStart()
	cond, _ := policy.NewConditional(policy.OpLess, "x", 1)
	end, _ := policy.NewEnd(true)
	start.Next = cond
	cond.NextTrue = end
	broken.MustAddBlocks(start, cond, end)
	if err := s.Save(ctx, broken); err != nil {
		t.Fatal(err)
	}

	r, err = s.Validate(ctx, "Broken")
	if err != nil {
		t.Fatal(err)
	}
	if r.OK() || !errors.Is(r.Err, policy.ErrIncompleteConditionalBranches) {
		t.Fatalf("expected ErrIncompleteConditionalBranches, got %v", r.Err)
	}
}

func TestService_Import_DOT(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	comp := &fakeCompiler{p: agePolicy(t)}
	s := NewService(store, comp)

	p, err := s.Import(ctx, []byte("digraph {}"), "dot")
	if err != nil {
		t.Fatal(err)
	}
	if comp.calls != 1 || p.Name != "Age Check" {
		t.Fatalf("expected compiled policy to be returned")
	}
	if _, ok := store.items["Age Check"]; !ok {
		t.Fatalf("expected imported policy to be saved")
	}
}

func TestService_Import_RejectsInvalid(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	s := NewService(store, &fakeCompiler{p: policy.New("Empty")})

	_, err := s.Import(ctx, []byte("digraph {}"), "dot")
	if !errors.Is(err, policy.ErrMissingStartBlock) {
		t.Fatalf("expected ErrMissingStartBlock, got %v", err)
	}
	if len(store.items) != 0 {
		t.Fatalf("expected nothing persisted, got %v", store.items)
	}
}

func TestService_Import_CompileErrorBubblesUp(t *testing.T) {
	s := NewService(newMemStore(), &fakeCompiler{err: fmt.Errorf("compile fail")})
	if _, err := s.Import(context.Background(), []byte("x"), "dot"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestService_Import_YAMLWithDanglingRefFails(t *testing.T) {
	doc := `name: Dangling
blocks:
  - id: 5b0f5c3e-8a53-4a55-9d64-2f1e7a0b9c11
    type: start
    next_block: 0c7e9f5a-0000-4000-8000-000000000000
`
	s := NewService(newMemStore(), &fakeCompiler{})
	if _, err := s.Import(context.Background(), []byte(doc), "yaml"); !errors.Is(err, policy.ErrMalformedBlock) {
		t.Fatalf("expected ErrMalformedBlock for dangling reference, got %v", err)
	}
}

func TestService_ExportFormats(t *testing.T) {
	ctx := context.Background()
	s := NewService(newMemStore(), &fakeCompiler{}, WithRenderer(func(ctx context.Context, dot string) ([]byte, error) {
		return []byte("<svg>" + dot + "</svg>"), nil
	}))
	if err := s.Save(ctx, agePolicy(t)); err != nil {
		t.Fatal(err)
	}

	checks := map[string]string{
		"json": `"name": "Age Check"`,
		"yaml": "name: Age Check",
		"dot":  "digraph",
		"svg":  "<svg>",
	}
	for format, want := range checks {
		out, err := s.Export(ctx, "Age Check", format)
		if err != nil {
			t.Fatalf("export %s: %v", format, err)
		}
		if !strings.Contains(string(out), want) {
			t.Fatalf("export %s: expected %q in\n%s", format, want, out)
		}
	}

	if _, err := s.Export(ctx, "Age Check", "xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestService_Export_SVGWithoutRenderer(t *testing.T) {
	ctx := context.Background()
	s := NewService(newMemStore(), &fakeCompiler{})
	if err := s.Save(ctx, agePolicy(t)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Export(ctx, "Age Check", "svg"); err == nil {
		t.Fatalf("expected error without renderer")
	}
}

func TestService_DeleteAndList(t *testing.T) {
	ctx := context.Background()
	s := NewService(newMemStore(), &fakeCompiler{})

	for _, name := range []string{"b", "a"} {
		p := agePolicy(t)
		p.Name = name
		if err := s.Save(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	names, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(names, ",") != "a,b" {
		t.Fatalf("unexpected names %v", names)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "a"); !errors.Is(err, errMissing) {
		t.Fatalf("expected store error on second delete, got %v", err)
	}
}

func TestService_ObservesOperations(t *testing.T) {
	ctx := context.Background()
	spy := &spyOpObserver{}
	s := NewService(newMemStore(), &fakeCompiler{}, WithObserver(spy))

	if err := s.Save(ctx, agePolicy(t)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx, "Age Check"); err != nil {
		t.Fatal(err)
	}
	_, _ = s.Load(ctx, "missing")

	got := strings.Join(spy.Ops(), " ")
	want := "save:Age Check:ok load:Age Check:ok load:missing:err"
	if got != want {
		t.Fatalf("observed %q, want %q", got, want)
	}
}

func TestService_TracesOperations(t *testing.T) {
	ctx := context.Background()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	defer tp.Shutdown(ctx)

	s := NewService(newMemStore(), &fakeCompiler{}, WithTracer(tp.Tracer("test")))
	if err := s.Save(ctx, agePolicy(t)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Export(ctx, "Age Check", "json"); err != nil {
		t.Fatal(err)
	}
	_, _ = s.Load(ctx, "missing")

	spans := exp.GetSpans()
	var names []string
	for _, sp := range spans {
		names = append(names, sp.Name)
	}
	// children end before their parents
	want := "policy.save policy.load policy.export policy.load"
	if got := strings.Join(names, " "); got != want {
		t.Fatalf("spans %q, want %q", got, want)
	}

	export, inner := spans[2], spans[1]
	if inner.Parent.SpanID() != export.SpanContext.SpanID() {
		t.Fatalf("expected load to be a child of export")
	}
	if spans[3].Status.Code != codes.Error {
		t.Fatalf("expected failed load to carry an error status, got %v", spans[3].Status)
	}
}
