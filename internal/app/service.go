// internal/app/service.go
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/awmpietro/policy-blocks/internal/policy"
)

type Store interface {
	policy.Writer
	policy.Reader
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]string, error)
}

type Compiler interface {
	Compile(dot string) (*policy.Policy, error)
}

type Cache interface {
	GetOrCompute(raw []byte, fn func() (policy.Document, error)) (policy.Document, error)
}

// Renderer turns DOT source into an image, e.g. render.SVG.
type Renderer func(ctx context.Context, dot string) ([]byte, error)

// Export and import formats beyond the document codecs.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
)

type Service struct {
	store    Store
	compiler Compiler
	cache    Cache
	render   Renderer
	logger   *log.Logger
	observer OpObserver
	tracer   trace.Tracer
}

type Option func(*Service)

func WithCache(c Cache) Option { return func(s *Service) { s.cache = c } }

func WithRenderer(r Renderer) Option { return func(s *Service) { s.render = r } }

func WithLogger(l *log.Logger) Option { return func(s *Service) { s.logger = l } }

func WithObserver(o OpObserver) Option { return func(s *Service) { s.observer = o } }

// WithTracer sets the tracer for operation spans. Without it the global
// provider is used, which is a no-op unless one was installed.
func WithTracer(t trace.Tracer) Option { return func(s *Service) { s.tracer = t } }

func NewService(store Store, compiler Compiler, opts ...Option) *Service {
	s := &Service{store: store, compiler: compiler}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("github.com/awmpietro/policy-blocks/internal/app")
	}
	return s
}

// Save persiste a policy sob o próprio nome, sobrescrevendo a anterior.
// Validity is not required; drafts can be stored and fixed later.
func (s *Service) Save(ctx context.Context, p *policy.Policy) (err error) {
	if p == nil {
		return fmt.Errorf("policy is required")
	}
	ctx, op := s.begin(ctx, "save", p.Name)
	defer op.end(&err)

	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("policy name is required")
	}
	if err := p.PersistTo(ctx, s.store, p.Name); err != nil {
		return err
	}
	s.logger.Debug("policy saved", "name", p.Name, "blocks", p.Len())
	return nil
}

// Load reads and resolves a stored policy. Decoded documents are cached by
// content, so repeated loads skip parsing but still get a fresh Policy.
func (s *Service) Load(ctx context.Context, name string, opts ...policy.DecodeOption) (p *policy.Policy, err error) {
	ctx, op := s.begin(ctx, "load", name)
	defer op.end(&err)

	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("policy name is required")
	}

	raw, err := s.store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: read %q: %w", policy.ErrPersistence, name, err)
	}

	doc, err := s.decode(raw)
	if err != nil {
		return nil, err
	}
	return policy.FromDocument(doc, opts...)
}

func (s *Service) Validate(ctx context.Context, name string, opts ...policy.DecodeOption) (r *Report, err error) {
	ctx, op := s.begin(ctx, "validate", name)
	defer op.end(&err)

	p, err := s.Load(ctx, name, opts...)
	if err != nil {
		return nil, err
	}
	r = &Report{Policy: p, Err: p.Validate(), Issues: p.Lint()}
	op.span.SetAttributes(attribute.Bool("policy.valid", r.OK()), attribute.Int("policy.issues", len(r.Issues)))
	if r.Err != nil {
		s.logger.Debug("policy invalid", "name", name, "err", r.Err)
	}
	return r, nil
}

// Import builds a policy from DOT, JSON or YAML, validates it and saves it.
// Invalid input is never persisted.
func (s *Service) Import(ctx context.Context, data []byte, format string) (p *policy.Policy, err error) {
	ctx, op := s.begin(ctx, "import", "")
	op.span.SetAttributes(attribute.String("policy.format", format))
	defer op.end(&err)

	if len(data) == 0 {
		return nil, fmt.Errorf("import data is empty")
	}

	if strings.EqualFold(format, FormatDOT) || strings.EqualFold(format, "gv") {
		if s.compiler == nil {
			return nil, fmt.Errorf("no DOT compiler configured")
		}
		p, err = s.compiler.Compile(string(data))
	} else {
		var f policy.Format
		if f, err = policy.ParseFormat(format); err != nil {
			return nil, err
		}
		var doc policy.Document
		if doc, err = policy.Decode(data, f); err != nil {
			return nil, err
		}
		p, err = policy.FromDocument(doc, policy.StrictReferences())
	}
	if err != nil {
		return nil, err
	}
	op.setName(p.Name)

	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Export(ctx context.Context, name, format string) (_ []byte, err error) {
	ctx, op := s.begin(ctx, "export", name)
	op.span.SetAttributes(attribute.String("policy.format", format))
	defer op.end(&err)

	p, err := s.Load(ctx, name)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(format) {
	case FormatDOT:
		dot, err := policy.DOT(p)
		if err != nil {
			return nil, err
		}
		return []byte(dot), nil
	case FormatSVG:
		if s.render == nil {
			return nil, fmt.Errorf("svg export requires a renderer")
		}
		dot, err := policy.DOT(p)
		if err != nil {
			return nil, err
		}
		return s.render(ctx, dot)
	}

	f, err := policy.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return policy.Encode(p.Document(), f)
}

func (s *Service) Delete(ctx context.Context, name string) (err error) {
	ctx, op := s.begin(ctx, "delete", name)
	defer op.end(&err)

	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("policy name is required")
	}
	return s.store.Delete(ctx, name)
}

func (s *Service) List(ctx context.Context) (_ []string, err error) {
	ctx, op := s.begin(ctx, "list", "")
	defer op.end(&err)
	return s.store.List(ctx)
}

func (s *Service) decode(raw []byte) (policy.Document, error) {
	if s.cache == nil {
		return policy.DecodeJSON(raw)
	}
	return s.cache.GetOrCompute(raw, func() (policy.Document, error) {
		return policy.DecodeJSON(raw)
	})
}

// opScope spans one service operation: a trace span plus the observer
// notification sent when it ends.
type opScope struct {
	s     *Service
	op    string
	name  string
	start time.Time
	span  trace.Span
}

func (s *Service) begin(ctx context.Context, op, name string) (context.Context, *opScope) {
	ctx, span := s.tracer.Start(ctx, "policy."+op)
	scope := &opScope{s: s, op: op, start: time.Now(), span: span}
	scope.setName(name)
	return ctx, scope
}

func (o *opScope) setName(name string) {
	o.name = name
	if name != "" {
		o.span.SetAttributes(attribute.String("policy.name", name))
	}
}

func (o *opScope) end(errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	if err != nil {
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, err.Error())
	}
	o.span.End()

	if o.s.observer != nil {
		o.s.observer.ObserveOp(o.op, o.name, time.Since(o.start), err)
	}
}
