package tracing

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestWriterExporter_WritesEndedSpans(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer

	exp, err := NewWriterExporter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	tp, err := NewProvider(ctx, "policyctl", "test", exp)
	if err != nil {
		t.Fatal(err)
	}

	_, span := tp.Tracer(InstrumentationName).Start(ctx, "policy.load")
	span.End()

	if err := tp.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, `"policy.load"`) {
		t.Fatalf("expected span name in export, got %s", out)
	}
	if !strings.Contains(out, "policyctl") {
		t.Fatalf("expected service name resource in export, got %s", out)
	}
}
