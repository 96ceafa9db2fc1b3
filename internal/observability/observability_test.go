package observability

import (
	"context"
	"testing"
)

func TestSetupDisabledIsNoop(t *testing.T) {
	p, err := Setup("readyapp", "1.0.0", false)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown of no-op provider: %v", err)
	}
}

func TestSetupEnabled(t *testing.T) {
	p, err := Setup("readyapp", "1.0.0", true)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if p.tracerProvider == nil {
		t.Fatal("expected tracer provider when enabled")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
