package health

import (
	"context"
	"errors"
	"testing"
)

func TestStatusWithoutChecks(t *testing.T) {
	report := NewService().Status(context.Background())
	if !report.OK || report.Components != nil || report.Failing != nil {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestStatusReportsFailingComponents(t *testing.T) {
	svc := NewService()
	svc.Register("postgres", func(context.Context) error { return errors.New("refused") })
	svc.Register("fallback", func(context.Context) error { return nil })
	svc.Register("redis", func(context.Context) error { return errors.New("timeout") })
	svc.Register("ignored", nil)

	report := svc.Status(context.Background())
	if !report.OK {
		t.Fatalf("expected ok while serving")
	}
	if report.Components["fallback"] != "up" || report.Components["postgres"] != "down" {
		t.Fatalf("unexpected components: %+v", report.Components)
	}
	if _, ok := report.Components["ignored"]; ok {
		t.Fatalf("nil check should not be registered")
	}
	if len(report.Failing) != 2 || report.Failing[0] != "postgres" || report.Failing[1] != "redis" {
		t.Fatalf("unexpected failing list: %v", report.Failing)
	}
}
