package gateway_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"yardops/internal/domain"
	"yardops/internal/gateway"
	"yardops/internal/gateway/memory"
	"yardops/internal/metrics"
)

func TestInstrument_CountsOutcomes(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	m := metrics.New()
	gw := gateway.Instrument(mem, m)

	c := mem.PutCustomer(domain.Customer{Name: "Dee"})
	if _, err := gw.UpdateCustomer(ctx, c); err != nil {
		t.Fatalf("update: %v", err)
	}
	mem.FailOn("updateCustomer", errors.New("down"))
	if _, err := gw.UpdateCustomer(ctx, c); err == nil {
		t.Fatalf("expected injected failure")
	}

	if got := testutil.ToFloat64(m.GatewayCalls.WithLabelValues("updateCustomer", "ok")); got != 1 {
		t.Fatalf("expected 1 ok call, got %v", got)
	}
	if got := testutil.ToFloat64(m.GatewayCalls.WithLabelValues("updateCustomer", "error")); got != 1 {
		t.Fatalf("expected 1 failed call, got %v", got)
	}
}

func TestInstrument_NilMetricsPassThrough(t *testing.T) {
	mem := memory.New()
	if gateway.Instrument(mem, nil) != gateway.Gateway(mem) {
		t.Fatalf("expected the inner gateway to be returned unchanged")
	}
}
