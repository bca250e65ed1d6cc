package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestBookkeepingFailureCounter(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewSettlementMetrics(reg)

	m.IncBookkeepingFailure("order_insert")
	m.IncBookkeepingFailure("order_insert")
	m.IncBookkeepingFailure("")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	var family *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "bookkeeping_write_failures_total" {
			family = f
		}
	}
	if family == nil {
		t.Fatalf("expected bookkeeping counter family")
	}

	byLabel := map[string]float64{}
	for _, metric := range family.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "operation" {
				byLabel[label.GetValue()] = metric.GetCounter().GetValue()
			}
		}
	}
	if byLabel["order_insert"] != 2 {
		t.Fatalf("expected 2 order_insert failures, got %v", byLabel["order_insert"])
	}
	if byLabel["unknown"] != 1 {
		t.Fatalf("expected empty operation to normalize to unknown, got %v", byLabel)
	}
}

func TestNilRegistererIsSafe(t *testing.T) {
	t.Parallel()

	m := NewSettlementMetrics(nil)
	m.IncBookkeepingFailure("noop")
	m.IncEventSettled("checkout.session.completed")
	m.IncOrderRecovered()

	var c *CronJobMetrics
	c.IncSuccess("sweep")
}
