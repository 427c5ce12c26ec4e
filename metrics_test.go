package kes

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := RegisterMetrics(reg); err != nil {
		t.Fatalf("RegisterMetrics: %v", err)
	}
	if err := RegisterMetrics(reg); err == nil {
		t.Fatalf("registering twice succeeded")
	}

	sb, err := NewSecureBuffer(16)
	if err != nil {
		t.Fatalf("NewSecureBuffer: %v", err)
	}
	sb.Finalize()

	n, gerr := testutil.GatherAndCount(reg, "kes_secure_allocations_total",
		"kes_secure_zeroizations_total")
	if gerr != nil {
		t.Fatalf("GatherAndCount: %v", gerr)
	}
	if n != 2 {
		t.Fatalf("gathered %d secure memory metrics instead of 2", n)
	}
}
