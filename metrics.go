package kes

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Counters for KES operations and secure memory.  They are always updated;
// use RegisterMetrics to expose them.
var (
	metricSigningKeys = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kes_signing_keys_total",
			Help: "Number of KES signing keys generated",
		},
		[]string{"algorithm"},
	)
	metricSigningKeyBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kes_signing_key_bytes_total",
			Help: "Serialized size of the KES signing keys generated",
		},
		[]string{"algorithm"},
	)
	metricSignatures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kes_signatures_total",
			Help: "Number of KES signatures created",
		},
		[]string{"algorithm"},
	)
	metricSignatureBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kes_signature_bytes_total",
			Help: "Size of the KES signatures created",
		},
		[]string{"algorithm"},
	)
	metricUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kes_updates_total",
			Help: "Number of KES key evolutions",
		},
		[]string{"algorithm"},
	)

	metricSecureAllocations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kes_secure_allocations_total",
		Help: "Number of locked memory buffers allocated",
	})
	metricSecureAllocationBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kes_secure_allocation_bytes_total",
		Help: "Bytes of locked memory allocated",
	})
	metricSecureFailedLocks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kes_secure_failed_locks_total",
		Help: "Number of allocations that could not be locked into RAM",
	})
	metricSecureZeroizations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kes_secure_zeroizations_total",
		Help: "Number of locked memory buffers zeroed and released",
	})
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		metricSigningKeys,
		metricSigningKeyBytes,
		metricSignatures,
		metricSignatureBytes,
		metricUpdates,
		metricSecureAllocations,
		metricSecureAllocationBytes,
		metricSecureFailedLocks,
		metricSecureZeroizations,
	}
}

// Registers the metrics of this package with reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
