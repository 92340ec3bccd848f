package metrics

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
}

type MetricName string

const (
	MetricNameEncrypted        MetricName = "encrypted_blocks"
	MetricNameDecrypted        MetricName = "decrypted_blocks"
	MetricNameProofsAccepted   MetricName = "proofs_accepted"
	MetricNameProofsRejected   MetricName = "proofs_rejected"
	MetricNameComputeExhausted MetricName = "compute_exhausted"
	MetricNameLedgerCommits    MetricName = "ledger_commits"
	MetricNameComputeUsed      MetricName = "compute_used"
)

func (m MetricName) String() string {
	return string(m)
}

const (
	NamespaceDisorder = "disorder"
	SubsystemCipher   = "cipher"
	SubsystemZK       = "zk"
	SubsystemProgram  = "program"
)

var (
	counters = map[MetricName]prometheus.Counter{
		MetricNameEncrypted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: NamespaceDisorder,
			Subsystem: SubsystemCipher,
			Name:      MetricNameEncrypted.String(),
			Help:      "Number of blocks encrypted",
		}),
		MetricNameDecrypted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: NamespaceDisorder,
			Subsystem: SubsystemCipher,
			Name:      MetricNameDecrypted.String(),
			Help:      "Number of blocks decrypted",
		}),
		MetricNameProofsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: NamespaceDisorder,
			Subsystem: SubsystemZK,
			Name:      MetricNameProofsAccepted.String(),
			Help:      "Number of proofs that verified",
		}),
		MetricNameProofsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: NamespaceDisorder,
			Subsystem: SubsystemZK,
			Name:      MetricNameProofsRejected.String(),
			Help:      "Number of proofs that were missing, malformed or invalid",
		}),
		MetricNameComputeExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: NamespaceDisorder,
			Subsystem: SubsystemProgram,
			Name:      MetricNameComputeExhausted.String(),
			Help:      "Number of instructions aborted by the compute budget",
		}),
		MetricNameLedgerCommits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: NamespaceDisorder,
			Subsystem: SubsystemProgram,
			Name:      MetricNameLedgerCommits.String(),
			Help:      "Number of records committed to the ledger",
		}),
	}

	histograms = map[MetricName]prometheus.Histogram{
		MetricNameComputeUsed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: NamespaceDisorder,
			Subsystem: SubsystemProgram,
			Name:      MetricNameComputeUsed.String(),
			Help:      "Compute units used by successful instructions",
			Buckets:   prometheus.ExponentialBuckets(1_000, 4, 8),
		}),
	}
)

func NewMetrics() *Metrics {
	for _, counter := range counters {
		prometheus.Register(counter)
	}
	for _, h := range histograms {
		prometheus.Register(h)
	}
	return &Metrics{}
}

func (m *Metrics) IncrCounter(name MetricName) {
	if counter, ok := counters[name]; ok {
		counter.Inc()
	}
}

func (m *Metrics) Observe(name MetricName, v float64) {
	if h, ok := histograms[name]; ok {
		h.Observe(v)
	}
}

func RegisterHandlers(r *mux.Router) {
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
}
