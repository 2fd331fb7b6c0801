package arbiter

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Text edit results recorded by Metrics.
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
	ResultStale    = "stale"
)

// Metrics counts arbiter activity. One instance is usually shared by every session of a
// process. A nil *Metrics records nothing.
type Metrics struct {
	StructuredEdits  prometheus.Counter
	EchoesSuppressed prometheus.Counter
	TextEdits        *prometheus.CounterVec
	DebounceResets   prometheus.Counter
}

// NewMetrics creates the counters and registers them on reg when reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StructuredEdits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sitescript_structured_edits_total",
			Help: "Total number of edits applied through the structured editor",
		}),
		EchoesSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sitescript_echoes_suppressed_total",
			Help: "Total number of text changes discarded as echoes of structured edits",
		}),
		TextEdits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitescript_text_edits_total",
				Help: "Total number of settled text edits by result",
			},
			[]string{"result"},
		),
		DebounceResets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sitescript_debounce_resets_total",
			Help: "Total number of quiescence timers restarted by a newer text change",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.StructuredEdits, m.EchoesSuppressed, m.TextEdits, m.DebounceResets)
	}
	return m
}

func (m *Metrics) structuredEdit() {
	if m != nil {
		m.StructuredEdits.Inc()
	}
}

func (m *Metrics) echoSuppressed() {
	if m != nil {
		m.EchoesSuppressed.Inc()
	}
}

func (m *Metrics) textEdit(result string) {
	if m != nil {
		m.TextEdits.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) debounceReset() {
	if m != nil {
		m.DebounceResets.Inc()
	}
}
