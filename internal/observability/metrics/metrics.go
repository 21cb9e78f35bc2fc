package metrics

import "github.com/prometheus/client_golang/prometheus"

// DialogMetrics exposes counters/histograms for the dialog funnel.
type DialogMetrics struct {
	inboundTotal   *prometheus.CounterVec
	repliesTotal   *prometheus.CounterVec
	leadsTotal     *prometheus.CounterVec
	hotAlertsTotal *prometheus.CounterVec
	escalations    *prometheus.CounterVec
	llmFallbacks   *prometheus.CounterVec
	replyLatency   *prometheus.HistogramVec
}

func NewDialogMetrics(reg prometheus.Registerer) *DialogMetrics {
	m := &DialogMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadbot",
			Subsystem: "dialog",
			Name:      "inbound_total",
			Help:      "Total inbound customer messages",
		}, []string{"platform"}),
		repliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadbot",
			Subsystem: "dialog",
			Name:      "replies_total",
			Help:      "Total replies produced, by funnel branch",
		}, []string{"platform", "branch"}),
		leadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadbot",
			Subsystem: "dialog",
			Name:      "leads_total",
			Help:      "Total finalized measurement leads",
		}, []string{"platform"}),
		hotAlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadbot",
			Subsystem: "dialog",
			Name:      "hot_alerts_total",
			Help:      "Total high-interest operator alerts",
		}, []string{"platform"}),
		escalations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadbot",
			Subsystem: "dialog",
			Name:      "escalations_total",
			Help:      "Total handoffs to a human operator",
		}, []string{"platform"}),
		llmFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadbot",
			Subsystem: "dialog",
			Name:      "llm_fallbacks_total",
			Help:      "Total free-form completions, by outcome",
		}, []string{"platform", "outcome"}),
		replyLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leadbot",
			Subsystem: "dialog",
			Name:      "reply_latency_seconds",
			Help:      "Latency of producing one reply",
			Buckets:   prometheus.DefBuckets,
		}, []string{"platform"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.repliesTotal, m.leadsTotal,
		m.hotAlertsTotal, m.escalations, m.llmFallbacks, m.replyLatency)
	return m
}

func (m *DialogMetrics) ObserveInbound(platform string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(platform).Inc()
}

func (m *DialogMetrics) ObserveReply(platform, branch string) {
	if m == nil {
		return
	}
	m.repliesTotal.WithLabelValues(platform, branch).Inc()
}

func (m *DialogMetrics) ObserveLead(platform string) {
	if m == nil {
		return
	}
	m.leadsTotal.WithLabelValues(platform).Inc()
}

func (m *DialogMetrics) ObserveHotAlert(platform string) {
	if m == nil {
		return
	}
	m.hotAlertsTotal.WithLabelValues(platform).Inc()
}

func (m *DialogMetrics) ObserveEscalation(platform string) {
	if m == nil {
		return
	}
	m.escalations.WithLabelValues(platform).Inc()
}

func (m *DialogMetrics) ObserveLLMFallback(platform, outcome string) {
	if m == nil {
		return
	}
	m.llmFallbacks.WithLabelValues(platform, outcome).Inc()
}

func (m *DialogMetrics) ObserveReplyLatency(platform string, seconds float64) {
	if m == nil {
		return
	}
	m.replyLatency.WithLabelValues(platform).Observe(seconds)
}
