package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "outreach_api_requests_total", Help: "API requests"},
		[]string{"endpoint", "status"},
	)
	Deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "outreach_deliveries_total", Help: "Per-recipient delivery outcomes"},
		[]string{"channel", "result"},
	)
	FanOuts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "outreach_fanouts_total", Help: "Broadcast fan-out executions by final status"},
		[]string{"status"},
	)
	SequenceSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "outreach_sequence_steps_total", Help: "Sequence step delivery outcomes"},
		[]string{"result"},
	)
	Transforms = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "outreach_transforms_total", Help: "AI transformation outcomes"},
		[]string{"kind", "result"},
	)
	TransformLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "outreach_transform_latency_seconds", Help: "AI transformation latency"},
	)
	RelaySend = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "outreach_relay_send_total", Help: "Relay send outcomes"},
		[]string{"result", "http_status"},
	)
	RelayLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "outreach_relay_send_latency_seconds", Help: "Relay send latency"},
	)
	Alerts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "outreach_alerts_total", Help: "Alerts raised"},
		[]string{"severity", "category"},
	)
	Enqueues = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "outreach_enqueue_total", Help: "SQS enqueue results"},
		[]string{"result"},
	)
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		APIRequests, Deliveries, FanOuts, SequenceSteps,
		Transforms, TransformLatency, RelaySend, RelayLatency,
		Alerts, Enqueues,
	)
}
