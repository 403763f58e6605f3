// Package metrics instruments the dashboard pipeline with prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pulsedash"

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	SamplesAccepted prometheus.Counter
	SamplesRejected prometheus.Counter
	OutOfRange      prometheus.Counter
	TransportFaults prometheus.Counter
	Sessions        prometheus.Counter
	WindowLength    prometheus.Gauge
	SimClients      prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SamplesAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "samples_accepted_total",
			Help: "Heart-rate samples pushed into the live window.",
		}),
		SamplesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "samples_rejected_total",
			Help: "Inbound messages rejected as malformed.",
		}),
		OutOfRange: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "samples_out_of_range_total",
			Help: "Samples outside the safe heart-rate range.",
		}),
		TransportFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "transport_faults_total",
			Help: "Transport errors observed during a session.",
		}),
		Sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "sessions_started_total",
			Help: "Monitoring sessions started.",
		}),
		WindowLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "window_samples",
			Help: "Samples currently held in the live window.",
		}),
		SimClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "sim_clients",
			Help: "Websocket clients connected to the simulator.",
		}),
	}
	reg.MustRegister(m.SamplesAccepted, m.SamplesRejected, m.OutOfRange,
		m.TransportFaults, m.Sessions, m.WindowLength, m.SimClients)
	return m
}

func (m *Metrics) Accepted(outOfRange bool, window int) {
	if m == nil {
		return
	}
	m.SamplesAccepted.Inc()
	if outOfRange {
		m.OutOfRange.Inc()
	}
	m.WindowLength.Set(float64(window))
}

func (m *Metrics) Rejected() {
	if m != nil {
		m.SamplesRejected.Inc()
	}
}

func (m *Metrics) Fault() {
	if m != nil {
		m.TransportFaults.Inc()
	}
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.Sessions.Inc()
	m.WindowLength.Set(0)
}

func (m *Metrics) ClientConnected(delta int) {
	if m != nil {
		m.SimClients.Add(float64(delta))
	}
}
