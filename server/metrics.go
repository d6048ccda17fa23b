package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "authproxy"

// Outcome label values.
const (
	outcomeSuccess  = "success"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// Metrics counts flow outcomes on a registry owned by the server.
type Metrics struct {
	registry  *prometheus.Registry
	authorize *prometheus.CounterVec
	callback  *prometheus.CounterVec
	token     *prometheus.CounterVec
	register  *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry:  prometheus.NewRegistry(),
		authorize: newOutcomeCounter("authorize_total", "Authorization requests by outcome."),
		callback:  newOutcomeCounter("callback_total", "Upstream callbacks by outcome."),
		token:     newOutcomeCounter("token_total", "Token exchanges by outcome."),
		register:  newOutcomeCounter("register_total", "Client registrations by outcome."),
	}
	m.registry.MustRegister(
		m.authorize,
		m.callback,
		m.token,
		m.register,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func newOutcomeCounter(name, help string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      name,
		Help:      help,
	}, []string{"outcome"})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// outcomeOf maps an error from the auth service onto an outcome label.
func outcomeOf(err error) string {
	if err == nil {
		return outcomeSuccess
	}
	if _, ok := asOAuthError(err); ok {
		return outcomeRejected
	}
	return outcomeError
}
