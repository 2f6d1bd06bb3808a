// Package metrics holds the Prometheus collectors and the in-process
// parse latency window.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every collector the service exports. Each instance owns
// its registry so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	DocumentsParsed *prometheus.CounterVec
	QuestionsParsed prometheus.Counter
	ParseDuration   prometheus.Histogram
	SessionsStarted *prometheus.CounterVec
	AnswersTotal    *prometheus.CounterVec
	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// ParseWindow feeds GET /api/stats/parse.
	ParseWindow *Window
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		DocumentsParsed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_documents_parsed_total",
				Help: "Documents run through extraction and parsing",
			},
			[]string{"format", "outcome"},
		),
		QuestionsParsed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "quiz_questions_parsed_total",
				Help: "Questions produced by the parser",
			},
		),
		ParseDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "quiz_parse_duration_seconds",
				Help:    "Time to extract and parse one document",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
		),
		SessionsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_sessions_started_total",
				Help: "Sessions started by mode",
			},
			[]string{"mode"},
		),
		AnswersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_answers_total",
				Help: "Answers submitted by mode and correctness",
			},
			[]string{"mode", "result"},
		),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		),
		ParseWindow: NewWindow(time.Hour),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.DocumentsParsed,
		m.QuestionsParsed,
		m.ParseDuration,
		m.SessionsStarted,
		m.AnswersTotal,
		m.RequestCounter,
		m.RequestDuration,
	)
	return m
}

// ObserveParse records one document parse.
func (m *Metrics) ObserveParse(format string, questions int, d time.Duration, err error) {
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case questions == 0:
		outcome = "empty"
	}
	m.DocumentsParsed.WithLabelValues(format, outcome).Inc()
	m.QuestionsParsed.Add(float64(questions))
	m.ParseDuration.Observe(d.Seconds())
	m.ParseWindow.Record(d)
}

// ObserveAnswer records one submitted answer.
func (m *Metrics) ObserveAnswer(mode string, correct bool) {
	result := "wrong"
	if correct {
		result = "correct"
	}
	m.AnswersTotal.WithLabelValues(mode, result).Inc()
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.RequestCounter.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
