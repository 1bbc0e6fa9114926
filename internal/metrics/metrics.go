package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is nil-safe: a nil *Metrics records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	guesses    *prometheus.CounterVec
	highscores prometheus.Counter
	logins     *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		guesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dexquiz_guesses_total",
			Help: "Quiz guesses evaluated, by result.",
		}, []string{"result"}),
		highscores: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dexquiz_highscores_submitted_total",
			Help: "Highscores committed to the database.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dexquiz_logins_total",
			Help: "Login attempts, by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		m.guesses,
		m.highscores,
		m.logins,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Guess(correct bool) {
	if m == nil {
		return
	}
	result := "incorrect"
	if correct {
		result = "correct"
	}
	m.guesses.WithLabelValues(result).Inc()
}

func (m *Metrics) HighscoreSubmitted() {
	if m == nil {
		return
	}
	m.highscores.Inc()
}

func (m *Metrics) Login(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
