package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quiz-session-service/internal/domain"
)

// Collector records engine and HTTP metrics. It implements app.Observer.
type Collector struct {
	registry *prometheus.Registry

	sessionsStarted *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	playersJoined   prometheus.Counter
	answers         *prometheus.CounterVec
	staleTimers     prometheus.Counter
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		sessionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_sessions_started_total",
			Help: "Quiz sessions started, by quiz.",
		}, []string{"quiz_id"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_session_transitions_total",
			Help: "Session state transitions.",
		}, []string{"from", "to", "cause"}),
		playersJoined: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_players_joined_total",
			Help: "Players that joined a session.",
		}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_answers_submitted_total",
			Help: "Accepted answer submissions.",
		}, []string{"correct"}),
		staleTimers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_stale_timer_fires_total",
			Help: "Timer firings ignored because the session had moved on.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"method", "route"}),
	}
	c.registry.MustRegister(
		c.sessionsStarted,
		c.transitions,
		c.playersJoined,
		c.answers,
		c.staleTimers,
		c.requests,
		c.requestDuration,
	)
	return c
}

func (c *Collector) SessionStarted(quizID int) {
	c.sessionsStarted.WithLabelValues(strconv.Itoa(quizID)).Inc()
}

func (c *Collector) StateChanged(from, to domain.SessionState, cause string) {
	c.transitions.WithLabelValues(string(from), string(to), cause).Inc()
}

func (c *Collector) PlayerJoined() {
	c.playersJoined.Inc()
}

func (c *Collector) AnswerSubmitted(correct bool) {
	c.answers.WithLabelValues(strconv.FormatBool(correct)).Inc()
}

func (c *Collector) StaleTimer() {
	c.staleTimers.Inc()
}

// ObserveRequest records one served HTTP request.
func (c *Collector) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
