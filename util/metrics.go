package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	gamesCreatedCounter        prometheus.Counter
	roundsCompletedCounter     prometheus.Counter
	gamesCompletedCounter      prometheus.Counter
	rejectedSubmissionsCounter *prometheus.CounterVec
	collaboratorFailureCounter *prometheus.CounterVec
	activeGamesGauge           prometheus.Gauge
}

func (m *metrics) GameCreated() {
	m.gamesCreatedCounter.Inc()
}

func (m *metrics) RoundCompleted() {
	m.roundsCompletedCounter.Inc()
}

func (m *metrics) GameCompleted() {
	m.gamesCompletedCounter.Inc()
}

func (m *metrics) SubmissionRejected(kind string) {
	m.rejectedSubmissionsCounter.WithLabelValues(kind).Inc()
}

func (m *metrics) CollaboratorFailed(collaborator string) {
	m.collaboratorFailureCounter.WithLabelValues(collaborator).Inc()
}

func (m *metrics) SetActiveGamesCount(count int) {
	m.activeGamesGauge.Set(float64(count))
}

var Metrics = &metrics{
	gamesCreatedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "games_created_total",
		Help: "Total number of games created",
	}),
	roundsCompletedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "rounds_completed_total",
		Help: "Total number of rounds scored",
	}),
	gamesCompletedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "games_completed_total",
		Help: "Total number of games played to the end or force-completed",
	}),
	rejectedSubmissionsCounter: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rejected_submissions_total",
		Help: "Bid and trick submissions rejected by validation, by kind",
	}, []string{"kind"}),
	collaboratorFailureCounter: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collaborator_failures_total",
		Help: "Failed persistence and notification attempts, by collaborator",
	}, []string{"collaborator"}),
	activeGamesGauge: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "active_games_count",
		Help: "Count of the games held in memory by the game manager",
	}),
}
