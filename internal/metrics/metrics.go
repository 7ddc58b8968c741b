package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	transactionsCounter   *prometheus.CounterVec
	pollsCounter          prometheus.Counter
	gasSelectionFailures  prometheus.Counter
	notificationsReceived prometheus.Counter
	currentTurnGauge      prometheus.Gauge
}

// TransactionSubmitted counts a submission by program action and outcome ("success", "failure", "error").
func (m *metrics) TransactionSubmitted(action, status string) {
	m.transactionsCounter.WithLabelValues(action, status).Inc()
}

func (m *metrics) Polled() {
	m.pollsCounter.Inc()
}

func (m *metrics) GasSelectionFailed() {
	m.gasSelectionFailures.Inc()
}

func (m *metrics) NotificationReceived() {
	m.notificationsReceived.Inc()
}

func (m *metrics) SetCurrentTurn(turn uint8) {
	m.currentTurnGauge.Set(float64(turn))
}

var Metrics = &metrics{
	transactionsCounter: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tictactoe_transactions_total",
		Help: "Total number of submitted transactions by action and status",
	}, []string{"action", "status"}),
	pollsCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "tictactoe_polls_total",
		Help: "Total number of game state polls",
	}),
	gasSelectionFailures: promauto.NewCounter(prometheus.CounterOpts{
		Name: "tictactoe_gas_selection_failures_total",
		Help: "Total number of times no eligible gas coin was found",
	}),
	notificationsReceived: promauto.NewCounter(prometheus.CounterOpts{
		Name: "tictactoe_turn_notifications_received_total",
		Help: "Total number of opponent turn notifications received",
	}),
	currentTurnGauge: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tictactoe_current_turn",
		Help: "cur_turn of the game being played",
	}),
}
