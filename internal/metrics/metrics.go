package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the bot
type Metrics struct {
	CommandsExecuted *prometheus.CounterVec
	StrikesRecorded  prometheus.Counter
	Escalations      *prometheus.CounterVec
	Sweeps           *prometheus.CounterVec
	LedgerFailures   prometheus.Counter
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CommandsExecuted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jira_commands_executed_total",
			Help: "Slash commands executed, by command name and outcome",
		}, []string{"command", "outcome"}),
		StrikesRecorded: f.NewCounter(prometheus.CounterOpts{
			Name: "jira_strikes_recorded_total",
			Help: "Strikes written to the ledger",
		}),
		Escalations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jira_escalations_total",
			Help: "Escalation actions taken after a strike, by action",
		}, []string{"action"}),
		Sweeps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jira_ledger_sweeps_total",
			Help: "Expired-strike sweeps, by whether the ledger changed",
		}, []string{"changed"}),
		LedgerFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "jira_ledger_save_failures_total",
			Help: "Ledger operations that failed to persist",
		}),
	}
}

func (m *Metrics) ObserveCommand(name string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.CommandsExecuted.WithLabelValues(name, outcome).Inc()
}

func (m *Metrics) StrikeRecorded() {
	m.StrikesRecorded.Inc()
}

func (m *Metrics) Escalated(action string) {
	m.Escalations.WithLabelValues(action).Inc()
}

func (m *Metrics) LedgerFailed() {
	m.LedgerFailures.Inc()
}

// ObserveSweep records one sweeper pass. Failed passes count as ledger failures.
func (m *Metrics) ObserveSweep(changed bool, err error) {
	if err != nil {
		m.LedgerFailed()
		return
	}
	m.Sweeps.WithLabelValues(strconv.FormatBool(changed)).Inc()
}
