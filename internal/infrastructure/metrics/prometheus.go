package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monban_decisions_total",
			Help: "Total number of authorization decisions by action and outcome",
		},
		[]string{"action", "decision"},
	)

	ruleReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monban_rule_reloads_total",
			Help: "Total number of rule document reloads by result",
		},
		[]string{"result"},
	)

	rulesLoaded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "monban_rules_loaded",
			Help: "Number of rules in the active snapshot by rule kind",
		},
		[]string{"kind"},
	)
)

// RecordDecision records one authorization decision
func RecordDecision(action string, allowed bool) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	decisions.WithLabelValues(action, decision).Inc()
}

// RecordReload records the outcome of a rule document reload
func RecordReload(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	ruleReloads.WithLabelValues(result).Inc()
}

// SetRulesLoaded records the size of the active rule snapshot for one kind
func SetRulesLoaded(kind string, count int) {
	rulesLoaded.WithLabelValues(kind).Set(float64(count))
}
