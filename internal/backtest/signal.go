package backtest

import (
	"algotrade/internal/domain"
)

// Rule decides the desired position for a single aligned row. A rule is a
// pure predicate over the row's indicator values and the prior signal: it
// must not keep state of its own across rows, so identical inputs always
// evaluate to identical signals. The engine is agnostic to which indicators
// or thresholds a rule uses.
type Rule interface {
	// Name identifies the rule in summaries and logs.
	Name() string

	// Indicators returns the indicator columns the rule reads. A row in
	// which any of them is undefined is excluded from simulation before
	// Evaluate is ever called.
	Indicators() []string

	// Evaluate returns SignalLong or SignalFlat for a row whose referenced
	// indicators are all defined. prior is the most recent defined signal,
	// or SignalUndefined at the start of the series; band-style rules use
	// it to hold their current side inside the band.
	Evaluate(row Row, prior domain.Signal) domain.Signal
}

// RuleFunc adapts an ad-hoc predicate into a Rule.
type RuleFunc struct {
	RuleName string
	Columns  []string
	Fn       func(row Row, prior domain.Signal) domain.Signal
}

// Name returns the rule identifier.
func (r RuleFunc) Name() string { return r.RuleName }

// Indicators returns the columns the predicate reads.
func (r RuleFunc) Indicators() []string { return r.Columns }

// Evaluate applies the wrapped predicate.
func (r RuleFunc) Evaluate(row Row, prior domain.Signal) domain.Signal {
	return r.Fn(row, prior)
}

// ApplySignals evaluates the rule over every row and returns a copy of the
// table with the Signal column filled in. Rows where any indicator the rule
// references is undefined get SignalUndefined — never a silent default to
// long or flat — and do not advance the prior signal.
func ApplySignals(rows []Row, rule Rule) []Row {
	refs := rule.Indicators()

	out := make([]Row, len(rows))
	copy(out, rows)

	prior := domain.SignalUndefined
	for i := range out {
		if !out[i].Defined(refs...) {
			out[i].Signal = domain.SignalUndefined
			continue
		}
		out[i].Signal = rule.Evaluate(out[i], prior)
		prior = out[i].Signal
	}
	return out
}
