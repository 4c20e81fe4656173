package userop

import (
	"fmt"

	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/config"
)

// Rule thresholds
const (
	MinCallGasLimit         = 10000
	MinVerificationGasLimit = 10000
	MinPreVerificationGas   = 21000
	MinMaxFeePerGas         = 0.1
	MinPriorityFeeStrict    = 0.01
	MaxTotalFeeEthStrict    = 0.0005
)

// Clause is one validity condition
type Clause struct {
	Name  string
	Holds func(Genome) bool
}

// RuleSet is the ordered list of clauses a valid genome must satisfy
type RuleSet struct {
	Name    string
	Clauses []Clause
}

// RuleViolation names the first clause a genome failed
type RuleViolation struct {
	Rules  string
	Clause string
}

func (e *RuleViolation) Error() string {
	return fmt.Sprintf("%s rules: %s does not hold", e.Rules, e.Clause)
}

var baseClauses = []Clause{
	{Name: "callGasLimit >= 10000", Holds: func(g Genome) bool { return g.CallGasLimit >= MinCallGasLimit }},
	{Name: "verificationGasLimit >= 10000", Holds: func(g Genome) bool { return g.VerificationGasLimit >= MinVerificationGasLimit }},
	{Name: "preVerificationGas >= 21000", Holds: func(g Genome) bool { return g.PreVerificationGas >= MinPreVerificationGas }},
	{Name: "maxFeePerGas >= maxPriorityFeePerGas", Holds: func(g Genome) bool { return g.MaxFeePerGas >= g.MaxPriorityFeePerGas }},
	{Name: "maxFeePerGas >= 0.1", Holds: func(g Genome) bool { return g.MaxFeePerGas >= MinMaxFeePerGas }},
}

// StandardRules is the rule set used by the bundle-size experiments
var StandardRules = RuleSet{Name: config.RulesStandard, Clauses: baseClauses}

// StrictRules adds a priority fee floor and a total fee ceiling to StandardRules
var StrictRules = RuleSet{
	Name: config.RulesStrict,
	Clauses: append(append([]Clause(nil), baseClauses...),
		Clause{Name: "maxPriorityFeePerGas >= 0.01", Holds: func(g Genome) bool { return g.MaxPriorityFeePerGas >= MinPriorityFeeStrict }},
		Clause{Name: "total fee < 0.0005 ETH", Holds: func(g Genome) bool { return TotalFeeEth(g) < MaxTotalFeeEthStrict }},
	),
}

// TotalFeeEth is the worst-case fee of g: summed gas limits at maxFeePerGas, in ETH
func TotalFeeEth(g Genome) float64 {
	return float64(g.TotalGasLimit()) * g.MaxFeePerGas / GweiPerEth
}

// RulesByName returns the named rule set
func RulesByName(name string) (RuleSet, error) {
	switch name {
	case config.RulesStandard, "":
		return StandardRules, nil
	case config.RulesStrict:
		return StrictRules, nil
	default:
		return RuleSet{}, fmt.Errorf("unknown rule set %q", name)
	}
}

// Check returns a *RuleViolation for the first clause g fails, nil when g is valid
func (r RuleSet) Check(g Genome) error {
	for _, c := range r.Clauses {
		if !c.Holds(g) {
			return &RuleViolation{Rules: r.Name, Clause: c.Name}
		}
	}
	return nil
}

// Valid reports whether g satisfies every clause
func (r RuleSet) Valid(g Genome) bool {
	return r.Check(g) == nil
}
