// Package quality scores a finished article against the workflow thresholds.
// Evaluate always returns a verdict: a check that cannot be evaluated scores 0.
package quality

import (
	"fmt"
	"math"

	"articlegen/internal/domain"
	"articlegen/internal/staticcfg"
)

// Input is everything the checks look at.
type Input struct {
	Article        domain.Article
	Images         domain.ImageSet
	Meta           domain.Meta
	PrimaryKeyword string
	Workflow       staticcfg.Workflow
	SiteURL        string
	Recent         []staticcfg.ArticleSummary
}

// Outcome is what a single check reports.
type Outcome struct {
	Score  float64
	Passed bool
	Detail string
}

// Checker is one weighted check.
type Checker struct {
	Name   string
	Weight float64
	Eval   func(Input) Outcome
}

// Check is the evaluated form of a Checker.
type Check struct {
	Name   string  `json:"name"`
	Passed bool    `json:"passed"`
	Weight float64 `json:"weight"`
	Score  float64 `json:"score"`
	Detail string  `json:"detail,omitempty"`
}

// Report is the gate verdict.
type Report struct {
	Checks    []Check `json:"checks"`
	Score     float64 `json:"score"`
	Threshold float64 `json:"threshold"`
	Accepted  bool    `json:"accepted"`
}

// Gate evaluates a fixed list of checks.
type Gate struct {
	checks []Checker
}

// NewGate builds a gate. Without checkers it uses DefaultCheckers.
func NewGate(checks ...Checker) *Gate {
	if len(checks) == 0 {
		checks = DefaultCheckers()
	}
	return &Gate{checks: checks}
}

// Evaluate scores in. The overall score is Σ(score·weight)/Σ(weight) and the
// article is accepted iff it reaches the workflow's quality threshold.
func (g *Gate) Evaluate(in Input) Report {
	threshold := in.Workflow.QualityThreshold
	if threshold <= 0 {
		threshold = staticcfg.DefaultWorkflow().QualityThreshold
	}
	in.Workflow = in.Workflow.WithDefaults()

	report := Report{Threshold: threshold, Checks: make([]Check, 0, len(g.checks))}
	var weighted, totalWeight float64
	for _, c := range g.checks {
		out := runCheck(c, in)
		weight := c.Weight
		if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
			weight = 0
		}
		report.Checks = append(report.Checks, Check{
			Name:   c.Name,
			Passed: out.Passed,
			Weight: weight,
			Score:  out.Score,
			Detail: out.Detail,
		})
		weighted += out.Score * weight
		totalWeight += weight
	}
	if totalWeight > 0 {
		report.Score = weighted / totalWeight
	}
	report.Accepted = report.Score >= threshold
	return report
}

func runCheck(c Checker, in Input) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Detail: fmt.Sprintf("check failed: %v", r)}
		}
	}()
	if c.Eval == nil {
		return Outcome{Detail: "check not implemented"}
	}
	out = c.Eval(in)
	out.Score = clampScore(out.Score)
	if out.Score == 0 {
		out.Passed = false
	}
	return out
}

func clampScore(s float64) float64 {
	switch {
	case math.IsNaN(s), s < 0:
		return 0
	case s > 100:
		return 100
	default:
		return s
	}
}
