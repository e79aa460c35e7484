// Package outline turns the free text returned by the strategy model into a
// typed domain.Outline. Strategies are tried in order and the last one is a
// deterministic template, so Parse always returns a usable outline.
package outline

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"articlegen/internal/domain"
)

// ErrNoSections is returned by a strategy whose result has no usable section.
var ErrNoSections = errors.New("outline: no sections")

// Strategy extracts an outline from raw model output.
type Strategy interface {
	Name() string
	Parse(raw, subject string) (domain.Outline, error)
}

// Rejection records a strategy that did not produce a valid outline.
type Rejection struct {
	Strategy string
	Err      error
}

// Result is the outcome of a chain run.
type Result struct {
	Outline  domain.Outline
	Strategy string
	Rejected []Rejection
}

// Chain runs strategies in order until one yields a valid outline.
type Chain struct {
	strategies []Strategy
	fallback   Strategy
	logger     zerolog.Logger
}

// NewChain builds a chain. Without explicit strategies the default order is
// strict JSON, embedded JSON, prose; the template strategy is always last.
func NewChain(logger zerolog.Logger, strategies ...Strategy) *Chain {
	if len(strategies) == 0 {
		strategies = []Strategy{StrictJSON{}, EmbeddedJSON{}, Prose{}}
	}
	return &Chain{strategies: strategies, fallback: Template{}, logger: logger}
}

// Parse never fails. subject seeds every templated default.
func (c *Chain) Parse(raw, subject string) Result {
	var rejected []Rejection
	for _, s := range append(append([]Strategy(nil), c.strategies...), c.fallback) {
		out, err := safeParse(s, raw, subject)
		if err == nil && !out.Valid() {
			err = ErrNoSections
		}
		if err != nil {
			c.logger.Warn().Err(err).Str("strategy", s.Name()).Msg("outline: strategy rejected")
			rejected = append(rejected, Rejection{Strategy: s.Name(), Err: err})
			continue
		}
		c.logger.Debug().Str("strategy", s.Name()).Int("sections", len(out.Sections)).Msg("outline: parsed")
		return Result{Outline: out, Strategy: s.Name(), Rejected: rejected}
	}
	// Unreachable while Template is the fallback.
	out := buildTemplate(subject)
	return Result{Outline: out, Strategy: Template{}.Name(), Rejected: rejected}
}

func safeParse(s Strategy, raw, subject string) (out domain.Outline, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("outline: strategy %s panicked: %v", s.Name(), r)
		}
	}()
	return s.Parse(raw, subject)
}
