package payment

import (
	"context"
	"math/rand"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
)

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
)

func (o Outcome) String() string {
	if o == OutcomeSuccess {
		return "success"
	}
	return "failure"
}

// OutcomePolicy decides how a simulated gateway answers.
type OutcomePolicy interface {
	ResolveOutcome(ctx context.Context, order *domain.Order, gateway string) Outcome
}

// WeightedRandom succeeds with probability SuccessRate.
type WeightedRandom struct {
	SuccessRate float64
	roll        func() float64
}

func NewWeightedRandom(successRate float64) *WeightedRandom {
	return &WeightedRandom{SuccessRate: successRate, roll: rand.Float64}
}

func (w *WeightedRandom) ResolveOutcome(context.Context, *domain.Order, string) Outcome {
	return calcOutcome(w.roll(), w.SuccessRate)
}

func calcOutcome(roll, successRate float64) Outcome {
	if roll < successRate {
		return OutcomeSuccess
	}
	return OutcomeFailure
}

// Fixed always resolves to the same outcome.
type Fixed Outcome

func (f Fixed) ResolveOutcome(context.Context, *domain.Order, string) Outcome {
	return Outcome(f)
}
