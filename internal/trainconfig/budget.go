package trainconfig

import (
	"fmt"

	"paws/internal/model"
)

// EpochBudget chooses the epoch count and early-stopping patience of a run.
type EpochBudget interface {
	Name() string
	// Epochs returns the requested epochs, or the budget default when requested <= 0.
	Epochs(requested int) int
	Patience() int
}

type fixedBudget struct {
	name     string
	epochs   int
	patience int
}

func (b fixedBudget) Name() string { return b.name }

func (b fixedBudget) Epochs(requested int) int {
	if requested > 0 {
		return requested
	}
	return b.epochs
}

func (b fixedBudget) Patience() int { return b.patience }

// Low-level features are per particle and far more expensive per step.
var (
	HighLevelBudget  EpochBudget = fixedBudget{name: string(model.HighLevel), epochs: 200, patience: 20}
	LowLevelBudget   EpochBudget = fixedBudget{name: string(model.LowLevel), epochs: 20, patience: 5}
	PriorRatioBudget EpochBudget = fixedBudget{name: string(model.PriorRatio), epochs: 3000, patience: 200}
)

func BudgetFromFeatureLevel(level model.FeatureLevel) (EpochBudget, error) {
	switch level {
	case model.HighLevel:
		return HighLevelBudget, nil
	case model.LowLevel:
		return LowLevelBudget, nil
	default:
		return nil, fmt.Errorf("%w: unknown feature level: %s", model.ErrInvalidArgument, level)
	}
}

// SemiWeaklyPatience is the early-stopping patience of semi-weakly runs. The
// likelihood loss converges more slowly.
func SemiWeaklyPatience(loss model.Loss) int {
	if loss == model.NLL {
		return 30
	}
	return 20
}
