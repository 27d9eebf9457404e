package trainconfig

import (
	"fmt"

	"paws/internal/model"
)

// SaveFrequencies are the save modes of the checkpoint and logging callbacks.
// Empty values default to once per epoch.
type SaveFrequencies struct {
	Model  string
	Metric string
	Weight string
}

type Builder struct {
	FeatureLevel  model.FeatureLevel
	Loss          model.Loss
	UseValidation bool
}

// LossFor selects the loss of a model type. An empty model type skips the
// weakly and NLL domain checks.
func (b Builder) LossFor(modelType model.ModelType) (LossSpec, error) {
	switch b.Loss {
	case model.BCE:
		if modelType.Weakly() {
			return ScaledBinaryCrossentropy(), nil
		}
		return BinaryLoss, nil
	case model.NLL:
		if modelType != "" && modelType != model.SemiWeakly {
			return LossSpec{}, fmt.Errorf("%w: NLL loss is only allowed for semi-weakly models, not %s", model.ErrDomainMismatch, modelType)
		}
		return ScaledNLL(), nil
	default:
		return LossSpec{}, fmt.Errorf("%w: invalid name for loss function: %s", model.ErrInvalidArgument, b.Loss)
	}
}

// Build returns a fresh configuration. epochs <= 0 selects the budget default.
func (b Builder) Build(checkpointDir string, modelType model.ModelType, weightClipping bool, epochs int, freq SaveFrequencies) (TrainConfig, error) {
	if modelType == model.PriorRatio {
		return priorRatioConfig(checkpointDir, epochs), nil
	}

	budget, err := BudgetFromFeatureLevel(b.FeatureLevel)
	if err != nil {
		return TrainConfig{}, err
	}
	loss, err := b.LossFor(modelType)
	if err != nil {
		return TrainConfig{}, err
	}
	modelSave, err := model.ParseSaveMode(freq.Model)
	if err != nil {
		return TrainConfig{}, err
	}
	metricSave, err := model.ParseSaveMode(freq.Metric)
	if err != nil {
		return TrainConfig{}, err
	}
	weightSave, err := model.ParseSaveMode(freq.Weight)
	if err != nil {
		return TrainConfig{}, err
	}

	monitor := "loss"
	if b.UseValidation {
		monitor = "val_loss"
	}
	cfg := TrainConfig{
		Loss:            loss,
		Metrics:         []string{"accuracy"},
		Epochs:          budget.Epochs(epochs),
		Optimizer:       "Adam",
		OptimizerConfig: OptimizerConfig{LearningRate: 0.01},
		CheckpointDir:   checkpointDir,
		Callbacks: Callbacks{
			LRScheduler: &LRScheduler{
				InitialLR:     0.001,
				LRDecayFactor: 0.5,
				Patience:      5,
				MinLR:         1e-6,
			},
			EarlyStopping: &EarlyStopping{
				Monitor:                  monitor,
				Patience:                 budget.Patience(),
				RestoreBestWeights:       true,
				AlwaysRestoreBestWeights: true,
			},
			ModelCheckpoint: &ModelCheckpoint{
				SaveWeightsOnly: true,
				SaveBestOnly:    false,
				SaveFreq:        modelSave,
			},
			MetricsLogger: &MetricsLogger{SaveFreq: metricSave},
		},
	}
	// The final-state save of the run replaces per-step checkpoints.
	if modelSave == model.SaveTrain {
		if err := cfg.Callbacks.Remove(ModelCheckpointCallback); err != nil {
			return TrainConfig{}, err
		}
	}

	if modelType == model.SemiWeakly {
		const lr = 0.01
		cfg.Callbacks.WeightsLogger = &WeightsLogger{SaveFreq: weightSave, DisplayWeight: true}
		if weightClipping {
			cfg.OptimizerConfig = OptimizerConfig{LearningRate: lr, ClipValue: 1e-4, ClipNorm: 1e-4}
		}
		cfg.Callbacks.EarlyStopping.Patience = SemiWeaklyPatience(b.Loss)
		cfg.Callbacks.LRScheduler = &LRScheduler{
			InitialLR:     lr,
			LRDecayFactor: 0.5,
			Patience:      5,
			MinLR:         1e-6,
			Verbose:       true,
		}
	}
	return cfg, nil
}

func priorRatioConfig(checkpointDir string, epochs int) TrainConfig {
	return TrainConfig{
		Loss:            MSELoss,
		Epochs:          PriorRatioBudget.Epochs(epochs),
		Optimizer:       "Adam",
		OptimizerConfig: OptimizerConfig{LearningRate: 0.001},
		CheckpointDir:   checkpointDir,
		Callbacks: Callbacks{
			EarlyStopping: &EarlyStopping{
				Monitor:                  "val_loss",
				Patience:                 PriorRatioBudget.Patience(),
				RestoreBestWeights:       true,
				AlwaysRestoreBestWeights: true,
			},
		},
	}
}
