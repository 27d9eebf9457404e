// Package trainconfig produces the declarative training configuration consumed
// by the external training loop.
package trainconfig

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"paws/internal/model"
)

var ErrUnknownCallback = errors.New("unknown callback")

// Callback names.
const (
	EarlyStoppingCallback   = "early_stopping"
	LRSchedulerCallback     = "lr_scheduler"
	ModelCheckpointCallback = "model_checkpoint"
	MetricsLoggerCallback   = "metrics_logger"
	WeightsLoggerCallback   = "weights_logger"
)

var callbackOrder = []string{
	LRSchedulerCallback,
	EarlyStoppingCallback,
	ModelCheckpointCallback,
	MetricsLoggerCallback,
	WeightsLoggerCallback,
}

type TrainConfig struct {
	Loss            LossSpec        `yaml:"loss" json:"loss"`
	Metrics         []string        `yaml:"metrics,omitempty" json:"metrics,omitempty"`
	Epochs          int             `yaml:"epochs" json:"epochs"`
	Optimizer       string          `yaml:"optimizer" json:"optimizer"`
	OptimizerConfig OptimizerConfig `yaml:"optimizer_config" json:"optimizer_config"`
	CheckpointDir   string          `yaml:"checkpoint_dir" json:"checkpoint_dir"`
	Callbacks       Callbacks       `yaml:"callbacks" json:"callbacks"`
}

// LossSpec names a loss; scaled losses compute scale * (loss + offset).
type LossSpec struct {
	Name    string       `yaml:"name" json:"name"`
	Scaling *LossScaling `yaml:"scaling,omitempty" json:"scaling,omitempty"`
}

type LossScaling struct {
	Offset float64 `yaml:"offset" json:"offset"`
	Scale  float64 `yaml:"scale" json:"scale"`
}

func (l LossSpec) String() string {
	if l.Scaling == nil {
		return l.Name
	}
	return fmt.Sprintf("%s(offset=%g, scale=%g)", l.Name, l.Scaling.Offset, l.Scaling.Scale)
}

var (
	MSELoss    = LossSpec{Name: "MSE"}
	BinaryLoss = LossSpec{Name: "binary_crossentropy"}
)

// ScaledBinaryCrossentropy is offset by -ln 2 so an uninformative weight scores zero.
func ScaledBinaryCrossentropy() LossSpec {
	return LossSpec{Name: "ScaledBinaryCrossentropy", Scaling: &LossScaling{Offset: -math.Ln2, Scale: 1000}}
}

func ScaledNLL() LossSpec {
	return LossSpec{Name: "ScaledNLL", Scaling: &LossScaling{Offset: 0, Scale: 1}}
}

type OptimizerConfig struct {
	LearningRate float64 `yaml:"learning_rate" json:"learning_rate"`
	ClipValue    float64 `yaml:"clipvalue,omitempty" json:"clipvalue,omitempty"`
	ClipNorm     float64 `yaml:"clipnorm,omitempty" json:"clipnorm,omitempty"`
}

// Callbacks holds one optional parameter set per callback.
type Callbacks struct {
	LRScheduler     *LRScheduler     `yaml:"lr_scheduler,omitempty" json:"lr_scheduler,omitempty"`
	EarlyStopping   *EarlyStopping   `yaml:"early_stopping,omitempty" json:"early_stopping,omitempty"`
	ModelCheckpoint *ModelCheckpoint `yaml:"model_checkpoint,omitempty" json:"model_checkpoint,omitempty"`
	MetricsLogger   *MetricsLogger   `yaml:"metrics_logger,omitempty" json:"metrics_logger,omitempty"`
	WeightsLogger   *WeightsLogger   `yaml:"weights_logger,omitempty" json:"weights_logger,omitempty"`
}

type LRScheduler struct {
	InitialLR     float64 `yaml:"initial_lr" json:"initial_lr"`
	LRDecayFactor float64 `yaml:"lr_decay_factor" json:"lr_decay_factor"`
	Patience      int     `yaml:"patience" json:"patience"`
	MinLR         float64 `yaml:"min_lr" json:"min_lr"`
	Verbose       bool    `yaml:"verbose,omitempty" json:"verbose,omitempty"`
}

type EarlyStopping struct {
	Monitor                  string `yaml:"monitor" json:"monitor"`
	Patience                 int    `yaml:"patience" json:"patience"`
	RestoreBestWeights       bool   `yaml:"restore_best_weights" json:"restore_best_weights"`
	AlwaysRestoreBestWeights bool   `yaml:"always_restore_best_weights" json:"always_restore_best_weights"`
}

type ModelCheckpoint struct {
	SaveWeightsOnly bool           `yaml:"save_weights_only" json:"save_weights_only"`
	SaveBestOnly    bool           `yaml:"save_best_only" json:"save_best_only"`
	SaveFreq        model.SaveMode `yaml:"save_freq" json:"save_freq"`
}

type MetricsLogger struct {
	SaveFreq model.SaveMode `yaml:"save_freq" json:"save_freq"`
}

type WeightsLogger struct {
	SaveFreq      model.SaveMode `yaml:"save_freq" json:"save_freq"`
	DisplayWeight bool           `yaml:"display_weight" json:"display_weight"`
}

// Names lists the configured callbacks.
func (c Callbacks) Names() []string {
	names := make([]string, 0, len(callbackOrder))
	for _, name := range callbackOrder {
		if c.Has(name) {
			names = append(names, name)
		}
	}
	return names
}

func (c Callbacks) Has(name string) bool {
	switch name {
	case LRSchedulerCallback:
		return c.LRScheduler != nil
	case EarlyStoppingCallback:
		return c.EarlyStopping != nil
	case ModelCheckpointCallback:
		return c.ModelCheckpoint != nil
	case MetricsLoggerCallback:
		return c.MetricsLogger != nil
	case WeightsLoggerCallback:
		return c.WeightsLogger != nil
	default:
		return false
	}
}

// Remove drops a callback entry. Removing an absent entry is a no-op.
func (c *Callbacks) Remove(name string) error {
	switch name {
	case LRSchedulerCallback:
		c.LRScheduler = nil
	case EarlyStoppingCallback:
		c.EarlyStopping = nil
	case ModelCheckpointCallback:
		c.ModelCheckpoint = nil
	case MetricsLoggerCallback:
		c.MetricsLogger = nil
	case WeightsLoggerCallback:
		c.WeightsLogger = nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCallback, name)
	}
	return nil
}

// Marshal renders the configuration as YAML.
func Marshal(cfg TrainConfig) ([]byte, error) {
	return yaml.Marshal(cfg)
}

func Unmarshal(data []byte) (TrainConfig, error) {
	var cfg TrainConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return TrainConfig{}, fmt.Errorf("decode train config: %w", err)
	}
	return cfg, nil
}

// Summary logs the optimizer, loss, patience and scheduler of cfg.
func Summary(cfg TrainConfig) {
	event := log.Info().
		Str("optimizer", cfg.Optimizer).
		Float64("learning_rate", cfg.OptimizerConfig.LearningRate).
		Str("loss", cfg.Loss.String()).
		Int("epochs", cfg.Epochs)
	if cfg.OptimizerConfig.ClipValue != 0 || cfg.OptimizerConfig.ClipNorm != 0 {
		event = event.
			Float64("clipvalue", cfg.OptimizerConfig.ClipValue).
			Float64("clipnorm", cfg.OptimizerConfig.ClipNorm)
	}
	if es := cfg.Callbacks.EarlyStopping; es != nil {
		event = event.Int("early_stopping_patience", es.Patience).Str("monitor", es.Monitor)
	}
	if lr := cfg.Callbacks.LRScheduler; lr != nil {
		event = event.Dict("lr_scheduler", zerolog.Dict().
			Float64("initial_lr", lr.InitialLR).
			Float64("lr_decay_factor", lr.LRDecayFactor).
			Int("patience", lr.Patience).
			Float64("min_lr", lr.MinLR))
	}
	event.Msg("train configuration")
}
