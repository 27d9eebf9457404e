package trainconfig

import (
	"fmt"
	"path/filepath"

	"paws/internal/model"
	"paws/internal/pathmgr"
)

// CallbackSpec is a callback ready to be instantiated by the training loop.
// Path is the checkpoint file pattern or cache directory, when the callback has one.
type CallbackSpec struct {
	Name   string
	Path   string
	Params any
}

// CallbackSpecs resolves the configured callbacks named in targets, or every
// configured callback when targets is empty. The weights logger is only
// produced for semi-weakly models.
func CallbackSpecs(modelType model.ModelType, cfg TrainConfig, targets []string, paths pathmgr.Resolver) ([]CallbackSpec, error) {
	if len(targets) == 0 {
		targets = cfg.Callbacks.Names()
	}
	wanted := make(map[string]bool, len(targets))
	for _, name := range targets {
		if !cfg.Callbacks.Has(name) {
			return nil, fmt.Errorf("%w: %s is not configured", ErrUnknownCallback, name)
		}
		wanted[name] = true
	}

	var specs []CallbackSpec
	for _, name := range callbackOrder {
		if !wanted[name] {
			continue
		}
		switch name {
		case EarlyStoppingCallback:
			specs = append(specs, CallbackSpec{Name: name, Params: *cfg.Callbacks.EarlyStopping})
		case LRSchedulerCallback:
			specs = append(specs, CallbackSpec{Name: name, Params: *cfg.Callbacks.LRScheduler})
		case ModelCheckpointCallback:
			basename, err := paths.Basename("model_checkpoint", true)
			if err != nil {
				return nil, err
			}
			specs = append(specs, CallbackSpec{
				Name:   name,
				Path:   filepath.Join(cfg.CheckpointDir, basename),
				Params: *cfg.Callbacks.ModelCheckpoint,
			})
		case MetricsLoggerCallback:
			dir, err := paths.Directory("train_metrics", true, true)
			if err != nil {
				return nil, err
			}
			specs = append(specs, CallbackSpec{
				Name:   name,
				Path:   filepath.Join(cfg.CheckpointDir, dir),
				Params: *cfg.Callbacks.MetricsLogger,
			})
		case WeightsLoggerCallback:
			if modelType != model.SemiWeakly {
				continue
			}
			dir, err := paths.Directory("model_weights", true, true)
			if err != nil {
				return nil, err
			}
			specs = append(specs, CallbackSpec{
				Name:   name,
				Path:   filepath.Join(cfg.CheckpointDir, dir),
				Params: *cfg.Callbacks.WeightsLogger,
			})
		}
	}
	return specs, nil
}

// Restorer rolls a model back to its best recorded checkpoint.
type Restorer[M any] interface {
	Restore(model M, metricsCheckpoint, modelCheckpoint string) error
}

// Restore resolves the metrics and model checkpoint patterns under
// checkpointDir and hands them to restorer.
func Restore[M any](restorer Restorer[M], m M, checkpointDir string, paths pathmgr.Resolver) error {
	metrics, err := paths.Basename("metrics_checkpoint", true)
	if err != nil {
		return err
	}
	weights, err := paths.Basename("model_checkpoint", true)
	if err != nil {
		return err
	}
	return restorer.Restore(m, filepath.Join(checkpointDir, metrics), filepath.Join(checkpointDir, weights))
}
