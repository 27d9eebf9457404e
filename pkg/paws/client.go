// Package paws is the public entry point for assembling semi-weakly models and
// their training configurations.
package paws

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"paws/internal/config"
	"paws/internal/model"
	"paws/internal/nn"
	"paws/internal/pathmgr"
	"paws/internal/semiweakly"
	"paws/internal/storage"
	"paws/internal/trainconfig"
)

const defaultDBName = "paws.db"

var ErrSnapshotNotFound = errors.New("parameter snapshot not found")

type Options struct {
	// Config defaults to config.Default().
	Config *config.Config
	// Store overrides the backend described by Config.Store.
	Store    storage.Store
	Strategy semiweakly.Strategy
}

type Client struct {
	cfg      *config.Config
	settings config.Settings
	store    storage.Store
	paths    *pathmgr.Manager
	strategy semiweakly.Strategy
}

// BuildRequest names the supervised models of each decay mode. Masses are in
// GeV; a nil mass keeps the configured kernel.
type BuildRequest struct {
	SupervisedPaths  []string
	SupervisedPaths2 []string
	M1GeV            *float64
	M2GeV            *float64
	Kappa            string
}

func New(opts Options) (*Client, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	settings, err := cfg.Settings()
	if err != nil {
		return nil, err
	}

	store := opts.Store
	if store == nil {
		kind := cfg.Store.Kind
		if kind == "" {
			kind = storage.DefaultStoreKind()
		}
		location := cfg.Store.Location
		if location == "" {
			location = cfg.Outdir
			if kind == "sqlite" {
				location = filepath.Join(cfg.Outdir, defaultDBName)
			}
		}
		store, err = storage.NewStore(kind, location)
		if err != nil {
			return nil, err
		}
	}

	paths := pathmgr.New(cfg.Outdir)
	paths.SetParam("feature_level", string(settings.FeatureLevel))
	paths.SetParam("decay_modes", settings.DecayModes.String())

	return &Client{
		cfg:      cfg,
		settings: settings,
		store:    store,
		paths:    paths,
		strategy: opts.Strategy,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

func (c *Client) Config() *config.Config { return c.cfg }

func (c *Client) Settings() config.Settings { return c.settings }

func (c *Client) Store() storage.Store { return c.store }

func (c *Client) Paths() *pathmgr.Manager { return c.paths }

// ImportNetwork stores a frozen supervised or prior-ratio network under path.
func (c *Client) ImportNetwork(ctx context.Context, path string, network model.Network) error {
	validated, err := nn.NewNetwork(network)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	return storage.Save(ctx, c.store, validated, path)
}

// BuildSemiWeakly assembles a semi-weakly model from the configured policy.
func (c *Client) BuildSemiWeakly(ctx context.Context, req BuildRequest) (*semiweakly.Model, error) {
	builder := &semiweakly.Builder{
		DecayModes: c.settings.DecayModes,
		Loss:       c.settings.Loss,
		Store:      c.store,
		Paths:      c.paths,
		Strategy:   c.strategy,
	}
	opts := semiweakly.Options{
		ModelType:        model.SemiWeakly,
		SupervisedPaths:  req.SupervisedPaths,
		SupervisedPaths2: req.SupervisedPaths2,
		M1:               c.cfg.Model.M1,
		M2:               c.cfg.Model.M2,
		Mu:               c.cfg.Model.Mu,
		Alpha:            c.cfg.Model.Alpha,
		Kappa:            c.cfg.Model.Kappa,
		Policy:           c.settings.Policy,
	}
	if req.M1GeV != nil {
		opts.M1 = nn.ScaleMass(*req.M1GeV)
	}
	if req.M2GeV != nil {
		opts.M2 = nn.ScaleMass(*req.M2GeV)
	}
	if req.Kappa != "" {
		opts.Kappa = req.Kappa
	}
	return builder.Build(ctx, opts)
}

// CheckpointDir is the checkpoint directory of a model type under the output directory.
func (c *Client) CheckpointDir(modelType model.ModelType) (string, error) {
	c.paths.SetParam("model_type", string(modelType))
	return c.paths.Directory("checkpoint", false, false)
}

// TrainConfig builds the training configuration of modelType from the
// configured train section.
func (c *Client) TrainConfig(modelType model.ModelType) (trainconfig.TrainConfig, error) {
	dir, err := c.CheckpointDir(modelType)
	if err != nil {
		return trainconfig.TrainConfig{}, err
	}
	builder := trainconfig.Builder{
		FeatureLevel:  c.settings.FeatureLevel,
		Loss:          c.settings.Loss,
		UseValidation: c.cfg.UseValidation,
	}
	cfg, err := builder.Build(dir, modelType, c.cfg.Train.WeightClipping, c.cfg.Train.Epochs, trainconfig.SaveFrequencies{
		Model:  c.cfg.Train.ModelSaveFreq,
		Metric: c.cfg.Train.MetricSaveFreq,
		Weight: c.cfg.Train.WeightSaveFreq,
	})
	if err != nil {
		return trainconfig.TrainConfig{}, err
	}
	trainconfig.Summary(cfg)
	return cfg, nil
}

// WriteTrainConfig renders cfg into its checkpoint directory and returns the file path.
func (c *Client) WriteTrainConfig(cfg trainconfig.TrainConfig) (string, error) {
	basename, err := c.paths.File("train_config", true, nil)
	if err != nil {
		return "", err
	}
	data, err := trainconfig.Marshal(cfg)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(cfg.CheckpointDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(cfg.CheckpointDir, basename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	log.Info().Str("path", path).Msg("wrote train configuration")
	return path, nil
}

func NewRunID() string {
	return uuid.NewString()
}

// RecordParameters appends the current parameter kernels of m to the run trace.
func (c *Client) RecordParameters(ctx context.Context, runID string, epoch int, m *semiweakly.Model) error {
	return c.store.SaveParameterSnapshot(ctx, m.Snapshot(runID, epoch))
}

func (c *Client) ParameterTrace(ctx context.Context, runID string) ([]model.ParameterSnapshot, error) {
	snapshots, ok, err := c.store.GetParameterSnapshots(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok || len(snapshots) == 0 {
		return nil, fmt.Errorf("%w: run %s", ErrSnapshotNotFound, runID)
	}
	return snapshots, nil
}

// RestoreParameters applies the snapshot recorded at epoch, or the latest one
// when epoch is negative.
func (c *Client) RestoreParameters(ctx context.Context, m *semiweakly.Model, runID string, epoch int) error {
	snapshots, err := c.ParameterTrace(ctx, runID)
	if err != nil {
		return err
	}
	if epoch < 0 {
		return m.RestoreSnapshot(snapshots[len(snapshots)-1])
	}
	for i := len(snapshots) - 1; i >= 0; i-- {
		if snapshots[i].Epoch == epoch {
			return m.RestoreSnapshot(snapshots[i])
		}
	}
	return fmt.Errorf("%w: run %s epoch %d", ErrSnapshotNotFound, runID, epoch)
}
