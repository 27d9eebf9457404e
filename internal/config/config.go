// Package config loads the YAML run configuration of the model loader.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"paws/internal/likelihood"
	"paws/internal/model"
	"paws/internal/prior"
	"paws/internal/semiweakly"
	"paws/internal/storage"
)

type Config struct {
	FeatureLevel  string      `yaml:"feature_level"`
	DecayModes    string      `yaml:"decay_modes"`
	Loss          string      `yaml:"loss"`
	UseValidation bool        `yaml:"use_validation"`
	Outdir        string      `yaml:"outdir"`
	Verbosity     string      `yaml:"verbosity"`
	Store         StoreConfig `yaml:"store"`
	Model         ModelConfig `yaml:"model"`
	Train         TrainConfig `yaml:"train"`
}

type StoreConfig struct {
	Kind     string `yaml:"kind"`
	Location string `yaml:"location"`
}

// ModelConfig holds the initial raw kernels and transform toggles of the
// semi-weakly model. Mu is log(mu).
type ModelConfig struct {
	M1             float64 `yaml:"m1"`
	M2             float64 `yaml:"m2"`
	Mu             float64 `yaml:"mu"`
	Alpha          float64 `yaml:"alpha"`
	Kappa          string  `yaml:"kappa"`
	Epsilon        float64 `yaml:"epsilon"`
	BugFix         bool    `yaml:"bug_fix"`
	UseSigmoid     bool    `yaml:"use_sigmoid"`
	UseRegularizer bool    `yaml:"use_regularizer"`
}

type TrainConfig struct {
	WeightClipping bool   `yaml:"weight_clipping"`
	Epochs         int    `yaml:"epochs"`
	ModelSaveFreq  string `yaml:"model_save_freq"`
	MetricSaveFreq string `yaml:"metric_save_freq"`
	WeightSaveFreq string `yaml:"weight_save_freq"`
}

func Default() *Config {
	policy := likelihood.DefaultPolicy()
	return &Config{
		FeatureLevel:  string(model.HighLevel),
		DecayModes:    "qq,qqq",
		Loss:          string(model.BCE),
		UseValidation: true,
		Outdir:        "outputs",
		Verbosity:     "info",
		Store: StoreConfig{
			Kind: storage.DefaultStoreKind(),
		},
		Model: ModelConfig{
			Mu:             semiweakly.InitMu,
			Alpha:          semiweakly.InitAlpha,
			Kappa:          semiweakly.InitKappa,
			Epsilon:        policy.Epsilon,
			BugFix:         policy.BugFix,
			UseSigmoid:     policy.UseSigmoid,
			UseRegularizer: policy.UseRegularizer,
		},
		Train: TrainConfig{
			WeightClipping: true,
			ModelSaveFreq:  string(model.SaveEpoch),
			MetricSaveFreq: string(model.SaveEpoch),
			WeightSaveFreq: string(model.SaveEpoch),
		},
	}
}

// Load reads path over the defaults and applies PAWS_* environment overrides.
// An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadYAMLFile(path, cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := applyEnvironment(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnvironment(cfg *Config) error {
	if v := os.Getenv("PAWS_FEATURE_LEVEL"); v != "" {
		cfg.FeatureLevel = v
	}
	if v := os.Getenv("PAWS_DECAY_MODES"); v != "" {
		cfg.DecayModes = v
	}
	if v := os.Getenv("PAWS_LOSS"); v != "" {
		cfg.Loss = v
	}
	if v := os.Getenv("PAWS_OUTDIR"); v != "" {
		cfg.Outdir = v
	}
	if v := os.Getenv("PAWS_STORE"); v != "" {
		cfg.Store.Kind = v
	}
	if v := os.Getenv("PAWS_STORE_LOCATION"); v != "" {
		cfg.Store.Location = v
	}
	if v := os.Getenv("PAWS_KAPPA"); v != "" {
		cfg.Model.Kappa = v
	}
	if v := os.Getenv("PAWS_EPSILON"); v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%w: PAWS_EPSILON=%q: %v", model.ErrInvalidArgument, v, err)
		}
		cfg.Model.Epsilon = f
	}
	if v := os.Getenv("PAWS_BUG_FIX"); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: PAWS_BUG_FIX=%q: %v", model.ErrInvalidArgument, v, err)
		}
		cfg.Model.BugFix = b
	}
	if v := os.Getenv("PAWS_VERBOSITY"); v != "" {
		cfg.Verbosity = v
	}
	return nil
}

// Settings is the typed form of a validated configuration.
type Settings struct {
	FeatureLevel model.FeatureLevel
	DecayModes   model.DecayModes
	Loss         model.Loss
	Policy       likelihood.TransformPolicy
	Kappa        [2]prior.KappaSpec
}

func (c *Config) Settings() (Settings, error) {
	level, err := model.ParseFeatureLevel(c.FeatureLevel)
	if err != nil {
		return Settings{}, err
	}
	modes, err := model.ParseDecayModes(c.DecayModes)
	if err != nil {
		return Settings{}, err
	}
	loss, err := model.ParseLoss(c.Loss)
	if err != nil {
		return Settings{}, err
	}
	if c.Model.Epsilon <= 0 {
		return Settings{}, fmt.Errorf("%w: epsilon must be positive, got %g", model.ErrInvalidArgument, c.Model.Epsilon)
	}
	var kappa [2]prior.KappaSpec
	if modes.MultiSignal() {
		kappa[0], kappa[1], err = prior.SplitKappa(c.Model.Kappa)
	} else {
		kappa[0], err = prior.ParseKappaSpec(c.Model.Kappa)
		kappa[1] = kappa[0]
	}
	if err != nil {
		return Settings{}, err
	}
	for name, freq := range map[string]string{
		"model_save_freq":  c.Train.ModelSaveFreq,
		"metric_save_freq": c.Train.MetricSaveFreq,
		"weight_save_freq": c.Train.WeightSaveFreq,
	} {
		if _, err := model.ParseSaveMode(freq); err != nil {
			return Settings{}, fmt.Errorf("%s: %w", name, err)
		}
	}
	return Settings{
		FeatureLevel: level,
		DecayModes:   modes,
		Loss:         loss,
		Policy:       c.Policy(),
		Kappa:        kappa,
	}, nil
}

func (c *Config) Validate() error {
	_, err := c.Settings()
	return err
}

func (c *Config) Policy() likelihood.TransformPolicy {
	return likelihood.TransformPolicy{
		Epsilon:        c.Model.Epsilon,
		BugFix:         c.Model.BugFix,
		UseSigmoid:     c.Model.UseSigmoid,
		UseRegularizer: c.Model.UseRegularizer,
	}
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
