package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paws/internal/likelihood"
	"paws/internal/model"
	"paws/internal/prior"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	settings, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(t, model.HighLevel, settings.FeatureLevel)
	assert.Equal(t, model.DecayModes{model.TwoProng, model.ThreeProng}, settings.DecayModes)
	assert.Equal(t, model.BCE, settings.Loss)
	assert.Equal(t, likelihood.DefaultPolicy(), settings.Policy)
	assert.Equal(t, prior.Literal(1), settings.Kappa[0])
	assert.Equal(t, settings.Kappa[0], settings.Kappa[1])
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paws.yaml")
	data := []byte(`
feature_level: low_level
decay_modes: qqq
loss: nll
store:
  kind: memory
model:
  m1: 3.0
  kappa: inferred
  bug_fix: false
train:
  epochs: 12
  model_save_freq: train
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "low_level", cfg.FeatureLevel)
	assert.Equal(t, "memory", cfg.Store.Kind)
	assert.Equal(t, 3.0, cfg.Model.M1)
	assert.False(t, cfg.Model.BugFix)
	assert.True(t, cfg.Model.UseRegularizer)
	assert.Equal(t, 12, cfg.Train.Epochs)
	assert.Equal(t, "outputs", cfg.Outdir)

	settings, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(t, model.NLL, settings.Loss)
	assert.Equal(t, prior.KappaInferred, settings.Kappa[0].Kind)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("PAWS_DECAY_MODES", "qq")
	t.Setenv("PAWS_KAPPA", "sampled")
	t.Setenv("PAWS_EPSILON", "1e-10")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "qq", cfg.DecayModes)
	assert.Equal(t, likelihood.ArtifactEpsilon, cfg.Model.Epsilon)
}

func TestLoadEnvironmentBugFix(t *testing.T) {
	t.Setenv("PAWS_BUG_FIX", "0")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.Model.BugFix)

	t.Setenv("PAWS_BUG_FIX", "TRUE")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Model.BugFix)
}

func TestLoadRejectsMalformedEnvironment(t *testing.T) {
	cases := map[string]string{
		"PAWS_EPSILON": "1e-1O",
		"PAWS_BUG_FIX": "yes",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			cfg, err := Load("")
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.True(t, errors.Is(err, model.ErrInvalidArgument), "%s: %v", key, err)
		})
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"feature level": func(c *Config) { c.FeatureLevel = "mid_level" },
		"decay modes":   func(c *Config) { c.DecayModes = "qq,qq" },
		"loss":          func(c *Config) { c.Loss = "mse" },
		"kappa":         func(c *Config) { c.Model.Kappa = "1,2,3" },
		"epsilon":       func(c *Config) { c.Model.Epsilon = 0 },
		"save freq":     func(c *Config) { c.Train.WeightSaveFreq = "hourly" },
	}
	for name, edit := range cases {
		cfg := Default()
		edit(cfg)
		err := cfg.Validate()
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, model.ErrInvalidArgument), "%s: %v", name, err)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paws.yaml")
	require.NoError(t, os.WriteFile(path, []byte("loss: [bce"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := Marshal(Default())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "paws.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
