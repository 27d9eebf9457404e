// Package semiweakly assembles the semi-weakly supervised model: trainable
// physical parameters feeding frozen supervised ensembles and the likelihood
// ratio transform.
package semiweakly

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"paws/internal/likelihood"
	"paws/internal/model"
	"paws/internal/pathmgr"
	"paws/internal/prior"
	"paws/internal/storage"
	"paws/internal/weights"
)

// Initial raw kernels. mu is stored as log(mu).
const (
	InitMu    = -4.6
	InitAlpha = 0.5
	InitKappa = "1.0"
)

// Artifact names.
const (
	SemiWeaklyArtifact           = "SemiWeakly"
	LLRArtifact                  = "LLR"
	SupervisedArtifact           = "Supervised"
	TwoProngLLRArtifact          = "TwoProngLLR"
	ThreeProngLLRArtifact        = "ThreeProngLLR"
	TwoProngSupervisedArtifact   = "TwoProngSupervised"
	ThreeProngSupervisedArtifact = "ThreeProngSupervised"
)

// Strategy runs model construction inside a device replication scope.
type Strategy interface {
	Scope(fn func() error) error
}

type Builder struct {
	DecayModes model.DecayModes
	Loss       model.Loss
	Store      storage.Store
	Paths      pathmgr.Resolver
	Strategy   Strategy
}

type Options struct {
	// ModelType defaults to semi_weakly.
	ModelType        model.ModelType
	SupervisedPaths  []string
	SupervisedPaths2 []string
	M1               float64
	M2               float64
	Mu               float64
	Alpha            float64
	// Kappa is a literal, "inferred", "sampled", or for two decay modes a
	// comma separated pair.
	Kappa  string
	Policy likelihood.TransformPolicy
}

func DefaultOptions() Options {
	return Options{
		ModelType: model.SemiWeakly,
		Mu:        InitMu,
		Alpha:     InitAlpha,
		Kappa:     InitKappa,
		Policy:    likelihood.DefaultPolicy(),
	}
}

type plan struct {
	modelType model.ModelType
	kappas    []prior.KappaSpec
	paths     [][]string
}

// validate rejects configuration errors before any store access.
func (b *Builder) validate(opts Options) (plan, error) {
	modelType := opts.ModelType
	if modelType == "" {
		modelType = model.SemiWeakly
	}
	if b.Loss == model.NLL && modelType != model.SemiWeakly {
		return plan{}, fmt.Errorf("%w: NLL loss only valid for semi-weakly models, not %s", model.ErrDomainMismatch, modelType)
	}
	if b.Loss != model.BCE && b.Loss != model.NLL {
		return plan{}, fmt.Errorf("%w: invalid name for loss function: %s", model.ErrInvalidArgument, b.Loss)
	}
	switch len(b.DecayModes) {
	case 1, 2:
	default:
		return plan{}, fmt.Errorf("%w: expected one or two decay modes, got %d", model.ErrInvalidArgument, len(b.DecayModes))
	}
	if len(opts.SupervisedPaths) == 0 {
		return plan{}, fmt.Errorf("%w: supervised model path required", model.ErrInvalidArgument)
	}
	if b.Store == nil || b.Paths == nil {
		return plan{}, errors.New("builder requires a store and a path resolver")
	}
	raw := opts.Kappa
	if raw == "" {
		raw = InitKappa
	}
	if !b.DecayModes.MultiSignal() {
		spec, err := prior.ParseKappaSpec(raw)
		if err != nil {
			return plan{}, err
		}
		return plan{modelType: modelType, kappas: []prior.KappaSpec{spec}, paths: [][]string{opts.SupervisedPaths}}, nil
	}
	if len(opts.SupervisedPaths2) == 0 {
		return plan{}, fmt.Errorf("%w: second model path required for multi-signal configuration", model.ErrInvalidArgument)
	}
	kappa2, kappa3, err := prior.SplitKappa(raw)
	if err != nil {
		return plan{}, err
	}
	return plan{
		modelType: modelType,
		kappas:    []prior.KappaSpec{kappa2, kappa3},
		paths:     [][]string{opts.SupervisedPaths, opts.SupervisedPaths2},
	}, nil
}

// Build assembles the model, inside the strategy scope when one is set.
func (b *Builder) Build(ctx context.Context, opts Options) (*Model, error) {
	p, err := b.validate(opts)
	if err != nil {
		return nil, err
	}
	if opts.Policy.UseSigmoid {
		log.Warn().Msg("use_sigmoid has no effect on the likelihood transform")
	}
	if b.Strategy == nil {
		return b.build(ctx, opts, p)
	}
	var m *Model
	err = b.Strategy.Scope(func() error {
		var buildErr error
		m, buildErr = b.build(ctx, opts, p)
		return buildErr
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (b *Builder) build(ctx context.Context, opts Options, p plan) (*Model, error) {
	multi := len(p.paths) > 1
	mu := opts.Mu
	var alpha *float64
	if multi {
		alpha = &opts.Alpha
	}
	params, err := weights.GetWeights(opts.M1, opts.M2, &mu, alpha, opts.Policy.UseRegularizer)
	if err != nil {
		return nil, err
	}

	loader := prior.NewLoader(b.Store, b.Paths)
	m := &Model{
		loss:   b.Loss,
		policy: opts.Policy,
		params: params,
	}
	if !multi {
		ensemble, err := loader.Combine(ctx, p.paths[0], "prior")
		if err != nil {
			return nil, err
		}
		kappa, err := loader.ResolveKappa(ctx, p.kappas[0], p.paths[0][0], "")
		if err != nil {
			return nil, err
		}
		m.priors = []*prior.Ensemble{ensemble}
		m.kappas = []prior.Kappa{kappa}
	} else {
		// Both decay modes load concurrently on one loader; overlapping loads
		// of a shared prior-ratio model share a store read.
		m.priors = make([]*prior.Ensemble, 2)
		m.kappas = make([]prior.Kappa, 2)
		g, gctx := errgroup.WithContext(ctx)
		for i, suffix := range []string{"2", "3"} {
			g.Go(func() error {
				kappa, err := loader.ResolveKappa(gctx, p.kappas[i], p.paths[i][0], "PriorRatioNet_"+suffix)
				if err != nil {
					return err
				}
				m.kappas[i] = kappa
				return nil
			})
			g.Go(func() error {
				ensemble, err := loader.Combine(gctx, p.paths[i], "prior_"+suffix+"prong")
				if err != nil {
					return err
				}
				m.priors[i] = ensemble
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	m.registerArtifacts()

	log.Info().
		Str("model_type", string(p.modelType)).
		Str("decay_modes", b.DecayModes.String()).
		Str("loss", string(b.Loss)).
		Bool("bug_fix", opts.Policy.BugFix).
		Float64("epsilon", opts.Policy.Epsilon).
		Strs("artifacts", m.ArtifactNames()).
		Msg("built semi-weakly model")
	return m, nil
}
