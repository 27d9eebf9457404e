// Package prior loads frozen supervised and prior-ratio networks and turns
// them into the per-event inputs of the likelihood transform.
package prior

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"gonum.org/v1/gonum/mat"

	"paws/internal/model"
	"paws/internal/nn"
	"paws/internal/pathmgr"
	"paws/internal/storage"
)

const priorRatioKind = "model_prior_ratio"

// Loader resolves model paths against a store. Concurrent loads of the same
// path share one store read; every caller still gets its own network.
type Loader struct {
	store storage.Store
	paths pathmgr.Resolver
	group singleflight.Group
}

func NewLoader(store storage.Store, paths pathmgr.Resolver) *Loader {
	return &Loader{store: store, paths: paths}
}

// Load returns a new frozen network for path; callers may rename it freely.
func (l *Loader) Load(ctx context.Context, path string) (*nn.Network, error) {
	v, err, shared := l.group.Do(path, func() (any, error) {
		return storage.Load(ctx, l.store, path)
	})
	if err != nil {
		return nil, err
	}
	network := v.(*nn.Network)
	if shared {
		network = network.Clone()
	}
	network.Freeze()
	return network, nil
}

// Ensemble averages the outputs of frozen members.
type Ensemble struct {
	name    string
	members []*nn.Network
}

// Combine loads every distinct path concurrently, freezes it, and names the
// members name_1..name_N. Repeated paths are read once and cloned.
func (l *Loader) Combine(ctx context.Context, paths []string, name string) (*Ensemble, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: at least one model path is required for %s", model.ErrInvalidArgument, name)
	}
	index := make(map[string]int, len(paths))
	var distinct []string
	for _, path := range paths {
		if _, ok := index[path]; !ok {
			index[path] = len(distinct)
			distinct = append(distinct, path)
		}
	}

	loaded := make([]*nn.Network, len(distinct))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range distinct {
		g.Go(func() error {
			network, err := l.Load(gctx, path)
			if err != nil {
				return err
			}
			loaded[i] = network
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	used := make([]bool, len(distinct))
	members := make([]*nn.Network, 0, len(paths))
	for i, path := range paths {
		j := index[path]
		network := loaded[j]
		if used[j] {
			network = network.Clone()
		}
		used[j] = true
		network.SetName(fmt.Sprintf("%s_%d", name, i+1))
		members = append(members, network)
	}
	return &Ensemble{name: name, members: members}, nil
}

func (e *Ensemble) Name() string { return e.name }

func (e *Ensemble) Members() []*nn.Network {
	return append([]*nn.Network(nil), e.members...)
}

// Forward evaluates every member on inputs and returns the per-event mean.
func (e *Ensemble) Forward(inputs ...*mat.Dense) ([]float64, error) {
	outputs := make([][]float64, len(e.members))
	var g errgroup.Group
	for i, member := range e.members {
		g.Go(func() error {
			out, err := member.Forward(inputs...)
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ensemble %s: %w", e.name, err)
	}
	return nn.Average(outputs)
}

// PriorRatioPath is the sibling prior-ratio model of a supervised model for
// the given sampling method.
func (l *Loader) PriorRatioPath(spec KappaSpec, supervisedPath string) (string, error) {
	basename, err := l.paths.File(priorRatioKind, true, map[string]string{"sampling_method": spec.Kind.String()})
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(supervisedPath), basename), nil
}

// ResolveKappa returns literal specs unchanged. Symbolic specs load the
// sibling prior-ratio network of supervisedPath; a non-empty name renames it.
func (l *Loader) ResolveKappa(ctx context.Context, spec KappaSpec, supervisedPath, name string) (Kappa, error) {
	if !spec.Symbolic() {
		return Constant(spec.Value), nil
	}
	path, err := l.PriorRatioPath(spec, supervisedPath)
	if err != nil {
		return Kappa{}, err
	}
	network, err := l.Load(ctx, path)
	if errors.Is(err, storage.ErrModelNotFound) {
		return Kappa{}, fmt.Errorf("%w: prior ratio model path does not exist: %s", storage.ErrModelNotFound, path)
	}
	if err != nil {
		return Kappa{}, fmt.Errorf("prior ratio model %s: %w", path, err)
	}
	if name != "" {
		network.SetName(name)
	}
	return Kappa{network: network}, nil
}
