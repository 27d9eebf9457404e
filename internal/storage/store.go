package storage

import (
	"context"
	"errors"
	"fmt"

	"paws/internal/model"
	"paws/internal/nn"
)

// ErrModelNotFound is returned when a model path does not resolve to a stored network.
var ErrModelNotFound = errors.New("model not found")

// Store persists frozen networks keyed by path and parameter trajectories keyed by run.
type Store interface {
	Init(ctx context.Context) error
	SaveNetwork(ctx context.Context, path string, network model.Network) error
	GetNetwork(ctx context.Context, path string) (model.Network, bool, error)
	SaveParameterSnapshot(ctx context.Context, snapshot model.ParameterSnapshot) error
	GetParameterSnapshots(ctx context.Context, runID string) ([]model.ParameterSnapshot, bool, error)
}

// Load resolves path to an evaluable network.
func Load(ctx context.Context, store Store, path string) (*nn.Network, error) {
	record, ok, err := store.GetNetwork(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
	}
	network, err := nn.NewNetwork(record)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	return network, nil
}

// Save persists a network under path.
func Save(ctx context.Context, store Store, network *nn.Network, path string) error {
	return store.SaveNetwork(ctx, path, network.Record())
}

func Exists(ctx context.Context, store Store, path string) (bool, error) {
	_, ok, err := store.GetNetwork(ctx, path)
	return ok, err
}
