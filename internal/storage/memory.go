package storage

import (
	"context"
	"errors"
	"sync"

	"paws/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	networks    map[string]model.Network
	snapshots   map[string][]model.ParameterSnapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.networks = make(map[string]model.Network)
	s.snapshots = make(map[string][]model.ParameterSnapshot)
	return nil
}

func (s *MemoryStore) SaveNetwork(_ context.Context, path string, network model.Network) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.networks[path] = copyNetwork(stampNetwork(network))
	return nil
}

func (s *MemoryStore) GetNetwork(_ context.Context, path string) (model.Network, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	network, ok := s.networks[path]
	if !ok {
		return model.Network{}, false, nil
	}
	return copyNetwork(network), true, nil
}

func (s *MemoryStore) SaveParameterSnapshot(_ context.Context, snapshot model.ParameterSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.snapshots[snapshot.RunID] = append(s.snapshots[snapshot.RunID], copySnapshot(stampSnapshot(snapshot)))
	return nil
}

func (s *MemoryStore) GetParameterSnapshots(_ context.Context, runID string) ([]model.ParameterSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshots, ok := s.snapshots[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.ParameterSnapshot, len(snapshots))
	for i, snapshot := range snapshots {
		copied[i] = copySnapshot(snapshot)
	}
	return copied, true, nil
}

func copyNetwork(n model.Network) model.Network {
	layers := make([]model.Layer, len(n.Layers))
	for i, layer := range n.Layers {
		layer.Kernel = append([]float64(nil), layer.Kernel...)
		layer.Bias = append([]float64(nil), layer.Bias...)
		layers[i] = layer
	}
	n.Layers = layers
	return n
}

func copySnapshot(s model.ParameterSnapshot) model.ParameterSnapshot {
	weights := make(map[string]float64, len(s.Weights))
	for name, value := range s.Weights {
		weights[name] = value
	}
	s.Weights = weights
	return s
}
