package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"paws/internal/model"
)

const snapshotsDir = "parameter_snapshots"

// FileStore keeps each network as a JSON document at its own path; relative
// paths resolve under root. Parameter snapshots are appended to
// <root>/parameter_snapshots/<run_id>.json.
type FileStore struct {
	root string
	mu   sync.Mutex
}

func NewFileStore(root string) *FileStore {
	if root == "" {
		root = "."
	}
	return &FileStore{root: root}
}

func (s *FileStore) Init(_ context.Context) error {
	return os.MkdirAll(filepath.Join(s.root, snapshotsDir), 0o755)
}

func (s *FileStore) SaveNetwork(_ context.Context, path string, network model.Network) error {
	payload, err := EncodeNetwork(network)
	if err != nil {
		return err
	}
	if err := writeFile(s.resolve(path), payload); err != nil {
		return fmt.Errorf("save model %s: %w", path, err)
	}
	log.Debug().Str("path", path).Str("name", network.Name).Msg("saved model")
	return nil
}

func (s *FileStore) GetNetwork(_ context.Context, path string) (model.Network, bool, error) {
	payload, err := os.ReadFile(s.resolve(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.Network{}, false, nil
		}
		return model.Network{}, false, err
	}
	network, err := DecodeNetwork(payload)
	if err != nil {
		return model.Network{}, false, fmt.Errorf("decode model %s: %w", path, err)
	}
	return network, true, nil
}

func (s *FileStore) SaveParameterSnapshot(ctx context.Context, snapshot model.ParameterSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snapshot.RunID == "" {
		return errors.New("snapshot run id is required")
	}
	existing, _, err := s.readSnapshots(snapshot.RunID)
	if err != nil {
		return err
	}
	payload, err := EncodeParameterSnapshots(append(existing, snapshot))
	if err != nil {
		return err
	}
	return writeFile(s.snapshotPath(snapshot.RunID), payload)
}

func (s *FileStore) GetParameterSnapshots(_ context.Context, runID string) ([]model.ParameterSnapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.readSnapshots(runID)
}

func (s *FileStore) readSnapshots(runID string) ([]model.ParameterSnapshot, bool, error) {
	payload, err := os.ReadFile(s.snapshotPath(runID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	snapshots, err := DecodeParameterSnapshots(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode snapshots %s: %w", runID, err)
	}
	return snapshots, true, nil
}

func (s *FileStore) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.root, path)
}

func (s *FileStore) snapshotPath(runID string) string {
	return filepath.Join(s.root, snapshotsDir, runID+".json")
}

func writeFile(path string, payload []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
