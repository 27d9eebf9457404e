// Package pathmgr names the files and directories a training run reads and
// writes. Templates use {name} placeholders; partial formatting leaves
// unresolved placeholders in place for callbacks that fill them per epoch.
package pathmgr

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	ErrUnknownKind       = errors.New("unknown path kind")
	ErrUnresolvedPattern = errors.New("unresolved path placeholder")
)

// Resolver is the subset of the path manager the model builders depend on.
type Resolver interface {
	File(kind string, basenameOnly bool, params map[string]string) (string, error)
	Basename(kind string, partial bool) (string, error)
	Directory(kind string, basenameOnly, partial bool) (string, error)
}

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

var defaultFiles = map[string]string{
	"model_prior_ratio":  "prior_ratio_{sampling_method}.json",
	"model_checkpoint":   "model_weights_epoch_{epoch}.json",
	"metrics_checkpoint": "metrics_epoch_{epoch}.json",
	"model_full_train":   "full_train.json",
	"train_config":       "train_config.yaml",
	"parameter_trace":    "parameters_{run_id}.json",
}

var defaultDirectories = map[string]string{
	"train_metrics": "train_metrics",
	"model_weights": "model_weights",
	"checkpoint":    "{model_type}/{decay_modes}/{feature_level}",
}

type Manager struct {
	base        string
	files       map[string]string
	directories map[string]string
	params      map[string]string
}

// New returns a manager rooted at base with the built-in templates.
func New(base string) *Manager {
	m := &Manager{
		base:        base,
		files:       make(map[string]string, len(defaultFiles)),
		directories: make(map[string]string, len(defaultDirectories)),
		params:      make(map[string]string),
	}
	for kind, pattern := range defaultFiles {
		m.files[kind] = pattern
	}
	for kind, pattern := range defaultDirectories {
		m.directories[kind] = pattern
	}
	return m
}

func (m *Manager) Base() string { return m.base }

// SetFile overrides or adds a file template.
func (m *Manager) SetFile(kind, pattern string) {
	m.files[kind] = pattern
}

func (m *Manager) SetDirectory(kind, pattern string) {
	m.directories[kind] = pattern
}

// SetParam fixes a placeholder value for every later lookup.
func (m *Manager) SetParam(name, value string) {
	m.params[name] = value
}

func (m *Manager) File(kind string, basenameOnly bool, params map[string]string) (string, error) {
	pattern, ok := m.files[kind]
	if !ok {
		return "", fmt.Errorf("%w: file %s", ErrUnknownKind, kind)
	}
	basename, err := Format(pattern, m.merged(params), false)
	if err != nil {
		return "", fmt.Errorf("file %s: %w", kind, err)
	}
	if basenameOnly {
		return basename, nil
	}
	return filepath.Join(m.base, basename), nil
}

func (m *Manager) Basename(kind string, partial bool) (string, error) {
	pattern, ok := m.files[kind]
	if !ok {
		return "", fmt.Errorf("%w: file %s", ErrUnknownKind, kind)
	}
	basename, err := Format(pattern, m.params, partial)
	if err != nil {
		return "", fmt.Errorf("file %s: %w", kind, err)
	}
	return basename, nil
}

func (m *Manager) Directory(kind string, basenameOnly, partial bool) (string, error) {
	pattern, ok := m.directories[kind]
	if !ok {
		return "", fmt.Errorf("%w: directory %s", ErrUnknownKind, kind)
	}
	dir, err := Format(pattern, m.params, partial)
	if err != nil {
		return "", fmt.Errorf("directory %s: %w", kind, err)
	}
	if basenameOnly {
		return dir, nil
	}
	return filepath.Join(m.base, dir), nil
}

func (m *Manager) merged(params map[string]string) map[string]string {
	out := make(map[string]string, len(m.params)+len(params))
	for k, v := range m.params {
		out[k] = v
	}
	for k, v := range params {
		out[k] = v
	}
	return out
}

// Format substitutes {name} placeholders. With partial set, placeholders
// without a value are kept verbatim; otherwise they are reported.
func Format(pattern string, params map[string]string, partial bool) (string, error) {
	var missing []string
	out := placeholder.ReplaceAllStringFunc(pattern, func(match string) string {
		name := match[1 : len(match)-1]
		if value, ok := params[name]; ok {
			return value
		}
		missing = append(missing, name)
		return match
	})
	if len(missing) > 0 && !partial {
		sort.Strings(missing)
		return "", fmt.Errorf("%w: %s", ErrUnresolvedPattern, strings.Join(missing, ", "))
	}
	return out, nil
}
