package semiweakly

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"paws/internal/likelihood"
	"paws/internal/model"
	"paws/internal/nn"
	"paws/internal/prior"
	"paws/internal/weights"
)

// Model is an assembled semi-weakly model. Only the parameter kernels change
// after construction; the prior ensembles are frozen.
type Model struct {
	loss      model.Loss
	policy    likelihood.TransformPolicy
	params    map[weights.ParameterID]*weights.ParameterModel
	priors    []*prior.Ensemble
	kappas    []prior.Kappa
	artifacts map[string]*Artifact
	names     []string
}

// Artifact is a named sub-model sharing the parameters and priors of its model.
type Artifact struct {
	name    string
	forward func(features *mat.Dense) ([]float64, error)
}

func (a *Artifact) Name() string { return a.name }

func (a *Artifact) Forward(features *mat.Dense) ([]float64, error) {
	return a.forward(features)
}

// MultiSignal reports whether the model mixes two decay modes.
func (m *Model) MultiSignal() bool {
	return len(m.priors) > 1
}

func (m *Model) Name() string { return SemiWeaklyArtifact }

func (m *Model) Loss() model.Loss { return m.loss }

func (m *Model) Policy() likelihood.TransformPolicy { return m.policy }

func (m *Model) Kappas() []prior.Kappa {
	return append([]prior.Kappa(nil), m.kappas...)
}

func (m *Model) Priors() []*prior.Ensemble {
	return append([]*prior.Ensemble(nil), m.priors...)
}

// Forward returns the per-event weight, or the likelihood ratio under NLL loss.
func (m *Model) Forward(features *mat.Dense) ([]float64, error) {
	ev, err := m.evaluate(features)
	if err != nil {
		return nil, err
	}
	useLikelihood := m.loss == model.NLL
	if !m.MultiSignal() {
		return likelihood.OneSignal(ev.fs[0], ev.mu, ev.kappa[0], m.policy, useLikelihood)
	}
	return likelihood.TwoSignal(ev.fs[0], ev.fs[1], ev.mu, ev.alpha, ev.kappa[0], ev.kappa[1], m.policy, useLikelihood)
}

type evaluation struct {
	mu    likelihood.Column
	alpha likelihood.Column
	fs    []likelihood.Column
	kappa []likelihood.Column
}

func (m *Model) evaluate(features *mat.Dense) (evaluation, error) {
	mass, err := m.massParams(features)
	if err != nil {
		return evaluation{}, err
	}
	n, _ := features.Dims()
	ones := nn.Ones(n)
	ev := evaluation{mu: m.params[weights.Mu].Forward(ones)}
	if alpha, ok := m.params[weights.Alpha]; ok {
		ev.alpha = alpha.Forward(ones)
	}
	for i, ensemble := range m.priors {
		fs, err := ensemble.Forward(features, mass)
		if err != nil {
			return evaluation{}, err
		}
		kappa, err := m.kappas[i].Eval(mass)
		if err != nil {
			return evaluation{}, err
		}
		ev.fs = append(ev.fs, fs)
		ev.kappa = append(ev.kappa, kappa)
	}
	return ev, nil
}

// massParams evaluates m1 and m2 over the batch as an n x 2 matrix.
func (m *Model) massParams(features *mat.Dense) (*mat.Dense, error) {
	if features == nil {
		return nil, fmt.Errorf("%w: features are required", model.ErrInvalidArgument)
	}
	n, _ := features.Dims()
	ones := nn.Ones(n)
	return nn.Columns(m.params[weights.M1].Forward(ones), m.params[weights.M2].Forward(ones))
}

func (m *Model) supervised(i int) func(*mat.Dense) ([]float64, error) {
	return func(features *mat.Dense) ([]float64, error) {
		mass, err := m.massParams(features)
		if err != nil {
			return nil, err
		}
		return m.priors[i].Forward(features, mass)
	}
}

// llr uses ArtifactEpsilon regardless of the model policy.
func (m *Model) llr(i int) func(*mat.Dense) ([]float64, error) {
	return func(features *mat.Dense) ([]float64, error) {
		mass, err := m.massParams(features)
		if err != nil {
			return nil, err
		}
		fs, err := m.priors[i].Forward(features, mass)
		if err != nil {
			return nil, err
		}
		kappa, err := m.kappas[i].Eval(mass)
		if err != nil {
			return nil, err
		}
		return likelihood.LLRBatch(fs, kappa, likelihood.ArtifactEpsilon)
	}
}

func (m *Model) registerArtifacts() {
	m.artifacts = make(map[string]*Artifact)
	m.names = nil
	m.addArtifact(SemiWeaklyArtifact, m.Forward)
	if !m.MultiSignal() {
		m.addArtifact(LLRArtifact, m.llr(0))
		m.addArtifact(SupervisedArtifact, m.supervised(0))
		return
	}
	m.addArtifact(TwoProngLLRArtifact, m.llr(0))
	m.addArtifact(ThreeProngLLRArtifact, m.llr(1))
	m.addArtifact(TwoProngSupervisedArtifact, m.supervised(0))
	m.addArtifact(ThreeProngSupervisedArtifact, m.supervised(1))
}

func (m *Model) addArtifact(name string, forward func(*mat.Dense) ([]float64, error)) {
	m.artifacts[name] = &Artifact{name: name, forward: forward}
	m.names = append(m.names, name)
}

// Artifact returns the named sub-model.
func (m *Model) Artifact(name string) (*Artifact, bool) {
	a, ok := m.artifacts[name]
	return a, ok
}

// ArtifactNames lists artifacts in registration order.
func (m *Model) ArtifactNames() []string {
	return append([]string(nil), m.names...)
}

// TrainableWeights returns the parameter models in construction order.
func (m *Model) TrainableWeights() []*weights.ParameterModel {
	out := make([]*weights.ParameterModel, 0, len(m.params))
	for _, id := range weights.All {
		if p, ok := m.params[id]; ok && p.Trainable {
			out = append(out, p)
		}
	}
	return out
}

// Parameters maps each owned parameter to its raw kernel.
func (m *Model) Parameters() map[weights.ParameterID]float64 {
	out := make(map[weights.ParameterID]float64, len(m.params))
	for id, p := range m.params {
		out[id] = p.Kernel
	}
	return out
}

// Values maps each owned parameter to its transformed physical value.
func (m *Model) Values() map[weights.ParameterID]float64 {
	out := make(map[weights.ParameterID]float64, len(m.params))
	for id, p := range m.params {
		out[id] = p.Value()
	}
	return out
}

// WeightsByName maps legacy weight names to raw kernels.
func (m *Model) WeightsByName() map[string]float64 {
	out := make(map[string]float64, len(m.params))
	for _, p := range m.params {
		out[p.WeightName()] = p.Kernel
	}
	return out
}

// SetParameters overwrites raw kernels. Every id must be owned by the model.
func (m *Model) SetParameters(values map[weights.ParameterID]float64) error {
	for id := range values {
		if _, ok := m.params[id]; !ok {
			return fmt.Errorf("%w: %s", weights.ErrUnknownWeight, id.WeightName())
		}
	}
	for id, value := range values {
		m.params[id].SetKernel(value)
	}
	return nil
}

// SetValues sets physical values such as mu=0.01 rather than raw kernels.
// Nothing changes when any value is invalid.
func (m *Model) SetValues(values map[weights.ParameterID]float64) error {
	kernels := make(map[weights.ParameterID]float64, len(values))
	for id, value := range values {
		p, ok := m.params[id]
		if !ok {
			return fmt.Errorf("%w: %s", weights.ErrUnknownWeight, id.WeightName())
		}
		kernel, err := nn.InverseTransform(p.Activation, value)
		if err != nil {
			return fmt.Errorf("%s: %w", id.WeightName(), err)
		}
		kernels[id] = kernel
	}
	return m.SetParameters(kernels)
}

// SetWeightsByName is SetParameters keyed by legacy names such as "m1/kernel:0".
func (m *Model) SetWeightsByName(values map[string]float64) error {
	byID := make(map[weights.ParameterID]float64, len(values))
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		id, err := weights.ParseWeightName(name)
		if err != nil {
			return err
		}
		byID[id] = values[name]
	}
	return m.SetParameters(byID)
}

// Penalty sums the regularization penalties of the trainable parameters.
func (m *Model) Penalty() float64 {
	var total float64
	for _, p := range m.TrainableWeights() {
		total += p.Penalty()
	}
	return total
}

// Snapshot records the current raw kernels for a training run.
func (m *Model) Snapshot(runID string, epoch int) model.ParameterSnapshot {
	return model.ParameterSnapshot{RunID: runID, Epoch: epoch, Weights: m.WeightsByName()}
}

// RestoreSnapshot applies a recorded snapshot.
func (m *Model) RestoreSnapshot(snapshot model.ParameterSnapshot) error {
	return m.SetWeightsByName(snapshot.Weights)
}
