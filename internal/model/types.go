package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Network is the persisted form of a frozen feed-forward model: a supervised
// classifier or a prior-ratio network.
type Network struct {
	VersionedRecord
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Inputs int     `json:"inputs"`
	Layers []Layer `json:"layers"`
}

// Layer is a dense layer. Kernel is stored row-major with shape [In, Out].
type Layer struct {
	Name       string    `json:"name"`
	In         int       `json:"in"`
	Out        int       `json:"out"`
	Activation string    `json:"activation"`
	Kernel     []float64 `json:"kernel"`
	Bias       []float64 `json:"bias,omitempty"`
}

// ParameterSnapshot records the raw kernel values of the trainable physical
// parameters, keyed by legacy weight name ("m1/kernel:0").
type ParameterSnapshot struct {
	VersionedRecord
	RunID   string             `json:"run_id"`
	Epoch   int                `json:"epoch"`
	Weights map[string]float64 `json:"weights"`
}
