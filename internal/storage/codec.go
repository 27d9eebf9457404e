package storage

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"paws/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// EncodeNetwork stamps missing versions and IDs before marshaling.
func EncodeNetwork(n model.Network) ([]byte, error) {
	return json.Marshal(stampNetwork(n))
}

func DecodeNetwork(data []byte) (model.Network, error) {
	var network model.Network
	if err := json.Unmarshal(data, &network); err != nil {
		return model.Network{}, err
	}
	if err := checkVersion(network.VersionedRecord); err != nil {
		return model.Network{}, err
	}
	return network, nil
}

func EncodeParameterSnapshots(snapshots []model.ParameterSnapshot) ([]byte, error) {
	stamped := make([]model.ParameterSnapshot, len(snapshots))
	for i, snapshot := range snapshots {
		stamped[i] = stampSnapshot(snapshot)
	}
	return json.Marshal(stamped)
}

func DecodeParameterSnapshots(data []byte) ([]model.ParameterSnapshot, error) {
	var snapshots []model.ParameterSnapshot
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, err
	}
	for _, snapshot := range snapshots {
		if err := checkVersion(snapshot.VersionedRecord); err != nil {
			return nil, err
		}
	}
	return snapshots, nil
}

func stampNetwork(n model.Network) model.Network {
	if n.SchemaVersion == 0 && n.CodecVersion == 0 {
		n.VersionedRecord = currentVersion()
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return n
}

func stampSnapshot(s model.ParameterSnapshot) model.ParameterSnapshot {
	if s.SchemaVersion == 0 && s.CodecVersion == 0 {
		s.VersionedRecord = currentVersion()
	}
	return s
}

func currentVersion() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
