package storage

import (
	"errors"
	"testing"

	"paws/internal/model"
)

func TestNetworkCodecRoundTrip(t *testing.T) {
	payload, err := EncodeNetwork(sampleNetwork("Supervised"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeNetwork(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Name != "Supervised" || decoded.ID == "" {
		t.Fatalf("unexpected decoded network: %+v", decoded)
	}
	if decoded.Layers[0].Bias[0] != 0.1 {
		t.Fatalf("unexpected bias: %+v", decoded.Layers[0].Bias)
	}
}

func TestNetworkCodecKeepsExistingID(t *testing.T) {
	network := sampleNetwork("Supervised")
	network.ID = "fixed"
	payload, err := EncodeNetwork(network)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeNetwork(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ID != "fixed" {
		t.Fatalf("expected id to be preserved, got %s", decoded.ID)
	}
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	network := sampleNetwork("old")
	network.VersionedRecord = model.VersionedRecord{SchemaVersion: 7, CodecVersion: 1}
	payload, err := EncodeNetwork(network)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeNetwork(payload); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got: %v", err)
	}

	snapshots := []model.ParameterSnapshot{{
		VersionedRecord: model.VersionedRecord{SchemaVersion: 1, CodecVersion: 9},
		RunID:           "run",
	}}
	payload, err = EncodeParameterSnapshots(snapshots)
	if err != nil {
		t.Fatalf("encode snapshots: %v", err)
	}
	if _, err := DecodeParameterSnapshots(payload); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got: %v", err)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	if _, err := DecodeNetwork([]byte("{")); err == nil {
		t.Fatal("expected malformed payload error")
	}
}
