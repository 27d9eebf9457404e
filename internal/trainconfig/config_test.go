package trainconfig

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"paws/internal/model"
)

func TestCallbacksRemove(t *testing.T) {
	cfg, err := Builder{FeatureLevel: model.HighLevel, Loss: model.BCE}.Build("ckpt", model.SemiWeakly, true, 0, SaveFrequencies{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := cfg.Callbacks.Remove(LRSchedulerCallback); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := cfg.Callbacks.Remove(LRSchedulerCallback); err != nil {
		t.Fatalf("remove absent: %v", err)
	}
	if cfg.Callbacks.Has(LRSchedulerCallback) {
		t.Fatal("expected scheduler removed")
	}
	if err := cfg.Callbacks.Remove("profiler"); !errors.Is(err, ErrUnknownCallback) {
		t.Fatalf("expected unknown callback, got %v", err)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg, err := Builder{FeatureLevel: model.LowLevel, Loss: model.BCE, UseValidation: true}.Build("ckpt/semi_weakly", model.SemiWeakly, true, 0, SaveFrequencies{Model: "train"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	data, err := Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	text := string(data)
	for _, want := range []string{"clipvalue: 0.0001", "display_weight: true", "monitor: val_loss", "name: ScaledBinaryCrossentropy"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in:\n%s", want, text)
		}
	}
	if strings.Contains(text, "model_checkpoint") {
		t.Fatalf("removed callback rendered:\n%s", text)
	}
	decoded, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(decoded, cfg) {
		t.Fatalf("round trip mismatch:\n got=%+v\nwant=%+v", decoded, cfg)
	}
}

func TestUnmarshalRejectsMalformed(t *testing.T) {
	if _, err := Unmarshal([]byte("epochs: [")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestSummaryDoesNotPanic(t *testing.T) {
	cfg, err := Builder{FeatureLevel: model.HighLevel, Loss: model.BCE}.Build("ckpt", model.PriorRatio, false, 0, SaveFrequencies{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	Summary(cfg)
}
