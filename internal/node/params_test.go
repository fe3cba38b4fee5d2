package node

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/vidmod/internal/frame"
)

func TestParamsRequiredNamesKey(t *testing.T) {
	p := Params{"file": "  "}
	_, err := p.Required("file")
	if !errors.Is(err, ErrConfig) || !strings.Contains(err.Error(), `"file"`) {
		t.Fatalf("expected config error naming file, got %v", err)
	}
	_, err = p.Required("kind")
	if !errors.Is(err, ErrConfig) || !strings.Contains(err.Error(), `"kind"`) {
		t.Fatalf("expected config error naming kind, got %v", err)
	}
}

func TestParamsKind(t *testing.T) {
	p := Params{"kind": "U16", "bad": "U12"}
	k, err := p.Kind("kind")
	if err != nil || k != frame.KindU16 {
		t.Fatalf("kind: %v %v", k, err)
	}
	_, err = p.Kind("bad")
	if !errors.Is(err, ErrConfig) || !strings.Contains(err.Error(), "U12") {
		t.Fatalf("expected config error naming U12, got %v", err)
	}
}

func TestParamsFileJoinsBase(t *testing.T) {
	p := Params{ParamPath: "/data", "file": "in.raw", "abs": "/tmp/x.raw"}
	got, err := p.File("file")
	if err != nil || got != filepath.Join("/data", "in.raw") {
		t.Fatalf("file: %q %v", got, err)
	}
	got, err = p.File("abs")
	if err != nil || got != "/tmp/x.raw" {
		t.Fatalf("abs file: %q %v", got, err)
	}
	if _, err := (Params{"file": "in.raw"}).File("file"); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected missing vidmod.path error, got %v", err)
	}
}

func TestStreamSettings(t *testing.T) {
	capacity, lw, err := StreamSettings(Params{})
	if err != nil || capacity != DefaultCapacity || lw.Fraction != DefaultLowWater {
		t.Fatalf("defaults: %d %v %v", capacity, lw, err)
	}
	capacity, lw, err = StreamSettings(Params{ParamCapacity: "16", ParamLowWater: "0.25"})
	if err != nil || capacity != 16 || lw.Threshold(capacity) != 4 {
		t.Fatalf("overrides: %d %v %v", capacity, lw, err)
	}
	if _, _, err := StreamSettings(Params{ParamCapacity: "-1"}); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
	if _, _, err := StreamSettings(Params{ParamLowWater: "1.5"}); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestLowWaterReady(t *testing.T) {
	lw := LowWater{Fraction: 0.5}
	cases := []struct {
		avail     int
		finishing bool
		want      bool
	}{
		{0, false, false},
		{0, true, false},
		{1, true, true},
		{2048, false, false},
		{2049, false, true},
	}
	for _, tc := range cases {
		if got := lw.Ready(tc.avail, 4096, tc.finishing); got != tc.want {
			t.Fatalf("ready(%d, finishing=%v)=%v want %v", tc.avail, tc.finishing, got, tc.want)
		}
	}
}
