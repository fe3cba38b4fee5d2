package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Kinds lists the template names Template accepts.
func Kinds() []string {
	return []string{"raw", "image", "constant"}
}

// Template returns an example pipeline of the given kind.
func Template(kind string) (Pipeline, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "raw":
		return rawTemplate(), nil
	case "image":
		return imageTemplate(), nil
	case "constant":
		return constantTemplate(), nil
	default:
		return Pipeline{}, fmt.Errorf("unknown config kind: %s", kind)
	}
}

// Marshal encodes cfg in the format implied by path's extension.
func Marshal(path string, cfg Pipeline) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Marshal(cfg)
	case ".yaml", ".yml":
		return yaml.Marshal(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrFormat, path)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	cfg, err := Template(kind)
	if err != nil {
		return err
	}
	data, err := Marshal(path, cfg)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, data, 0o600)
}

func rawTemplate() Pipeline {
	return Pipeline{
		Path: "data",
		Nodes: []NodeConfig{
			{ID: "src", Type: "raw_file_source", Params: map[string]any{"file": "in.raw", "kind": "U8"}},
			{ID: "widen", Type: "convert", Params: map[string]any{"from": "U8", "to": "U16"}},
			{ID: "sink", Type: "raw_file_sink", Params: map[string]any{"file": "out.raw", "kind": "U16", "low_water": 0.5}},
		},
	}
}

func imageTemplate() Pipeline {
	return Pipeline{
		Path: "data",
		Nodes: []NodeConfig{
			{ID: "src", Type: "image_source", Params: map[string]any{"file": "in.png"}},
			{ID: "sink", Type: "image_sink", Params: map[string]any{"kind": "RGBA8x2", "template": "frame_{frame}.jpg", "quality": 50}},
		},
	}
}

func constantTemplate() Pipeline {
	return Pipeline{
		Path: "data",
		Nodes: []NodeConfig{
			{ID: "level", Type: "constant", Params: map[string]any{"kind": "F32", "value": "0.25"}},
			{ID: "scale", Type: "convert", Params: map[string]any{"from": "F32", "to": "U16"}},
			{ID: "sink", Type: "raw_file_sink", Params: map[string]any{"file": "level.raw", "kind": "U16"}},
		},
	}
}
