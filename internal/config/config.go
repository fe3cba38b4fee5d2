package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danmuck/vidmod/internal/node"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	ErrFormat  = errors.New("config: unsupported file format")
	ErrInvalid = errors.New("config: invalid pipeline")
)

// Pipeline is a linear chain definition. Nodes run in file order, each
// feeding the next.
type Pipeline struct {
	Path  string       `toml:"path" yaml:"path"`
	Nodes []NodeConfig `toml:"nodes" yaml:"nodes"`
}

type NodeConfig struct {
	ID     string         `toml:"id" yaml:"id"`
	Type   string         `toml:"type" yaml:"type"`
	Params map[string]any `toml:"params" yaml:"params"`
}

// LoadPipeline reads a .toml, .yaml or .yml definition. A relative path is
// resolved against the definition's directory, and an empty one becomes it.
func LoadPipeline(path string) (Pipeline, error) {
	var cfg Pipeline
	if err := load(path, &cfg); err != nil {
		return Pipeline{}, err
	}
	base := filepath.Dir(path)
	switch {
	case strings.TrimSpace(cfg.Path) == "":
		cfg.Path = base
	case !filepath.IsAbs(cfg.Path):
		cfg.Path = filepath.Join(base, cfg.Path)
	}
	if err := ValidatePipeline(cfg); err != nil {
		return Pipeline{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func load(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, out)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, out)
	default:
		return fmt.Errorf("%w: %s", ErrFormat, path)
	}
	if err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidatePipeline(cfg Pipeline) error {
	if len(cfg.Nodes) == 0 {
		return fmt.Errorf("%w: no nodes", ErrInvalid)
	}
	seen := make(map[string]int)
	for i, n := range cfg.Nodes {
		if err := ValidateNode(n); err != nil {
			return fmt.Errorf("node[%d] invalid: %w", i, err)
		}
		id := strings.TrimSpace(n.ID)
		if id == "" {
			continue
		}
		if j, ok := seen[id]; ok {
			return fmt.Errorf("%w: node[%d] reuses id %q of node[%d]", ErrInvalid, i, id, j)
		}
		seen[id] = i
	}
	return nil
}

func ValidateNode(cfg NodeConfig) error {
	if strings.TrimSpace(cfg.Type) == "" {
		return fmt.Errorf("%w: type is required", ErrInvalid)
	}
	if _, ok := cfg.Params[node.ParamPath]; ok {
		return fmt.Errorf("%w: %s is set from the pipeline path", ErrInvalid, node.ParamPath)
	}
	for key, v := range cfg.Params {
		if _, err := paramString(v); err != nil {
			return fmt.Errorf("%w: param %q: %v", ErrInvalid, key, err)
		}
	}
	return nil
}

// paramString flattens a decoded scalar to its parameter spelling.
func paramString(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(v), nil
	case nil:
		return "", errors.New("empty value")
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}
