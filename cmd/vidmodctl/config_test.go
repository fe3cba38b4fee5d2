package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/danmuck/vidmod/internal/node"
	"github.com/danmuck/vidmod/internal/pipeline"
	"github.com/danmuck/vidmod/internal/port"
	"github.com/danmuck/vidmod/internal/testutil/testlog"
)

func TestLoadRuntimeConfigOverrides(t *testing.T) {
	cfg, err := loadRuntimeConfig("ex.config.toml")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.LogLevel)
	}
	if cfg.MaxPasses != 50000 {
		t.Fatalf("unexpected max passes: %d", cfg.MaxPasses)
	}
	if cfg.MetricsAddr != "127.0.0.1:9464" {
		t.Fatalf("unexpected metrics addr: %q", cfg.MetricsAddr)
	}
	if !reflect.DeepEqual(cfg.CorsOrigins, []string{"http://localhost:3000"}) {
		t.Fatalf("unexpected cors origins: %+v", cfg.CorsOrigins)
	}
	if len(cfg.NodeTypes) != 3 {
		t.Fatalf("unexpected node types: %+v", cfg.NodeTypes)
	}
}

func TestLoadRuntimeConfigDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.toml")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := loadRuntimeConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !reflect.DeepEqual(cfg, defaultRuntimeConfig()) {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if cfg.MaxPasses != pipeline.DefaultMaxPasses || cfg.MetricsAddr != "" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadRuntimeConfigRejects(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"level.toml":  `log_level = "loud"`,
		"passes.toml": `max_passes = 0`,
		"syntax.toml": `max_passes = `,
	} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		if _, err := loadRuntimeConfig(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestRunPipeline(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "in.raw"), []byte{10, 20, 30}, 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	def := filepath.Join(dir, "pipeline.toml")
	body := `
[[nodes]]
type = "raw_file_source"
params = { file = "in.raw", kind = "U8" }

[[nodes]]
type = "convert"
params = { from = "U8", to = "U16" }

[[nodes]]
type = "raw_file_sink"
params = { file = "out.raw", kind = "U16" }
`
	if err := os.WriteFile(def, []byte(body), 0o644); err != nil {
		t.Fatalf("write pipeline: %v", err)
	}

	var out bytes.Buffer
	if err := run(context.Background(), options{pipelinePath: def}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "transferred=6") {
		t.Fatalf("unexpected summary %q", out.String())
	}
	got, err := os.ReadFile(filepath.Join(dir, "out.raw"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(got, []byte{0x00, 0x0a, 0x00, 0x14, 0x00, 0x1e}) {
		t.Fatalf("unexpected output % x", got)
	}
}

func TestRunList(t *testing.T) {
	testlog.Start(t)
	var out bytes.Buffer
	if err := run(context.Background(), options{list: true}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, name := range []string{"constant", "convert", "image_sink", "image_source", "raw_file_sink", "raw_file_source"} {
		if !strings.Contains(out.String(), name) {
			t.Fatalf("missing %s in %q", name, out.String())
		}
	}
	if err := run(context.Background(), options{}, &out); err == nil {
		t.Fatalf("expected error without -pipeline")
	}
}

type closeCounter struct {
	closed int
}

func (c *closeCounter) Init(*port.Table) error { return nil }
func (c *closeCounter) Tick() (bool, error)    { return false, nil }
func (c *closeCounter) Finish() bool           { return true }

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

func TestBuildChainClosesOnWiringError(t *testing.T) {
	testlog.Start(t)
	a, b := &closeCounter{}, &closeCounter{}
	insts := []*node.Instance{node.NewInstance("a", "counter", a), node.NewInstance("b", "counter", b)}
	if _, err := buildChain(insts, 0); !errors.Is(err, pipeline.ErrWiring) {
		t.Fatalf("expected ErrWiring, got %v", err)
	}
	if a.closed != 1 || b.closed != 1 {
		t.Fatalf("expected each node closed once, got a=%d b=%d", a.closed, b.closed)
	}
}

func TestRunClosesNodesOnBadWiring(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "in.raw"), []byte{1, 2}, 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	def := filepath.Join(dir, "pipeline.toml")
	body := `
[[nodes]]
type = "raw_file_source"
params = { file = "in.raw", kind = "U8" }

[[nodes]]
type = "convert"
params = { from = "U16", to = "U8" }
`
	if err := os.WriteFile(def, []byte(body), 0o644); err != nil {
		t.Fatalf("write pipeline: %v", err)
	}
	var out bytes.Buffer
	if err := run(context.Background(), options{pipelinePath: def}, &out); !errors.Is(err, pipeline.ErrWiring) {
		t.Fatalf("expected ErrWiring, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("unexpected summary %q", out.String())
	}
}
