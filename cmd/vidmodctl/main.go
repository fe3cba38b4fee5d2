package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	logs "github.com/danmuck/smplog"
	"github.com/danmuck/vidmod/internal/config"
	"github.com/danmuck/vidmod/internal/logging"
	"github.com/danmuck/vidmod/internal/node"
	"github.com/danmuck/vidmod/internal/nodes"
	"github.com/danmuck/vidmod/internal/observability"
	"github.com/danmuck/vidmod/internal/pipeline"
)

type options struct {
	pipelinePath string
	configPath   string
	list         bool
}

func main() {
	var opts options
	flag.StringVar(&opts.pipelinePath, "pipeline", "", "pipeline definition (.toml, .yaml, .yml)")
	flag.StringVar(&opts.configPath, "config", "", "runtime config (toml)")
	flag.BoolVar(&opts.list, "list", false, "list registered node types and exit")
	flag.Parse()

	logging.ConfigureRuntime()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "vidmodctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	cfg := defaultRuntimeConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = loadRuntimeConfig(opts.configPath); err != nil {
			return err
		}
	}
	if cfg.LogLevel != "" {
		logging.SetLevel(cfg.LogLevel)
	}

	reg, err := nodes.Builtin(cfg.NodeTypes...)
	if err != nil {
		return err
	}
	if opts.list {
		for _, info := range reg.List() {
			fmt.Fprintf(stdout, "%-16s %s\n", info.Name, info.Description)
		}
		return nil
	}
	if opts.pipelinePath == "" {
		return errors.New("missing -pipeline")
	}

	def, err := config.LoadPipeline(opts.pipelinePath)
	if err != nil {
		return err
	}
	insts, err := def.Instances(reg)
	if err != nil {
		return err
	}
	chain, err := buildChain(insts, cfg.MaxPasses)
	if err != nil {
		return err
	}
	defer func() {
		if err := chain.Close(); err != nil {
			logs.Warnf("vidmodctl close pipeline: %v", err)
		}
	}()

	if cfg.MetricsAddr != "" {
		serveCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		router := observability.NewRouter("vidmodctl", cfg.CorsOrigins, func() any { return chain.Snapshot() })
		go func() {
			if err := observability.Serve(serveCtx, cfg.MetricsAddr, router); err != nil {
				logs.Errorf(err, "vidmodctl metrics server stopped addr=%s", cfg.MetricsAddr)
			}
		}()
	}

	logs.Infof("vidmodctl pipeline start pipeline=%s nodes=%d", opts.pipelinePath, len(insts))
	stats, err := chain.Run(ctx)
	if err != nil {
		return fmt.Errorf("run %s: %w", opts.pipelinePath, err)
	}
	fmt.Fprintf(stdout, "passes=%d transferred=%d\n", stats.Passes, stats.Transferred)
	return nil
}

// buildChain closes the instances when they cannot be chained.
func buildChain(insts []*node.Instance, maxPasses int) (*pipeline.Chain, error) {
	chain, err := pipeline.NewChain(insts, maxPasses)
	if err == nil {
		return chain, nil
	}
	for _, inst := range insts {
		if c, ok := inst.Node().(io.Closer); ok {
			if cerr := c.Close(); cerr != nil {
				logs.Warnf("vidmodctl close node=%q: %v", inst.ID(), cerr)
			}
		}
	}
	return nil, err
}
