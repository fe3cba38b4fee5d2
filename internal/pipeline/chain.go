// Package pipeline runs a linear chain of nodes: each node's "out" port
// feeds the next node's "in" port.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	logs "github.com/danmuck/smplog"
	"github.com/danmuck/vidmod/internal/node"
	"github.com/danmuck/vidmod/internal/observability"
	"github.com/danmuck/vidmod/internal/port"
)

var (
	ErrEmptyChain = errors.New("pipeline: no nodes")
	ErrWiring     = errors.New("pipeline: invalid wiring")
	ErrStalled    = errors.New("pipeline: stalled")
	ErrPassLimit  = errors.New("pipeline: pass limit reached")
)

// DefaultMaxPasses bounds Run when no limit is configured.
const DefaultMaxPasses = 1 << 20

type stage struct {
	inst *node.Instance
	in   *port.Port
	out  *port.Port
}

// Chain is not safe for concurrent use except for Snapshot.
type Chain struct {
	mu        sync.Mutex
	stages    []stage
	maxPasses int
	passes    int
	moved     uint64
}

// Stats summarizes a run.
type Stats struct {
	Passes      int    `json:"passes"`
	Transferred uint64 `json:"transferred"`
}

// NewChain initializes any constructed instance and checks that adjacent
// ports exist and agree on kind.
func NewChain(insts []*node.Instance, maxPasses int) (*Chain, error) {
	if len(insts) == 0 {
		return nil, ErrEmptyChain
	}
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}
	c := &Chain{stages: make([]stage, len(insts)), maxPasses: maxPasses}
	for i, inst := range insts {
		if inst.State() == node.StateConstructed {
			if err := inst.Init(); err != nil {
				return nil, err
			}
		}
		st := stage{inst: inst}
		var err error
		if i > 0 {
			if st.in, err = inst.Ports().In("in"); err != nil {
				return nil, fmt.Errorf("%w: %s has no input: %v", ErrWiring, inst.ID(), err)
			}
		}
		if i < len(insts)-1 {
			if st.out, err = inst.Ports().Out("out"); err != nil {
				return nil, fmt.Errorf("%w: %s has no output: %v", ErrWiring, inst.ID(), err)
			}
		}
		c.stages[i] = st
	}
	for i := 1; i < len(c.stages); i++ {
		up, down := c.stages[i-1], c.stages[i]
		if up.out.Kind() != down.in.Kind() {
			return nil, fmt.Errorf("%w: %s produces %s but %s consumes %s",
				ErrWiring, up.inst.ID(), up.out.Kind(), down.inst.ID(), down.in.Kind())
		}
	}
	return c, nil
}

// Instances returns the chained nodes in order.
func (c *Chain) Instances() []*node.Instance {
	out := make([]*node.Instance, len(c.stages))
	for i, st := range c.stages {
		out[i] = st.inst
	}
	return out
}

// Last returns the final node, whose output is left for the caller.
func (c *Chain) Last() *node.Instance {
	return c.stages[len(c.stages)-1].inst
}

// Run ticks the chain until every node is done. When a pass makes no
// progress, the first node whose upstream is done and emptied receives
// finish.
func (c *Chain) Run(ctx context.Context) (Stats, error) {
	for {
		if err := ctx.Err(); err != nil {
			return c.stats(), err
		}
		if c.done() {
			logs.Infof("pipeline.Chain done passes=%d transferred=%d", c.passes, c.moved)
			return c.stats(), nil
		}
		if c.passes >= c.maxPasses {
			return c.stats(), fmt.Errorf("%w: %d", ErrPassLimit, c.maxPasses)
		}

		progress, err := c.Step()
		if err != nil {
			return c.stats(), err
		}
		if progress {
			continue
		}
		if err := c.finishNext(); err != nil {
			return c.stats(), err
		}
	}
}

// Step ticks each node once, upstream first, then moves data across every
// link. It reports whether anything changed.
func (c *Chain) Step() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.passes++
	progress := false
	for _, st := range c.stages {
		before := st.inst.State()
		ok, err := st.inst.Tick()
		if err != nil {
			return false, err
		}
		if ok || st.inst.State() != before {
			progress = true
		}
	}
	for i := 1; i < len(c.stages); i++ {
		n, err := c.transfer(c.stages[i-1], c.stages[i])
		if err != nil {
			return false, err
		}
		if n > 0 {
			progress = true
		}
	}
	return progress, nil
}

func (c *Chain) transfer(up, down stage) (int, error) {
	n := min(up.out.Len(), down.in.Free())
	if n == 0 {
		return 0, nil
	}
	if !up.out.Kind().IsBatch() {
		n = 1
	}
	f, err := up.out.Pull(n)
	if err != nil {
		return 0, fmt.Errorf("pull %s: %w", up.out, err)
	}
	if err := down.in.Push(f); err != nil {
		return 0, fmt.Errorf("push %s: %w", down.in, err)
	}
	observability.RecordTransfer(up.inst.ID(), up.out.Name(), up.out.Direction().String(), n)
	observability.RecordTransfer(down.inst.ID(), down.in.Name(), down.in.Direction().String(), n)
	c.moved += uint64(n)
	return n, nil
}

func (c *Chain) finishNext() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, st := range c.stages {
		if st.inst.FinishSent() {
			if st.inst.Done() {
				continue
			}
			return fmt.Errorf("%w: %s is %s with no progress", ErrStalled, st.inst.ID(), st.inst.State())
		}
		if i > 0 {
			up := c.stages[i-1]
			if !up.inst.Done() || up.out.Len() > 0 {
				return fmt.Errorf("%w: %s waits on %s", ErrStalled, st.inst.ID(), up.inst.ID())
			}
		}
		logs.Debugf("pipeline.Chain finish node=%q pass=%d", st.inst.ID(), c.passes)
		_, err := st.inst.Finish()
		return err
	}
	return nil
}

func (c *Chain) done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, st := range c.stages {
		if !st.inst.Done() {
			return false
		}
	}
	return true
}

func (c *Chain) stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Passes: c.passes, Transferred: c.moved}
}

// Close releases every node holding a file or codec handle.
func (c *Chain) Close() error {
	var errs []error
	for _, st := range c.stages {
		if closer, ok := st.inst.Node().(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", st.inst.ID(), err))
			}
		}
	}
	return errors.Join(errs...)
}
