package node

import (
	"fmt"

	logs "github.com/danmuck/smplog"
	"github.com/danmuck/vidmod/internal/observability"
	"github.com/danmuck/vidmod/internal/port"
)

// Node is the contract every processing unit implements.
//
// Init registers every port the node will use, exactly once. Tick does a
// bounded, non-blocking amount of work and reports whether anything
// observable changed. Finish tells the node no more upstream input will
// arrive; it returns true when nothing is left to drain.
type Node interface {
	Init(ports *port.Table) error
	Tick() (bool, error)
	Finish() bool
}

// Drainer is implemented by nodes that know when they are complete while
// finishing. Nodes without it are complete once their inputs are empty.
type Drainer interface {
	Drained() bool
}

type State int

const (
	StateConstructed State = iota
	StateInitialized
	StateRunning
	StateFinishing
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateFinishing:
		return "finishing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Instance wraps a Node with its port table and enforces the lifecycle
// order: init once, tick any number of times, finish at most once.
//
// An Instance is not safe for concurrent use.
type Instance struct {
	id    string
	typ   string
	node  Node
	ports *port.Table

	state    State
	finished bool
	err      error
	ticks    uint64
}

func NewInstance(id, typ string, n Node) *Instance {
	return &Instance{
		id:    id,
		typ:   typ,
		node:  n,
		ports: port.NewTable(id),
	}
}

func (i *Instance) ID() string         { return i.id }
func (i *Instance) Type() string       { return i.typ }
func (i *Instance) Node() Node         { return i.node }
func (i *Instance) Ports() *port.Table { return i.ports }
func (i *Instance) State() State       { return i.state }
func (i *Instance) Err() error         { return i.err }
func (i *Instance) Ticks() uint64      { return i.ticks }
func (i *Instance) FinishSent() bool   { return i.finished }
func (i *Instance) Done() bool         { return i.state == StateDone }

// Init registers the node's ports and seals the table.
func (i *Instance) Init() error {
	if i.state != StateConstructed {
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, i.id)
	}
	if err := i.node.Init(i.ports); err != nil {
		i.fail(err)
		return fmt.Errorf("init %s: %w", i.id, err)
	}
	i.ports.Seal()
	i.transition(StateInitialized)
	return nil
}

// Tick runs one step of the node. A tick error is fatal for the instance.
func (i *Instance) Tick() (bool, error) {
	switch i.state {
	case StateConstructed:
		return false, fmt.Errorf("%w: %s", ErrNotInitialized, i.id)
	case StateFailed:
		return false, fmt.Errorf("%w: %s: %v", ErrFailed, i.id, i.err)
	case StateDone:
		return false, nil
	case StateInitialized:
		i.transition(StateRunning)
	}

	i.ticks++
	progress, err := i.node.Tick()
	if err != nil {
		i.fail(err)
		return false, fmt.Errorf("tick %s: %w", i.id, err)
	}
	observability.RecordTick(i.id, i.typ, progress)
	i.recordPorts()

	if i.state == StateFinishing && !progress && i.drained() {
		i.transition(StateDone)
	}
	return progress, nil
}

// Finish delivers the end-of-input notification. It returns true when the
// node needs no further ticks.
func (i *Instance) Finish() (bool, error) {
	switch {
	case i.state == StateConstructed:
		return false, fmt.Errorf("%w: %s", ErrNotInitialized, i.id)
	case i.state == StateFailed:
		return false, fmt.Errorf("%w: %s: %v", ErrFailed, i.id, i.err)
	case i.finished:
		return false, fmt.Errorf("%w: %s", ErrAlreadyFinished, i.id)
	}
	i.finished = true
	if i.node.Finish() {
		i.transition(StateDone)
		return true, nil
	}
	i.transition(StateFinishing)
	return false, nil
}

func (i *Instance) drained() bool {
	if d, ok := i.node.(Drainer); ok {
		return d.Drained()
	}
	return i.ports.Buffered(port.Push) == 0
}

func (i *Instance) recordPorts() {
	for _, p := range i.ports.List() {
		observability.SetPortBuffered(i.id, p.Name(), p.Direction().String(), p.Len())
	}
}

func (i *Instance) fail(err error) {
	i.err = err
	observability.RecordFailure(i.id, i.typ)
	logs.Errorf(err, "node.Instance failed node=%q type=%q", i.id, i.typ)
	i.transition(StateFailed)
}

func (i *Instance) transition(next State) {
	if i.state == next {
		return
	}
	logs.Debugf(
		"node.Instance state node=%q type=%q from=%s to=%s ticks=%d",
		i.id,
		i.typ,
		i.state,
		next,
		i.ticks,
	)
	i.state = next
}
