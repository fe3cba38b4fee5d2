package port

import (
	"errors"
	"fmt"

	"github.com/danmuck/vidmod/internal/frame"
)

var (
	ErrCapacity      = errors.New("port: capacity exceeded")
	ErrUnderflow     = errors.New("port: not enough buffered elements")
	ErrDirection     = errors.New("port: wrong direction")
	ErrKindMismatch  = frame.ErrKindMismatch
	ErrUnknownPort   = errors.New("port: unknown port")
	ErrDuplicatePort = errors.New("port: duplicate port")
	ErrSealed        = errors.New("port: table sealed")
	ErrInvalidPort   = errors.New("port: invalid port declaration")
)

// Direction says which side of a node a port sits on.
type Direction uint8

const (
	// Push ports are node inputs: the scheduler pushes, the node takes.
	Push Direction = iota + 1
	// Pull ports are node outputs: the node puts, the scheduler pulls.
	Pull
)

func (d Direction) String() string {
	switch d {
	case Push:
		return "push"
	case Pull:
		return "pull"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// Port is a named, capacity-bounded FIFO owned by one node.
type Port struct {
	owner    string
	name     string
	dir      Direction
	kind     frame.Kind
	capacity int

	// batch holds queued samples for batch kinds; singles holds queued
	// whole images for image kinds.
	batch   frame.Frame
	singles []frame.Frame
}

func newPort(owner, name string, dir Direction, kind frame.Kind, capacity int) *Port {
	p := &Port{
		owner:    owner,
		name:     name,
		dir:      dir,
		kind:     kind,
		capacity: capacity,
	}
	if kind.IsBatch() {
		p.batch = frame.Empty(kind)
	}
	return p
}

func (p *Port) Owner() string        { return p.owner }
func (p *Port) Name() string         { return p.name }
func (p *Port) Direction() Direction { return p.dir }
func (p *Port) Kind() frame.Kind     { return p.kind }
func (p *Port) Capacity() int        { return p.capacity }

func (p *Port) String() string {
	return fmt.Sprintf("%s.%s(%s)", p.owner, p.name, p.dir)
}

// Len is the number of buffered elements.
func (p *Port) Len() int {
	if p.kind.IsBatch() {
		return p.batch.Len()
	}
	return len(p.singles)
}

// Free is the remaining capacity.
func (p *Port) Free() int {
	return p.capacity - p.Len()
}

// Available is what the owning node may move right now: buffered elements
// on an input, free capacity on an output.
func (p *Port) Available() int {
	if p.dir == Push {
		return p.Len()
	}
	return p.Free()
}

// Take removes up to n buffered elements from an input as one batch.
func (p *Port) Take(n int) (frame.Frame, error) {
	if err := p.expect(Push, "take"); err != nil {
		return frame.Frame{}, err
	}
	if !p.kind.IsBatch() {
		return frame.Frame{}, fmt.Errorf("%w: take on %s port %s", frame.ErrNotBatch, p.kind, p)
	}
	return p.remove(n)
}

// TakeOne removes exactly one element from an input.
func (p *Port) TakeOne() (frame.Frame, error) {
	if err := p.expect(Push, "take"); err != nil {
		return frame.Frame{}, err
	}
	return p.remove(1)
}

// Put appends f to an output.
func (p *Port) Put(f frame.Frame) error {
	if err := p.expect(Pull, "put"); err != nil {
		return err
	}
	return p.insert(f)
}

// PutOne appends a frame holding exactly one element to an output.
func (p *Port) PutOne(f frame.Frame) error {
	if err := p.expect(Pull, "put"); err != nil {
		return err
	}
	if f.Len() != 1 {
		return fmt.Errorf("%w: put one with %d elements on %s", frame.ErrInvalidLength, f.Len(), p)
	}
	return p.insert(f)
}

// Pull drains up to n buffered elements from an output. Used by whatever
// moves data between nodes.
func (p *Port) Pull(n int) (frame.Frame, error) {
	if err := p.expect(Pull, "pull"); err != nil {
		return frame.Frame{}, err
	}
	if !p.kind.IsBatch() && n != 1 {
		return frame.Frame{}, fmt.Errorf("%w: pull %d from %s port %s", frame.ErrNotBatch, n, p.kind, p)
	}
	return p.remove(n)
}

// Push feeds f into an input. Used by whatever moves data between nodes.
func (p *Port) Push(f frame.Frame) error {
	if err := p.expect(Push, "push"); err != nil {
		return err
	}
	return p.insert(f)
}

func (p *Port) expect(dir Direction, op string) error {
	if p.dir != dir {
		return fmt.Errorf("%w: %s on %s", ErrDirection, op, p)
	}
	return nil
}

func (p *Port) remove(n int) (frame.Frame, error) {
	if n < 0 || n > p.Len() || (n == 0 && !p.kind.IsBatch()) {
		return frame.Frame{}, fmt.Errorf("%w: want %d have %d on %s", ErrUnderflow, n, p.Len(), p)
	}
	if p.kind.IsBatch() {
		return p.batch.PopFront(n)
	}
	f := p.singles[0]
	p.singles[0] = frame.Frame{}
	p.singles = p.singles[1:]
	return f, nil
}

func (p *Port) insert(f frame.Frame) error {
	if f.Kind() != p.kind {
		return fmt.Errorf("%w: %s frame on %s port %s", ErrKindMismatch, f.Kind(), p.kind, p)
	}
	if f.Len() > p.Free() {
		return fmt.Errorf("%w: %d elements with %d free on %s", ErrCapacity, f.Len(), p.Free(), p)
	}
	if p.kind.IsBatch() {
		return p.batch.Append(f)
	}
	p.singles = append(p.singles, f)
	return nil
}
