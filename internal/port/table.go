package port

import (
	"fmt"
	"strings"

	"github.com/danmuck/vidmod/internal/frame"
)

type key struct {
	name string
	dir  Direction
}

// Table is one node's set of registered ports. Ports are registered during
// init and the table is sealed afterwards.
type Table struct {
	owner  string
	ports  map[key]*Port
	order  []*Port
	sealed bool
}

func NewTable(owner string) *Table {
	return &Table{owner: owner, ports: make(map[key]*Port)}
}

func (t *Table) Owner() string { return t.owner }

// Register declares a port. Names are unique per direction.
func (t *Table) Register(name string, dir Direction, kind frame.Kind, capacity int) (*Port, error) {
	if t.sealed {
		return nil, fmt.Errorf("%w: register %q on %s", ErrSealed, name, t.owner)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty name on %s", ErrInvalidPort, t.owner)
	}
	if dir != Push && dir != Pull {
		return nil, fmt.Errorf("%w: %s direction for %q", ErrInvalidPort, dir, name)
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %s kind for %q", ErrInvalidPort, kind, name)
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity %d for %q", ErrInvalidPort, capacity, name)
	}
	k := key{name: name, dir: dir}
	if _, ok := t.ports[k]; ok {
		return nil, fmt.Errorf("%w: %s.%s(%s)", ErrDuplicatePort, t.owner, name, dir)
	}
	p := newPort(t.owner, name, dir, kind, capacity)
	t.ports[k] = p
	t.order = append(t.order, p)
	return p, nil
}

// RegisterPush declares an input.
func (t *Table) RegisterPush(name string, kind frame.Kind, capacity int) (*Port, error) {
	return t.Register(name, Push, kind, capacity)
}

// RegisterPull declares an output.
func (t *Table) RegisterPull(name string, kind frame.Kind, capacity int) (*Port, error) {
	return t.Register(name, Pull, kind, capacity)
}

func (t *Table) Seal()        { t.sealed = true }
func (t *Table) Sealed() bool { return t.sealed }

func (t *Table) Lookup(name string, dir Direction) (*Port, error) {
	p, ok := t.ports[key{name: name, dir: dir}]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s(%s)", ErrUnknownPort, t.owner, name, dir)
	}
	return p, nil
}

// In returns the input port called name.
func (t *Table) In(name string) (*Port, error) { return t.Lookup(name, Push) }

// Out returns the output port called name.
func (t *Table) Out(name string) (*Port, error) { return t.Lookup(name, Pull) }

// List returns ports in registration order.
func (t *Table) List() []*Port {
	return append([]*Port(nil), t.order...)
}

// Buffered sums buffered elements across all ports of the given direction.
func (t *Table) Buffered(dir Direction) int {
	total := 0
	for _, p := range t.order {
		if p.dir == dir {
			total += p.Len()
		}
	}
	return total
}
