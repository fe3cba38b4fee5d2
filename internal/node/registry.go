package node

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Constructor builds a node from validated parameters. It fails rather
// than returning a node in a broken state.
type Constructor func(params Params) (Node, error)

// TypeInfo describes one registered node type.
type TypeInfo struct {
	Name        string
	Description string
}

type registration struct {
	info TypeInfo
	ctor Constructor
}

// Registry maps node type names to constructors. It is filled at startup
// and read-only afterwards.
type Registry struct {
	items map[string]registration
}

func NewRegistry() *Registry {
	return &Registry{items: make(map[string]registration)}
}

// Register adds a node type.
func (r *Registry) Register(info TypeInfo, ctor Constructor) error {
	name := strings.TrimSpace(info.Name)
	if ctor == nil {
		return fmt.Errorf("%w: nil constructor for %q", ErrConfig, name)
	}
	if !isValidName(name) {
		return fmt.Errorf("%w: invalid type name %q", ErrConfig, info.Name)
	}
	if _, ok := r.items[name]; ok {
		return fmt.Errorf("%w: %s", ErrTypeExists, name)
	}
	info.Name = name
	r.items[name] = registration{info: info, ctor: ctor}
	return nil
}

func (r *Registry) Resolve(name string) (Constructor, bool) {
	reg, ok := r.items[strings.TrimSpace(name)]
	return reg.ctor, ok
}

// Build constructs a node of type typ and wraps it in an Instance. An empty
// id gets a generated one.
func (r *Registry) Build(typ, id string, params Params) (*Instance, error) {
	name := strings.TrimSpace(typ)
	reg, ok := r.items[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		id = name + "." + uuid.NewString()[:8]
	}
	n, err := reg.ctor(params.Clone())
	if err != nil {
		return nil, fmt.Errorf("build %s (%s): %w", id, name, err)
	}
	return NewInstance(id, name, n), nil
}

// List returns registered types ordered by name.
func (r *Registry) List() []TypeInfo {
	list := make([]TypeInfo, 0, len(r.items))
	for _, reg := range r.items {
		list = append(list, reg.info)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}

func isValidName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		isSep := c == '_' || c == '.' || c == '-'
		if !(isLower || isDigit || isSep) {
			return false
		}
		if isSep && (i == 0 || i == len(name)-1) {
			return false
		}
	}
	return true
}
