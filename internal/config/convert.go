package config

import (
	"fmt"

	"github.com/danmuck/vidmod/internal/node"
)

// NodeParams returns the construction parameters of node i, with
// vidmod.path injected.
func (p Pipeline) NodeParams(i int) (node.Params, error) {
	if i < 0 || i >= len(p.Nodes) {
		return nil, fmt.Errorf("%w: node index %d out of range", ErrInvalid, i)
	}
	cfg := p.Nodes[i]
	params := make(node.Params, len(cfg.Params)+1)
	for key, v := range cfg.Params {
		s, err := paramString(v)
		if err != nil {
			return nil, fmt.Errorf("%w: node[%d] param %q: %v", ErrInvalid, i, key, err)
		}
		params[key] = s
	}
	params[node.ParamPath] = p.Path
	return params, nil
}

// Instances builds every declared node from reg, in order. Nodes already
// built are closed if a later one fails.
func (p Pipeline) Instances(reg *node.Registry) ([]*node.Instance, error) {
	insts := make([]*node.Instance, 0, len(p.Nodes))
	for i, cfg := range p.Nodes {
		params, err := p.NodeParams(i)
		if err != nil {
			closeAll(insts)
			return nil, err
		}
		inst, err := reg.Build(cfg.Type, cfg.ID, params)
		if err != nil {
			closeAll(insts)
			return nil, fmt.Errorf("node[%d]: %w", i, err)
		}
		insts = append(insts, inst)
	}
	return insts, nil
}

func closeAll(insts []*node.Instance) {
	for _, inst := range insts {
		if c, ok := inst.Node().(interface{ Close() error }); ok {
			c.Close()
		}
	}
}
