package pipeline

// PortStatus is one port in a status snapshot.
type PortStatus struct {
	Name      string `json:"name"`
	Direction string `json:"direction"`
	Kind      string `json:"kind"`
	Capacity  int    `json:"capacity"`
	Buffered  int    `json:"buffered"`
}

// NodeStatus is one node in a status snapshot.
type NodeStatus struct {
	ID    string       `json:"id"`
	Type  string       `json:"type"`
	State string       `json:"state"`
	Ticks uint64       `json:"ticks"`
	Error string       `json:"error,omitempty"`
	Ports []PortStatus `json:"ports"`
}

// Status is the chain snapshot served on /status.
type Status struct {
	Stats Stats        `json:"stats"`
	Nodes []NodeStatus `json:"nodes"`
}

// Snapshot may be called while Run is in progress.
func (c *Chain) Snapshot() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		Stats: Stats{Passes: c.passes, Transferred: c.moved},
		Nodes: make([]NodeStatus, 0, len(c.stages)),
	}
	for _, s := range c.stages {
		ns := NodeStatus{
			ID:    s.inst.ID(),
			Type:  s.inst.Type(),
			State: s.inst.State().String(),
			Ticks: s.inst.Ticks(),
		}
		if err := s.inst.Err(); err != nil {
			ns.Error = err.Error()
		}
		for _, p := range s.inst.Ports().List() {
			ns.Ports = append(ns.Ports, PortStatus{
				Name:      p.Name(),
				Direction: p.Direction().String(),
				Kind:      p.Kind().String(),
				Capacity:  p.Capacity(),
				Buffered:  p.Len(),
			})
		}
		st.Nodes = append(st.Nodes, ns)
	}
	return st
}
