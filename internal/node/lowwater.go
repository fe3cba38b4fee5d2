package node

import "fmt"

const (
	// DefaultCapacity is the port capacity of streaming nodes.
	DefaultCapacity = 4096
	// DefaultLowWater is the fraction of capacity a streaming node waits
	// for before doing a batched transfer.
	DefaultLowWater = 0.5
)

// LowWater is the batching rule for streaming nodes: transfer only when more
// than Fraction of capacity is available, unless finishing, where any
// non-zero amount is flushed.
type LowWater struct {
	Fraction float64
}

// Ready reports whether a transfer of avail elements on a port of the given
// capacity should happen now.
func (lw LowWater) Ready(avail, capacity int, finishing bool) bool {
	if avail <= 0 {
		return false
	}
	if finishing {
		return true
	}
	return avail > lw.Threshold(capacity)
}

// Threshold is the element count that must be exceeded outside of finish.
func (lw LowWater) Threshold(capacity int) int {
	return int(float64(capacity) * lw.Fraction)
}

// StreamSettings reads the capacity and low_water parameters.
func StreamSettings(p Params) (int, LowWater, error) {
	capacity, err := p.Int(ParamCapacity, DefaultCapacity)
	if err != nil {
		return 0, LowWater{}, err
	}
	fraction, err := p.Fraction(ParamLowWater, DefaultLowWater)
	if err != nil {
		return 0, LowWater{}, err
	}
	return capacity, LowWater{Fraction: fraction}, nil
}

func (lw LowWater) String() string {
	return fmt.Sprintf("low_water=%.2f", lw.Fraction)
}
