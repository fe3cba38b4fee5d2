// Package constant provides a source that offers one fixed value forever.
package constant

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/danmuck/vidmod/internal/frame"
	"github.com/danmuck/vidmod/internal/node"
	"github.com/danmuck/vidmod/internal/port"
)

const TypeName = "constant"

// Constant refills "out" with a copy of its value whenever there is room
// for all of it. It is never exhausted.
type Constant struct {
	value frame.Frame
	out   *port.Port
}

// New builds a constant from kind and a comma separated value list. Only
// scalar kinds can be spelled as parameters.
func New(params node.Params) (node.Node, error) {
	kind, err := params.Kind(node.ParamKind)
	if err != nil {
		return nil, err
	}
	raw, err := params.Required(node.ParamValue)
	if err != nil {
		return nil, err
	}
	value, err := ParseValue(kind, raw)
	if err != nil {
		return nil, err
	}
	return NewConstant(value)
}

func NewConstant(value frame.Frame) (*Constant, error) {
	if !value.Kind().Valid() {
		return nil, fmt.Errorf("%w: constant of invalid kind", node.ErrConfig)
	}
	if value.Len() == 0 {
		return nil, fmt.Errorf("%w: empty %s constant", node.ErrConfig, value.Kind())
	}
	return &Constant{value: value.Clone()}, nil
}

// ParseValue parses a comma separated list of scalars of kind k.
func ParseValue(k frame.Kind, raw string) (frame.Frame, error) {
	fields := strings.Split(raw, ",")
	switch k {
	case frame.KindU8:
		vals := make([]uint8, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseUint(strings.TrimSpace(f), 10, 8)
			if err != nil {
				return frame.Frame{}, valueErr(k, f, err)
			}
			vals[i] = uint8(v)
		}
		return frame.U8Batch(vals), nil
	case frame.KindU16:
		vals := make([]uint16, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseUint(strings.TrimSpace(f), 10, 16)
			if err != nil {
				return frame.Frame{}, valueErr(k, f, err)
			}
			vals[i] = uint16(v)
		}
		return frame.U16Batch(vals), nil
	case frame.KindF32:
		vals := make([]float32, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 32)
			if err != nil || math.IsNaN(v) {
				return frame.Frame{}, valueErr(k, f, err)
			}
			vals[i] = float32(v)
		}
		return frame.F32Batch(vals), nil
	}
	return frame.Frame{}, fmt.Errorf("%w: constant of kind %s cannot be given as a parameter", node.ErrUnimplemented, k)
}

func valueErr(k frame.Kind, field string, err error) error {
	if err == nil {
		err = errors.New("not a number")
	}
	return fmt.Errorf("%w: parameter %q: %q is not a %s value: %v", node.ErrConfig, node.ParamValue, strings.TrimSpace(field), k, err)
}

func (c *Constant) Init(ports *port.Table) error {
	var err error
	c.out, err = ports.RegisterPull("out", c.value.Kind(), c.value.Len())
	return err
}

func (c *Constant) Tick() (bool, error) {
	if c.out.Available() < c.value.Len() {
		return false, nil
	}
	v := c.value.Clone()
	if v.IsSingle() {
		return true, c.out.PutOne(v)
	}
	return true, c.out.Put(v)
}

// Finish never completes: a constant has no end of stream.
func (c *Constant) Finish() bool {
	return false
}

func (c *Constant) Drained() bool {
	return false
}

// Value returns a copy of the held value.
func (c *Constant) Value() frame.Frame {
	return c.value.Clone()
}
