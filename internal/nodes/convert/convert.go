// Package convert moves samples between two frame kinds through a fixed
// numeric mapping.
package convert

import (
	"fmt"
	"math"

	"github.com/danmuck/vidmod/internal/frame"
	"github.com/danmuck/vidmod/internal/node"
	"github.com/danmuck/vidmod/internal/port"
)

const TypeName = "convert"

// Func maps one batch of the source kind to the destination kind.
type Func func(in frame.Frame) frame.Frame

type pair struct {
	from, to frame.Kind
}

var table = map[pair]Func{
	{frame.KindU8, frame.KindU8}:   identity,
	{frame.KindU16, frame.KindU16}: identity,
	{frame.KindU8, frame.KindU16}:  widenU8,
	{frame.KindU16, frame.KindU8}:  narrowU16,
	{frame.KindF32, frame.KindU16}: scaleF32,
}

// Lookup returns the mapping for from -> to.
func Lookup(from, to frame.Kind) (Func, error) {
	fn, ok := table[pair{from, to}]
	if !ok {
		return nil, fmt.Errorf("%w: conversion %s -> %s", node.ErrUnimplemented, from, to)
	}
	return fn, nil
}

// Convert is the conversion node: "in" of kind from, "out" of kind to.
type Convert struct {
	from, to frame.Kind
	fn       Func
	capacity int

	in, out *port.Port
}

// New builds a converter from the from/to parameters.
func New(params node.Params) (node.Node, error) {
	from, err := params.Kind(node.ParamFrom)
	if err != nil {
		return nil, err
	}
	to, err := params.Kind(node.ParamTo)
	if err != nil {
		return nil, err
	}
	capacity, err := params.Int(node.ParamCapacity, node.DefaultCapacity)
	if err != nil {
		return nil, err
	}
	return NewConvert(from, to, capacity)
}

func NewConvert(from, to frame.Kind, capacity int) (*Convert, error) {
	fn, err := Lookup(from, to)
	if err != nil {
		return nil, err
	}
	return &Convert{from: from, to: to, fn: fn, capacity: capacity}, nil
}

func (c *Convert) Init(ports *port.Table) error {
	var err error
	if c.out, err = ports.RegisterPull("out", c.to, c.capacity); err != nil {
		return err
	}
	c.in, err = ports.RegisterPush("in", c.from, c.capacity)
	return err
}

func (c *Convert) Tick() (bool, error) {
	n := min(c.in.Available(), c.out.Available())
	if n == 0 {
		return false, nil
	}
	batch, err := c.in.Take(n)
	if err != nil {
		return false, err
	}
	if err := c.out.Put(c.fn(batch)); err != nil {
		return false, err
	}
	return true, nil
}

// Finish reports drained only once nothing is left in transit.
func (c *Convert) Finish() bool {
	return c.in.Available() == 0
}

func identity(in frame.Frame) frame.Frame {
	return in
}

func widenU8(in frame.Frame) frame.Frame {
	src := in.U8()
	out := make([]uint16, len(src))
	for i, v := range src {
		out[i] = uint16(v) << 8
	}
	return frame.U16Batch(out)
}

// narrowU16 truncates; the low byte is discarded, not rounded.
func narrowU16(in frame.Frame) frame.Frame {
	src := in.U16()
	out := make([]uint8, len(src))
	for i, v := range src {
		out[i] = uint8(v >> 8)
	}
	return frame.U8Batch(out)
}

func scaleF32(in frame.Frame) frame.Frame {
	src := in.F32()
	out := make([]uint16, len(src))
	for i, v := range src {
		out[i] = F32ToU16(v)
	}
	return frame.U16Batch(out)
}

// F32ToU16 rescales a [0,1] sample to the full 16-bit range, clamping
// before rounding half away from zero. NaN maps to 0.
func F32ToU16(v float32) uint16 {
	x := float64(v) * math.MaxUint16
	switch {
	case math.IsNaN(x), x <= 0:
		return 0
	case x >= math.MaxUint16:
		return math.MaxUint16
	}
	return uint16(math.Round(x))
}
