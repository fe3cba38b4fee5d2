package frame

import "fmt"

// Frame is a kind-tagged payload. Batch kinds carry an ordered run of
// samples; image kinds carry exactly one 2-D array value.
//
// Only the field matching kind is populated.
type Frame struct {
	kind Kind
	u8   []uint8
	u16  []uint16
	f32  []float32
	rgba Array2[RGBA8]
	mono Array2[uint16]
}

func U8Batch(v []uint8) Frame    { return Frame{kind: KindU8, u8: v} }
func U16Batch(v []uint16) Frame  { return Frame{kind: KindU16, u16: v} }
func F32Batch(v []float32) Frame { return Frame{kind: KindF32, f32: v} }

func RGBAImage(img Array2[RGBA8]) Frame    { return Frame{kind: KindRGBA8x2, rgba: img} }
func Mono16Image(img Array2[uint16]) Frame { return Frame{kind: KindU16x2, mono: img} }

// Empty returns a zero-length batch of kind k. Image kinds have no empty
// form and yield an invalid frame.
func Empty(k Kind) Frame {
	switch k {
	case KindU8:
		return U8Batch(nil)
	case KindU16:
		return U16Batch(nil)
	case KindF32:
		return F32Batch(nil)
	default:
		return Frame{}
	}
}

func (f Frame) Kind() Kind { return f.kind }

// IsSingle reports whether f holds one whole image value.
func (f Frame) IsSingle() bool {
	return f.kind == KindRGBA8x2 || f.kind == KindU16x2
}

// Len is the element count: samples for batches, 1 for an image.
func (f Frame) Len() int {
	switch f.kind {
	case KindU8:
		return len(f.u8)
	case KindU16:
		return len(f.u16)
	case KindF32:
		return len(f.f32)
	case KindRGBA8x2, KindU16x2:
		return 1
	default:
		return 0
	}
}

func (f Frame) U8() []uint8            { return f.u8 }
func (f Frame) U16() []uint16          { return f.u16 }
func (f Frame) F32() []float32         { return f.f32 }
func (f Frame) RGBA() Array2[RGBA8]    { return f.rgba }
func (f Frame) Mono16() Array2[uint16] { return f.mono }

// Clone deep-copies the payload.
func (f Frame) Clone() Frame {
	switch f.kind {
	case KindU8:
		return U8Batch(append([]uint8(nil), f.u8...))
	case KindU16:
		return U16Batch(append([]uint16(nil), f.u16...))
	case KindF32:
		return F32Batch(append([]float32(nil), f.f32...))
	case KindRGBA8x2:
		return RGBAImage(f.rgba.Clone())
	case KindU16x2:
		return Mono16Image(f.mono.Clone())
	default:
		return Frame{}
	}
}

// Append adds the elements of tail to the back of f.
func (f *Frame) Append(tail Frame) error {
	if !f.kind.IsBatch() {
		return fmt.Errorf("%w: append to %s", ErrNotBatch, f.kind)
	}
	if tail.kind != f.kind {
		return fmt.Errorf("%w: append %s to %s", ErrKindMismatch, tail.kind, f.kind)
	}
	switch f.kind {
	case KindU8:
		f.u8 = append(f.u8, tail.u8...)
	case KindU16:
		f.u16 = append(f.u16, tail.u16...)
	case KindF32:
		f.f32 = append(f.f32, tail.f32...)
	}
	return nil
}

// PopFront removes the first n elements of a batch and returns them as a
// new frame that does not alias f.
func (f *Frame) PopFront(n int) (Frame, error) {
	if !f.kind.IsBatch() {
		return Frame{}, fmt.Errorf("%w: pop from %s", ErrNotBatch, f.kind)
	}
	if n < 0 || n > f.Len() {
		return Frame{}, fmt.Errorf("%w: pop %d of %d", ErrInvalidLength, n, f.Len())
	}
	switch f.kind {
	case KindU8:
		head := append([]uint8(nil), f.u8[:n]...)
		f.u8 = compact(f.u8, n)
		return U8Batch(head), nil
	case KindU16:
		head := append([]uint16(nil), f.u16[:n]...)
		f.u16 = compact(f.u16, n)
		return U16Batch(head), nil
	default:
		head := append([]float32(nil), f.f32[:n]...)
		f.f32 = compact(f.f32, n)
		return F32Batch(head), nil
	}
}

// compact drops the first n elements, moving the remainder to the start of
// the backing array so a long-lived queue does not grow without bound.
func compact[T any](s []T, n int) []T {
	rest := copy(s, s[n:])
	clear(s[rest:])
	return s[:rest]
}
