package frame

import (
	"encoding/binary"
	"fmt"
	"math"
)

// AppendBytes serializes f onto dst using the raw stream layout:
//
//	U8      1 byte per sample
//	U16     2 bytes per sample, little-endian
//	F32     4 bytes per sample, native-endian
//	RGBA8x2 r,g,b,a per pixel, row-major
//	U16x2   2 bytes per pixel, little-endian, row-major
func AppendBytes(dst []byte, f Frame) ([]byte, error) {
	switch f.kind {
	case KindU8:
		return append(dst, f.u8...), nil
	case KindU16:
		for _, v := range f.u16 {
			dst = binary.LittleEndian.AppendUint16(dst, v)
		}
		return dst, nil
	case KindF32:
		for _, v := range f.f32 {
			dst = binary.NativeEndian.AppendUint32(dst, math.Float32bits(v))
		}
		return dst, nil
	case KindRGBA8x2:
		if !f.rgba.Valid() {
			return dst, fmt.Errorf("%w: %dx%d image with %d pixels", ErrInvalidLength, f.rgba.Width, f.rgba.Height, len(f.rgba.Pix))
		}
		for _, px := range f.rgba.Pix {
			dst = append(dst, px.R, px.G, px.B, px.A)
		}
		return dst, nil
	case KindU16x2:
		if !f.mono.Valid() {
			return dst, fmt.Errorf("%w: %dx%d image with %d pixels", ErrInvalidLength, f.mono.Width, f.mono.Height, len(f.mono.Pix))
		}
		for _, v := range f.mono.Pix {
			dst = binary.LittleEndian.AppendUint16(dst, v)
		}
		return dst, nil
	default:
		return dst, fmt.Errorf("%w: %s", ErrUnknownKind, f.kind)
	}
}

// DecodeBatch decodes as many whole elements of kind k as b holds and
// reports how many bytes were used. Trailing bytes that do not form a
// whole element are left to the caller.
func DecodeBatch(k Kind, b []byte) (Frame, int, error) {
	if !k.IsBatch() {
		return Frame{}, 0, fmt.Errorf("%w: decode %s", ErrNotBatch, k)
	}
	size := k.ElementSize()
	n := len(b) / size
	used := n * size
	switch k {
	case KindU8:
		return U8Batch(append([]uint8(nil), b[:used]...)), used, nil
	case KindU16:
		out := make([]uint16, n)
		for i := range out {
			out[i] = binary.LittleEndian.Uint16(b[i*2:])
		}
		return U16Batch(out), used, nil
	default:
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(binary.NativeEndian.Uint32(b[i*4:]))
		}
		return F32Batch(out), used, nil
	}
}
