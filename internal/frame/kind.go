package frame

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownKind   = errors.New("frame: unknown kind")
	ErrKindMismatch  = errors.New("frame: kind mismatch")
	ErrNotBatch      = errors.New("frame: kind is not a batch kind")
	ErrInvalidLength = errors.New("frame: invalid length")
)

// Kind is the element type a port carries.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindU8
	KindU16
	KindF32
	KindRGBA8x2
	KindU16x2
)

var kindNames = map[Kind]string{
	KindU8:      "U8",
	KindU16:     "U16",
	KindF32:     "F32",
	KindRGBA8x2: "RGBA8x2",
	KindU16x2:   "U16x2",
}

// Kinds lists every valid kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindU8, KindU16, KindF32, KindRGBA8x2, KindU16x2}
}

// ParseKind maps a kind name from the fixed vocabulary to a Kind.
func ParseKind(raw string) (Kind, error) {
	name := strings.TrimSpace(raw)
	for k, v := range kindNames {
		if v == name {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("%w: %q", ErrUnknownKind, raw)
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// IsBatch reports whether frames of this kind are streamed as element batches.
// Image kinds travel as one whole 2-D value per frame.
func (k Kind) IsBatch() bool {
	switch k {
	case KindU8, KindU16, KindF32:
		return true
	default:
		return false
	}
}

// ElementSize is the encoded byte width of one element (sample or pixel).
func (k Kind) ElementSize() int {
	switch k {
	case KindU8:
		return 1
	case KindU16, KindU16x2:
		return 2
	case KindF32, KindRGBA8x2:
		return 4
	default:
		return 0
	}
}
