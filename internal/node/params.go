package node

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/danmuck/vidmod/internal/frame"
)

const (
	// ParamPath is the base directory joined to relative file references.
	ParamPath = "vidmod.path"

	ParamFile     = "file"
	ParamKind     = "kind"
	ParamFrom     = "from"
	ParamTo       = "to"
	ParamTemplate = "template"
	ParamCapacity = "capacity"
	ParamLowWater = "low_water"
	ParamQuality  = "quality"
	ParamValue    = "value"
)

// Params is the string-keyed construction mapping a node is built from.
type Params map[string]string

// Clone returns an independent copy.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func (p Params) Required(key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", fmt.Errorf("%w: missing parameter %q", ErrConfig, key)
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("%w: empty parameter %q", ErrConfig, key)
	}
	return v, nil
}

// Kind parses key as a frame kind name.
func (p Params) Kind(key string) (frame.Kind, error) {
	raw, err := p.Required(key)
	if err != nil {
		return frame.KindInvalid, err
	}
	k, err := frame.ParseKind(raw)
	if err != nil {
		return frame.KindInvalid, fmt.Errorf("%w: parameter %q: %v", ErrConfig, key, err)
	}
	return k, nil
}

// File resolves key against vidmod.path. Absolute names are kept as is.
func (p Params) File(key string) (string, error) {
	name, err := p.Required(key)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(name) {
		return name, nil
	}
	base, err := p.Required(ParamPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, name), nil
}

// Dir returns vidmod.path.
func (p Params) Dir() (string, error) {
	return p.Required(ParamPath)
}

// Int reads an optional positive integer.
func (p Params) Int(key string, def int) (int, error) {
	raw, ok := p[key]
	if !ok || strings.TrimSpace(raw) == "" {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: parameter %q must be a positive integer, got %q", ErrConfig, key, raw)
	}
	return v, nil
}

// Fraction reads an optional value in [0, 1).
func (p Params) Fraction(key string, def float64) (float64, error) {
	raw, ok := p[key]
	if !ok || strings.TrimSpace(raw) == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < 0 || v >= 1 {
		return 0, fmt.Errorf("%w: parameter %q must be in [0,1), got %q", ErrConfig, key, raw)
	}
	return v, nil
}
