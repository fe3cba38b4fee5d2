package imagefile

import (
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"

	"github.com/danmuck/vidmod/internal/frame"
	"github.com/danmuck/vidmod/internal/node"
	"github.com/danmuck/vidmod/internal/port"
)

const (
	SourceTypeName = "image_source"
	SinkTypeName   = "image_sink"
)

// Source emits one decoded image per tick until the decoder is exhausted.
type Source struct {
	path      string
	dec       Decoder
	closer    io.Closer
	kind      frame.Kind
	exhausted bool

	out *port.Port
}

// NewSource opens a PNG and probes its format. Anything but 8-bit RGBA is
// rejected here.
func NewSource(params node.Params) (node.Node, error) {
	path, err := params.File(node.ParamFile)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", node.ErrConfig, path, err)
	}
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: read png header %s: %v", node.ErrConfig, path, err)
	}
	kind, err := kindForModel(cfg.ColorModel)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: rewind %s: %v", node.ErrConfig, path, err)
	}
	s := newSource(&pngDecoder{r: f}, kind)
	s.path = path
	s.closer = f
	return s, nil
}

func newSource(dec Decoder, kind frame.Kind) *Source {
	return &Source{dec: dec, kind: kind}
}

func (s *Source) Init(ports *port.Table) error {
	var err error
	s.out, err = ports.RegisterPull("out", s.kind, 1)
	return err
}

func (s *Source) Tick() (bool, error) {
	if s.exhausted || s.out.Available() == 0 {
		return false, nil
	}
	img, err := s.dec.Next()
	if errors.Is(err, io.EOF) {
		s.exhausted = true
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", s.path, err)
	}

	switch s.kind {
	case frame.KindRGBA8x2:
		pixels, err := toRGBA(img)
		if err != nil {
			return false, err
		}
		if err := s.out.PutOne(frame.RGBAImage(pixels)); err != nil {
			return false, err
		}
	default:
		return false, fmt.Errorf("%w: image source kind %s", node.ErrUnimplemented, s.kind)
	}
	return true, nil
}

// Finish is terminal: each tick fully emits or fully defers an image.
func (s *Source) Finish() bool {
	return true
}

func (s *Source) Drained() bool {
	return s.exhausted
}

func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}
