package rawfile

import (
	"fmt"
	"io"
	"os"

	"github.com/danmuck/vidmod/internal/frame"
	"github.com/danmuck/vidmod/internal/node"
	"github.com/danmuck/vidmod/internal/port"
)

// Sink serializes every frame it receives into a file with the same layout
// Source reads.
type Sink struct {
	path     string
	w        io.Writer
	closer   io.Closer
	kind     frame.Kind
	capacity int
	lowWater node.LowWater

	finishing bool
	buf       []byte

	in *port.Port
}

// NewSink creates or truncates params[file] under vidmod.path.
func NewSink(params node.Params) (node.Node, error) {
	path, err := params.File(node.ParamFile)
	if err != nil {
		return nil, err
	}
	kind, err := params.Kind(node.ParamKind)
	if err != nil {
		return nil, err
	}
	capacity, lw, err := node.StreamSettings(params)
	if err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", node.ErrConfig, path, err)
	}
	s := newSink(f, kind, capacity, lw)
	s.path = path
	s.closer = f
	return s, nil
}

func newSink(w io.Writer, kind frame.Kind, capacity int, lw node.LowWater) *Sink {
	return &Sink{
		w:        w,
		kind:     kind,
		capacity: capacity,
		lowWater: lw,
	}
}

func (s *Sink) Init(ports *port.Table) error {
	var err error
	s.in, err = ports.RegisterPush("in", s.kind, s.capacity)
	return err
}

// Tick writes everything buffered once past the low-water mark, or any
// remainder while finishing.
func (s *Sink) Tick() (bool, error) {
	avail := s.in.Available()
	if !s.lowWater.Ready(avail, s.capacity, s.finishing) {
		return false, nil
	}

	s.buf = s.buf[:0]
	if s.kind.IsBatch() {
		batch, err := s.in.Take(avail)
		if err != nil {
			return false, err
		}
		if s.buf, err = frame.AppendBytes(s.buf, batch); err != nil {
			return false, err
		}
	} else {
		for range avail {
			img, err := s.in.TakeOne()
			if err != nil {
				return false, err
			}
			if s.buf, err = frame.AppendBytes(s.buf, img); err != nil {
				return false, err
			}
		}
	}

	if err := writeAll(s.w, s.buf); err != nil {
		return false, fmt.Errorf("write %s: %w", s.path, err)
	}
	return true, nil
}

func (s *Sink) Finish() bool {
	s.finishing = true
	return s.in.Available() == 0
}

func (s *Sink) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}
