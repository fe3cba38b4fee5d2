// Package rawfile reads and writes headerless raw sample streams.
package rawfile

import (
	"fmt"
	"io"
	"os"

	logs "github.com/danmuck/smplog"
	"github.com/danmuck/vidmod/internal/frame"
	"github.com/danmuck/vidmod/internal/node"
	"github.com/danmuck/vidmod/internal/port"
)

const (
	SourceTypeName = "raw_file_source"
	SinkTypeName   = "raw_file_sink"
)

// Source streams samples of one batch kind out of a file.
type Source struct {
	path     string
	r        io.Reader
	closer   io.Closer
	kind     frame.Kind
	capacity int
	lowWater node.LowWater

	finishing bool
	eof       bool
	warned    bool
	// pending holds the bytes of a partially read element.
	pending []byte

	out *port.Port
}

// NewSource opens params[file] under vidmod.path for reading.
func NewSource(params node.Params) (node.Node, error) {
	path, err := params.File(node.ParamFile)
	if err != nil {
		return nil, err
	}
	kind, err := params.Kind(node.ParamKind)
	if err != nil {
		return nil, err
	}
	if !kind.IsBatch() {
		return nil, fmt.Errorf("%w: raw source kind %s", node.ErrUnimplemented, kind)
	}
	capacity, lw, err := node.StreamSettings(params)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", node.ErrConfig, path, err)
	}
	s := newSource(f, kind, capacity, lw)
	s.path = path
	s.closer = f
	return s, nil
}

func newSource(r io.Reader, kind frame.Kind, capacity int, lw node.LowWater) *Source {
	return &Source{
		r:        r,
		kind:     kind,
		capacity: capacity,
		lowWater: lw,
	}
}

func (s *Source) Init(ports *port.Table) error {
	var err error
	s.out, err = ports.RegisterPull("out", s.kind, s.capacity)
	return err
}

// Tick reads exactly enough bytes to fill the free output space. It reports
// false only when nothing could be read.
func (s *Source) Tick() (bool, error) {
	avail := s.out.Available()
	if !s.lowWater.Ready(avail, s.capacity, s.finishing) {
		return false, nil
	}

	size := s.kind.ElementSize()
	carried := len(s.pending)
	buf := make([]byte, avail*size)
	copy(buf, s.pending)

	n, err := readFull(s.r, buf[carried:])
	if err != nil {
		return false, fmt.Errorf("read %s: %w", s.path, err)
	}
	if n == 0 {
		s.eof = true
		if s.finishing && carried > 0 && !s.warned {
			s.warned = true
			logs.Warnf("rawfile.Source dropped trailing partial element file=%q kind=%s bytes=%d", s.path, s.kind, carried)
		}
		return false, nil
	}

	total := carried + n
	batch, used, err := frame.DecodeBatch(s.kind, buf[:total])
	if err != nil {
		return false, err
	}
	s.pending = append(s.pending[:0], buf[used:total]...)
	if batch.Len() > 0 {
		if err := s.out.Put(batch); err != nil {
			return false, err
		}
	}
	return true, nil
}

// Finish switches to flushing any free space; the source is complete once
// the file is exhausted.
func (s *Source) Finish() bool {
	s.finishing = true
	return s.eof
}

func (s *Source) Drained() bool {
	return s.eof
}

func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}
