package imagefile

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	logs "github.com/danmuck/smplog"
	"github.com/danmuck/vidmod/internal/frame"
	"github.com/danmuck/vidmod/internal/node"
	"github.com/danmuck/vidmod/internal/port"
)

const (
	framePlaceholder   = "{frame}"
	defaultJPEGQuality = 50
)

// Sink encodes each received image into its own file: RGBA8x2 as JPEG,
// U16x2 as 16-bit grayscale PNG.
type Sink struct {
	dir      string
	template string
	kind     frame.Kind
	enc      Encoder
	capacity int

	counter int

	in *port.Port
}

func NewSink(params node.Params) (node.Node, error) {
	dir, err := params.Dir()
	if err != nil {
		return nil, err
	}
	template, err := params.Required(node.ParamTemplate)
	if err != nil {
		return nil, err
	}
	if !strings.Contains(template, framePlaceholder) {
		return nil, fmt.Errorf("%w: parameter %q needs a %s placeholder, got %q", node.ErrConfig, node.ParamTemplate, framePlaceholder, template)
	}
	kind, err := params.Kind(node.ParamKind)
	if err != nil {
		return nil, err
	}
	quality, err := params.Int(node.ParamQuality, defaultJPEGQuality)
	if err != nil {
		return nil, err
	}
	if quality > 100 {
		return nil, fmt.Errorf("%w: parameter %q must be 1-100, got %d", node.ErrConfig, node.ParamQuality, quality)
	}
	capacity, err := params.Int(node.ParamCapacity, 1)
	if err != nil {
		return nil, err
	}
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return nil, fmt.Errorf("%w: output directory %s unavailable", node.ErrConfig, dir)
	}

	var enc Encoder
	switch kind {
	case frame.KindRGBA8x2:
		enc = jpegEncoder{quality: quality}
	case frame.KindU16x2:
		enc = pngEncoder{}
	default:
		return nil, fmt.Errorf("%w: image sink kind %s", node.ErrUnimplemented, kind)
	}
	return &Sink{
		dir:      dir,
		template: template,
		kind:     kind,
		enc:      enc,
		capacity: capacity,
	}, nil
}

// Filename renders template for the given zero-based frame counter.
func Filename(template string, counter int) string {
	return strings.ReplaceAll(template, framePlaceholder, strconv.Itoa(counter))
}

func (s *Sink) Init(ports *port.Table) error {
	var err error
	s.in, err = ports.RegisterPush("in", s.kind, s.capacity)
	return err
}

func (s *Sink) Tick() (bool, error) {
	if s.in.Available() == 0 {
		return false, nil
	}
	f, err := s.in.TakeOne()
	if err != nil {
		return false, err
	}

	var img image.Image
	switch f.Kind() {
	case frame.KindRGBA8x2:
		img, err = opaqueRGB(f.RGBA())
	case frame.KindU16x2:
		img, err = fromMono16(f.Mono16())
	default:
		err = fmt.Errorf("%w: image sink kind %s", node.ErrUnimplemented, f.Kind())
	}
	if err != nil {
		return false, err
	}

	path := filepath.Join(s.dir, Filename(s.template, s.counter))
	if err := s.write(path, img); err != nil {
		return false, err
	}
	logs.Debugf("imagefile.Sink wrote file=%q frame=%d", path, s.counter)
	s.counter++
	return true, nil
}

func (s *Sink) write(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := s.enc.Encode(out, img); err != nil {
		out.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func (s *Sink) Finish() bool {
	return s.in.Available() == 0
}

// Frames is the number of images written so far.
func (s *Sink) Frames() int {
	return s.counter
}
