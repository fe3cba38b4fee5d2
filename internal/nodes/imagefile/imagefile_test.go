package imagefile

import (
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/vidmod/internal/frame"
	"github.com/danmuck/vidmod/internal/node"
	"github.com/danmuck/vidmod/internal/port"
	"github.com/danmuck/vidmod/internal/testutil/testlog"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
}

func initInstance(t *testing.T, typ string, n node.Node) *node.Instance {
	t.Helper()
	inst := node.NewInstance(typ, typ, n)
	if err := inst.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	return inst
}

func mustPort(t *testing.T, inst *node.Instance, name string, dir port.Direction) *port.Port {
	t.Helper()
	p, err := inst.Ports().Lookup(name, dir)
	if err != nil {
		t.Fatalf("lookup %s: %v", name, err)
	}
	return p
}

func TestSourceEmitsOneImage(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 4})
	img.SetNRGBA(2, 1, color.NRGBA{R: 250, G: 251, B: 252, A: 128})
	writePNG(t, filepath.Join(dir, "in.png"), img)

	n, err := NewSource(node.Params{node.ParamPath: dir, "file": "in.png"})
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	defer n.(*Source).Close()
	inst := initInstance(t, SourceTypeName, n)
	out := mustPort(t, inst, "out", port.Pull)
	if out.Kind() != frame.KindRGBA8x2 {
		t.Fatalf("expected rgba8x2 output, got %s", out.Kind())
	}

	if progress, err := inst.Tick(); err != nil || !progress {
		t.Fatalf("first tick progress=%v err=%v", progress, err)
	}
	got, err := out.Pull(1)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	pix := got.RGBA()
	if pix.Width != 3 || pix.Height != 2 {
		t.Fatalf("unexpected dims %dx%d", pix.Width, pix.Height)
	}
	if pix.At(0, 0) != (frame.RGBA8{R: 1, G: 2, B: 3, A: 4}) {
		t.Fatalf("unexpected pixel (0,0): %+v", pix.At(0, 0))
	}
	if pix.At(2, 1) != (frame.RGBA8{R: 250, G: 251, B: 252, A: 128}) {
		t.Fatalf("unexpected pixel (2,1): %+v", pix.At(2, 1))
	}
	if pix.At(1, 0) != (frame.RGBA8{}) {
		t.Fatalf("expected zero pixel, got %+v", pix.At(1, 0))
	}

	for i := 0; i < 3; i++ {
		if progress, err := inst.Tick(); err != nil || progress {
			t.Fatalf("tick after image progress=%v err=%v", progress, err)
		}
	}
	if out.Len() != 0 {
		t.Fatalf("expected no second image")
	}
}

func TestSourceWaitsForFreeOutput(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "in.png"), image.NewNRGBA(image.Rect(0, 0, 1, 1)))
	n, err := NewSource(node.Params{node.ParamPath: dir, "file": "in.png"})
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	defer n.(*Source).Close()
	src := n.(*Source)

	inst := initInstance(t, SourceTypeName, n)
	out := mustPort(t, inst, "out", port.Pull)
	if err := out.PutOne(frame.RGBAImage(frame.NewArray2[frame.RGBA8](1, 1))); err != nil {
		t.Fatalf("prefill: %v", err)
	}
	if progress, _ := inst.Tick(); progress {
		t.Fatalf("expected no progress on a full port")
	}
	if src.Drained() {
		t.Fatalf("decoder must not be consumed while output is full")
	}
}

func TestSourceFinishIsTerminal(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "in.png"), image.NewNRGBA(image.Rect(0, 0, 1, 1)))
	n, err := NewSource(node.Params{node.ParamPath: dir, "file": "in.png"})
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	defer n.(*Source).Close()
	inst := initInstance(t, SourceTypeName, n)
	done, err := inst.Finish()
	if err != nil || !done || !inst.Done() {
		t.Fatalf("expected terminal finish, done=%v err=%v", done, err)
	}
}

func TestSourceRejectsUnsupportedFormats(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "gray.png"), image.NewGray16(image.Rect(0, 0, 2, 2)))
	opaque := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := 3; i < len(opaque.Pix); i += 4 {
		opaque.Pix[i] = 0xff
	}
	writePNG(t, filepath.Join(dir, "rgb.png"), opaque)
	if err := os.WriteFile(filepath.Join(dir, "junk.png"), []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write junk: %v", err)
	}

	cases := []struct {
		file string
		want error
	}{
		{file: "gray.png", want: node.ErrUnimplemented},
		{file: "junk.png", want: node.ErrConfig},
		{file: "missing.png", want: node.ErrConfig},
	}
	for _, tc := range cases {
		_, err := NewSource(node.Params{node.ParamPath: dir, "file": tc.file})
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.file, tc.want, err)
		}
	}

	// Opaque images are stored as 8-bit RGB without alpha.
	if _, err := NewSource(node.Params{node.ParamPath: dir, "file": "rgb.png"}); !errors.Is(err, node.ErrUnimplemented) {
		t.Fatalf("rgb without alpha: expected unimplemented, got %v", err)
	}
	if _, err := NewSource(node.Params{node.ParamPath: dir}); !errors.Is(err, node.ErrConfig) {
		t.Fatalf("missing file param: expected config error, got %v", err)
	}
}

func TestFilename(t *testing.T) {
	if got := Filename("frame_{frame}.jpg", 0); got != "frame_0.jpg" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := Filename("{frame}/{frame}.png", 12); got != "12/12.png" {
		t.Fatalf("unexpected name %q", got)
	}
}

func TestSinkWritesGray16PNGs(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	n, err := NewSink(node.Params{node.ParamPath: dir, "kind": "U16x2", "template": "mono_{frame}.png"})
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	inst := initInstance(t, SinkTypeName, n)
	in := mustPort(t, inst, "in", port.Push)

	for i := 0; i < 2; i++ {
		pix := frame.NewArray2[uint16](2, 2)
		pix.Set(1, 0, uint16(1000*(i+1)))
		pix.Set(0, 1, 65535)
		if err := in.Push(frame.Mono16Image(pix)); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
		if progress, err := inst.Tick(); err != nil || !progress {
			t.Fatalf("tick %d progress=%v err=%v", i, progress, err)
		}
	}
	if got := n.(*Sink).Frames(); got != 2 {
		t.Fatalf("expected 2 frames written, got %d", got)
	}

	for i, name := range []string{"mono_0.png", "mono_1.png"} {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("decode %s: %v", name, err)
		}
		gray, ok := img.(*image.Gray16)
		if !ok {
			t.Fatalf("%s: expected 16-bit gray, got %T", name, img)
		}
		if v := gray.Gray16At(1, 0).Y; v != uint16(1000*(i+1)) {
			t.Fatalf("%s: unexpected pixel %d", name, v)
		}
		if v := gray.Gray16At(0, 1).Y; v != 65535 {
			t.Fatalf("%s: unexpected pixel %d", name, v)
		}
	}
}

func TestSinkWritesJPEG(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	n, err := NewSink(node.Params{node.ParamPath: dir, "kind": "RGBA8x2", "template": "f{frame}.jpg", "quality": "90"})
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	inst := initInstance(t, SinkTypeName, n)
	in := mustPort(t, inst, "in", port.Push)

	pix := frame.NewArray2[frame.RGBA8](16, 8)
	for i := range pix.Pix {
		pix.Pix[i] = frame.RGBA8{R: 200, G: 40, B: 10, A: 255}
	}
	if err := in.Push(frame.RGBAImage(pix)); err != nil {
		t.Fatalf("push: %v", err)
	}
	if progress, err := inst.Tick(); err != nil || !progress {
		t.Fatalf("tick progress=%v err=%v", progress, err)
	}
	if progress, _ := inst.Tick(); progress {
		t.Fatalf("expected idle tick on empty input")
	}

	f, err := os.Open(filepath.Join(dir, "f0.jpg"))
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	img, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
		t.Fatalf("unexpected bounds %v", b)
	}
	r, _, _, _ := img.At(4, 4).RGBA()
	if r>>8 < 180 {
		t.Fatalf("expected red channel near 200, got %d", r>>8)
	}

	done, err := inst.Finish()
	if err != nil || !done {
		t.Fatalf("expected finish on empty input, done=%v err=%v", done, err)
	}
}

func TestSinkFinishWaitsForQueuedImage(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	n, err := NewSink(node.Params{node.ParamPath: dir, "kind": "U16x2", "template": "{frame}.png"})
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	inst := initInstance(t, SinkTypeName, n)
	in := mustPort(t, inst, "in", port.Push)
	if err := in.Push(frame.Mono16Image(frame.NewArray2[uint16](1, 1))); err != nil {
		t.Fatalf("push: %v", err)
	}
	if done, _ := inst.Finish(); done {
		t.Fatalf("finish must wait for the queued image")
	}
	if progress, _ := inst.Tick(); !progress {
		t.Fatalf("expected the queued image to be written")
	}
	if progress, _ := inst.Tick(); progress || !inst.Done() {
		t.Fatalf("expected done after drain, state=%s", inst.State())
	}
	if _, err := os.Stat(filepath.Join(dir, "0.png")); err != nil {
		t.Fatalf("expected output file: %v", err)
	}
}

func TestSinkRejectsBadParams(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name   string
		params node.Params
		want   error
	}{
		{name: "scalar kind", params: node.Params{node.ParamPath: dir, "kind": "U8", "template": "{frame}.raw"}, want: node.ErrUnimplemented},
		{name: "no placeholder", params: node.Params{node.ParamPath: dir, "kind": "U16x2", "template": "out.png"}, want: node.ErrConfig},
		{name: "missing template", params: node.Params{node.ParamPath: dir, "kind": "U16x2"}, want: node.ErrConfig},
		{name: "bad quality", params: node.Params{node.ParamPath: dir, "kind": "RGBA8x2", "template": "{frame}.jpg", "quality": "101"}, want: node.ErrConfig},
		{name: "missing dir", params: node.Params{node.ParamPath: filepath.Join(dir, "nope"), "kind": "U16x2", "template": "{frame}.png"}, want: node.ErrConfig},
	}
	for _, tc := range cases {
		if _, err := NewSink(tc.params); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestSinkJPEGIgnoresAlpha(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	n, err := NewSink(node.Params{node.ParamPath: dir, "kind": "RGBA8x2", "template": "a{frame}.jpg"})
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	inst := initInstance(t, SinkTypeName, n)
	in := mustPort(t, inst, "in", port.Push)

	fills := []frame.RGBA8{
		{R: 255, G: 0, B: 0, A: 0},
		{R: 0, G: 0, B: 200, A: 100},
	}
	for i, fill := range fills {
		pix := frame.NewArray2[frame.RGBA8](16, 16)
		for j := range pix.Pix {
			pix.Pix[j] = fill
		}
		if err := in.Push(frame.RGBAImage(pix)); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
		if progress, err := inst.Tick(); err != nil || !progress {
			t.Fatalf("tick %d progress=%v err=%v", i, progress, err)
		}
	}

	for i, fill := range fills {
		f, err := os.Open(filepath.Join(dir, Filename("a{frame}.jpg", i)))
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		img, err := jpeg.Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("decode %d: %v", i, err)
		}
		r, g, b, _ := img.At(8, 8).RGBA()
		got := [3]int{int(r >> 8), int(g >> 8), int(b >> 8)}
		want := [3]int{int(fill.R), int(fill.G), int(fill.B)}
		for c := range got {
			if d := got[c] - want[c]; d > 16 || d < -16 {
				t.Fatalf("frame %d: decoded %v, want color channels near %v (alpha %d)", i, got, want, fill.A)
			}
		}
	}
}

func TestOpaqueRGBKeepsChannels(t *testing.T) {
	pix := frame.NewArray2[frame.RGBA8](2, 1)
	pix.Set(0, 0, frame.RGBA8{R: 10, G: 20, B: 30, A: 0})
	pix.Set(1, 0, frame.RGBA8{R: 200, G: 100, B: 50, A: 128})
	img, err := opaqueRGB(pix)
	if err != nil {
		t.Fatalf("opaque: %v", err)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Fatalf("unexpected pixel %+v", got)
	}
	if got := img.RGBAAt(1, 0); got != (color.RGBA{R: 200, G: 100, B: 50, A: 255}) {
		t.Fatalf("unexpected pixel %+v", got)
	}
	if _, err := opaqueRGB(frame.Array2[frame.RGBA8]{Width: 2, Height: 2}); !errors.Is(err, frame.ErrInvalidLength) {
		t.Fatalf("expected invalid length, got %v", err)
	}
}
