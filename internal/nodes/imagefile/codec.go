// Package imagefile decodes and encodes whole-frame images.
package imagefile

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/danmuck/vidmod/internal/frame"
	"github.com/danmuck/vidmod/internal/node"
)

// Decoder yields images one at a time and returns io.EOF when exhausted.
type Decoder interface {
	Next() (image.Image, error)
}

// Encoder writes one image.
type Encoder interface {
	Encode(w io.Writer, img image.Image) error
}

// pngDecoder serves the single image of a PNG stream.
type pngDecoder struct {
	r    io.Reader
	done bool
}

func (d *pngDecoder) Next() (image.Image, error) {
	if d.done {
		return nil, io.EOF
	}
	d.done = true
	img, err := png.Decode(d.r)
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	return img, nil
}

type jpegEncoder struct {
	quality int
}

func (e jpegEncoder) Encode(w io.Writer, img image.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: e.quality})
}

type pngEncoder struct{}

func (pngEncoder) Encode(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// kindForModel maps a decoded color arrangement to a frame kind. Only
// 8-bit RGBA with alpha is supported.
func kindForModel(m color.Model) (frame.Kind, error) {
	if m == color.NRGBAModel {
		return frame.KindRGBA8x2, nil
	}
	return frame.KindInvalid, fmt.Errorf("%w: image color model %s", node.ErrUnimplemented, modelName(m))
}

func modelName(m color.Model) string {
	switch m {
	case color.RGBAModel:
		return "rgb8"
	case color.RGBA64Model:
		return "rgb16"
	case color.NRGBA64Model:
		return "rgba16"
	case color.GrayModel:
		return "gray8"
	case color.Gray16Model:
		return "gray16"
	}
	if _, ok := m.(color.Palette); ok {
		return "paletted"
	}
	return fmt.Sprintf("%T", m)
}

// toRGBA copies an 8-bit RGBA image channel by channel.
func toRGBA(img image.Image) (frame.Array2[frame.RGBA8], error) {
	src, ok := img.(*image.NRGBA)
	if !ok {
		return frame.Array2[frame.RGBA8]{}, fmt.Errorf("%w: decoded image type %T", node.ErrUnimplemented, img)
	}
	b := src.Bounds()
	out := frame.NewArray2[frame.RGBA8](b.Dx(), b.Dy())
	for y := 0; y < out.Height; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+out.Width*4]
		for x := 0; x < out.Width; x++ {
			px := row[x*4 : x*4+4]
			out.Set(x, y, frame.RGBA8{R: px[0], G: px[1], B: px[2], A: px[3]})
		}
	}
	return out, nil
}

// opaqueRGB copies the color channels into an opaque image. JPEG has no
// alpha, and the encoder would otherwise premultiply by it.
func opaqueRGB(a frame.Array2[frame.RGBA8]) (*image.RGBA, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %dx%d image with %d pixels", frame.ErrInvalidLength, a.Width, a.Height, len(a.Pix))
	}
	img := image.NewRGBA(image.Rect(0, 0, a.Width, a.Height))
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			px := a.At(x, y)
			i := img.PixOffset(x, y)
			img.Pix[i+0] = px.R
			img.Pix[i+1] = px.G
			img.Pix[i+2] = px.B
			img.Pix[i+3] = 0xff
		}
	}
	return img, nil
}

func fromMono16(a frame.Array2[uint16]) (*image.Gray16, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %dx%d image with %d pixels", frame.ErrInvalidLength, a.Width, a.Height, len(a.Pix))
	}
	img := image.NewGray16(image.Rect(0, 0, a.Width, a.Height))
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			img.SetGray16(x, y, color.Gray16{Y: a.At(x, y)})
		}
	}
	return img, nil
}
