package frame

// RGBA8 is one pixel with four 8-bit channels.
type RGBA8 struct {
	R, G, B, A uint8
}

// Array2 is a row-major 2-D array of pixels.
type Array2[T any] struct {
	Width  int
	Height int
	Pix    []T
}

func NewArray2[T any](width, height int) Array2[T] {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return Array2[T]{Width: width, Height: height, Pix: make([]T, width*height)}
}

// Valid reports whether Pix holds exactly Width*Height pixels.
func (a Array2[T]) Valid() bool {
	return a.Width >= 0 && a.Height >= 0 && len(a.Pix) == a.Width*a.Height
}

func (a Array2[T]) At(x, y int) T {
	return a.Pix[y*a.Width+x]
}

func (a Array2[T]) Set(x, y int, v T) {
	a.Pix[y*a.Width+x] = v
}

func (a Array2[T]) Clone() Array2[T] {
	out := Array2[T]{Width: a.Width, Height: a.Height, Pix: make([]T, len(a.Pix))}
	copy(out.Pix, a.Pix)
	return out
}
