/*
Package data implements a decoder and encoder for the run-length encoded DATA
graphics format used by Celeste.

The stream starts with a 9 byte header; the width and height as little-endian
32-bit signed integers followed by a single byte flagging the presence of an
alpha channel. The pixels follow in row-major order as a sequence of runs. Each
run is a count byte in the range 1 to 254 followed by the color of the run,
stored as B, G, R or, when the image has an alpha channel, as A, B, G, R. A
fully transparent color is stored as just the zero A byte.
*/
package data

import (
	"fmt"
	"image"
	"image/color"
)

// Extension is the file extension used for DATA files.
const Extension = ".data"

const (
	headerSize = 9
	maxRun     = 254
	maxPixels  = 1 << 28
)

// Config holds the header of a DATA stream.
type Config struct {
	Width  int
	Height int
	Alpha  bool
}

func (c Config) String() string {
	if c.Alpha {
		return fmt.Sprintf("%dx%d, ARGB", c.Width, c.Height)
	}
	return fmt.Sprintf("%dx%d, RGB", c.Width, c.Height)
}

// Image is an in-memory DATA image. Each pixel is packed as a<<24 | r<<16 |
// g<<8 | b and pixels are stored in row-major order. Images without an alpha
// channel store a as zero but report every pixel as opaque.
type Image struct {
	Pix    []uint32
	Width  int
	Height int
	Alpha  bool
}

// NewImage returns a new Image with the given dimensions.
func NewImage(width, height int, alpha bool) *Image {
	return &Image{
		Pix:    make([]uint32, width*height),
		Width:  width,
		Height: height,
		Alpha:  alpha,
	}
}

// Config returns the header describing m.
func (m *Image) Config() Config {
	return Config{Width: m.Width, Height: m.Height, Alpha: m.Alpha}
}

// ColorModel is always non-premultiplied; whether the alpha channel is
// meaningful is reported by Opaque.
func (m *Image) ColorModel() color.Model {
	return color.NRGBAModel
}

func (m *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

func (m *Image) At(x, y int) color.Color {
	return m.NRGBAAt(x, y)
}

// NRGBAAt returns the color of the pixel at (x, y).
func (m *Image) NRGBAAt(x, y int) color.NRGBA {
	if !(image.Point{x, y}.In(m.Bounds())) {
		return color.NRGBA{}
	}
	a, r, g, b := unpack(m.Pix[y*m.Width+x])
	if !m.Alpha {
		a = 0xff
	}
	return color.NRGBA{R: r, G: g, B: b, A: a}
}

// ARGBAt returns the packed color of the pixel at (x, y).
func (m *Image) ARGBAt(x, y int) uint32 {
	if !(image.Point{x, y}.In(m.Bounds())) {
		return 0
	}
	return m.Pix[y*m.Width+x]
}

// SetARGB sets the packed color of the pixel at (x, y).
func (m *Image) SetARGB(x, y int, c uint32) {
	if !(image.Point{x, y}.In(m.Bounds())) {
		return
	}
	m.Pix[y*m.Width+x] = c
}

// Opaque reports whether the image lacks an alpha channel. Image encoders use
// this to pick between RGB and RGBA output.
func (m *Image) Opaque() bool {
	return !m.Alpha
}

// position maps the linear pixel index of a stream onto image coordinates.
// Both the decoder and encoder walk pixels through this.
func position(i, width int) (x, y int) {
	return i % width, i / width
}

func pack(a, r, g, b byte) uint32 {
	return uint32(b) | uint32(g)<<8 | uint32(r)<<16 | uint32(a)<<24
}

func unpack(c uint32) (a, r, g, b byte) {
	return byte(c >> 24), byte(c >> 16), byte(c >> 8), byte(c)
}

// HasAlpha reports whether the color model of m carries an alpha channel. It
// does not look at the pixels, except for the palette of a paletted image.
func HasAlpha(m image.Image) bool {
	switch m := m.(type) {
	case *Image:
		return m.Alpha
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
		return false
	}

	switch m.ColorModel() {
	case color.NRGBAModel, color.NRGBA64Model, color.AlphaModel, color.Alpha16Model:
		return true
	}
	return false
}

// ConfigOf returns the DATA header that encoding m would produce.
func ConfigOf(m image.Image) Config {
	b := m.Bounds()
	return Config{Width: b.Dx(), Height: b.Dy(), Alpha: HasAlpha(m)}
}
