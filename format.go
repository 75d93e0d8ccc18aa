package celeste

import (
	"image"
	"image/draw"
	"image/png"
	"io"
	"strings"

	"github.com/borogk/celeste/data"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Format is an image format DATA files can be converted to and from.
type Format struct {
	Name      string
	Extension string
	Decode    func(io.Reader) (image.Image, error)
	Encode    func(io.Writer, image.Image) error
}

func (f Format) String() string {
	return strings.ToUpper(f.Name)
}

var (
	// PNG is the format used by the data2png and png2data commands.
	PNG = Format{
		Name:      "png",
		Extension: ".png",
		Decode:    png.Decode,
		Encode:    encodePNG,
	}
	BMP = Format{
		Name:      "bmp",
		Extension: ".bmp",
		Decode:    bmp.Decode,
		Encode: func(w io.Writer, m image.Image) error {
			return bmp.Encode(w, concrete(m))
		},
	}
	TIFF = Format{
		Name:      "tiff",
		Extension: ".tiff",
		Decode:    tiff.Decode,
		Encode: func(w io.Writer, m image.Image) error {
			return tiff.Encode(w, concrete(m), &tiff.Options{Compression: tiff.Deflate})
		},
	}
)

// Formats lists every supported image format.
var Formats = []Format{PNG, BMP, TIFF}

// LookupFormat returns the format with the given name.
func LookupFormat(name string) (Format, bool) {
	for _, f := range Formats {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return Format{}, false
}

func encodePNG(w io.Writer, m image.Image) error {
	e := png.Encoder{CompressionLevel: png.BestCompression}
	return e.Encode(w, m)
}

// concrete copies m into an *image.NRGBA or, without an alpha channel, an
// *image.RGBA. The x/image encoders pick their output layout from these types.
func concrete(m image.Image) image.Image {
	b := m.Bounds()
	if data.HasAlpha(m) {
		if _, ok := m.(*image.NRGBA); ok {
			return m
		}
		// Set rather than draw.Draw to avoid a premultiplied round trip
		dup := image.NewNRGBA(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				dup.Set(x, y, m.At(x, y))
			}
		}
		return dup
	}
	if _, ok := m.(*image.RGBA); ok {
		return m
	}
	dup := image.NewRGBA(b)
	draw.Draw(dup, b, m, b.Min, draw.Src)
	return dup
}
