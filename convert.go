package celeste

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/borogk/celeste/data"
	"github.com/ericpauley/go-quantize/quantize"
)

var (
	// ErrImageDecode is returned when an image cannot be parsed.
	ErrImageDecode = errors.New("image decode failure")
	// ErrImageEncode is returned when an image cannot be written.
	ErrImageEncode = errors.New("image encode failure")
)

// ConvertFunc reads an image from r and writes it in another format to w,
// returning the parameters of the converted image.
type ConvertFunc func(r io.Reader, w io.Writer) (data.Config, error)

// DataToImage returns a ConvertFunc reading DATA and writing format f.
func (c *Converter) DataToImage(f Format) ConvertFunc {
	return func(r io.Reader, w io.Writer) (data.Config, error) {
		m, err := data.Decode(r)
		if err != nil {
			return data.Config{}, err
		}

		config := m.Config()
		c.logger.Printf("DATA image parameters: %s\n", config)

		var out image.Image = m
		if c.options.Colors > 0 {
			out = reduce(m, c.options.Colors)
		}

		if err := f.Encode(w, out); err != nil {
			return data.Config{}, fmt.Errorf("%w: %s: %w", ErrImageEncode, f, err)
		}

		return config, nil
	}
}

// ImageToData returns a ConvertFunc reading format f and writing DATA.
func (c *Converter) ImageToData(f Format) ConvertFunc {
	return func(r io.Reader, w io.Writer) (data.Config, error) {
		m, err := f.Decode(r)
		if err != nil {
			return data.Config{}, fmt.Errorf("%w: %s: %w", ErrImageDecode, f, err)
		}

		config := data.ConfigOf(m)
		c.logger.Printf("%s image parameters: %s\n", f, config)

		if err := data.Encode(w, m); err != nil {
			return data.Config{}, err
		}

		return config, nil
	}
}

// DataToPNG converts a DATA stream to PNG.
func (c *Converter) DataToPNG(r io.Reader, w io.Writer) error {
	_, err := c.DataToImage(PNG)(r, w)
	return err
}

// PNGToData converts a PNG stream to DATA.
func (c *Converter) PNGToData(r io.Reader, w io.Writer) error {
	_, err := c.ImageToData(PNG)(r, w)
	return err
}

// reduce quantizes m down to a palette of at most n colors.
func reduce(m image.Image, n int) *image.Paletted {
	b := m.Bounds()
	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, n), m))
	draw.Draw(pm, b, m, b.Min, draw.Src)
	return pm
}
