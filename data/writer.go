package data

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
)

// ErrInvalidImage is returned when an image cannot be represented as DATA.
var ErrInvalidImage = errors.New("data: invalid image")

type encoder struct {
	w *bufio.Writer
	m *Image

	tmp [headerSize]byte
}

func (e *encoder) writeHeader() error {
	binary.LittleEndian.PutUint32(e.tmp[0:4], uint32(e.m.Width))
	binary.LittleEndian.PutUint32(e.tmp[4:8], uint32(e.m.Height))
	e.tmp[8] = 0
	if e.m.Alpha {
		e.tmp[8] = 1
	}
	_, err := e.w.Write(e.tmp[:headerSize])
	return err
}

// runLength returns the number of pixels from index i onwards sharing the
// color of pixel i, up to maxRun.
func (e *encoder) runLength(i int, c uint32) int {
	n := len(e.m.Pix)
	count := 1
	for count < maxRun && i+count < n {
		x, y := position(i+count, e.m.Width)
		if e.m.ARGBAt(x, y) != c {
			break
		}
		count++
	}
	return count
}

func (e *encoder) writeRuns() error {
	n := len(e.m.Pix)
	for i := 0; i < n; {
		x, y := position(i, e.m.Width)
		c := e.m.ARGBAt(x, y)
		count := e.runLength(i, c)

		a, r, g, b := unpack(c)

		buf := e.tmp[:0]
		buf = append(buf, byte(count))
		if e.m.Alpha {
			buf = append(buf, a)
			if a != 0 {
				buf = append(buf, b, g, r)
			}
		} else {
			buf = append(buf, b, g, r)
		}
		if _, err := e.w.Write(buf); err != nil {
			return err
		}

		i += count
	}
	return nil
}

func (e *encoder) encode() error {
	if err := e.writeHeader(); err != nil {
		return err
	}
	if err := e.writeRuns(); err != nil {
		return err
	}
	return e.w.Flush()
}

// toImage converts m to an Image with its top-left corner at (0, 0).
func toImage(m image.Image) *Image {
	if dm, ok := m.(*Image); ok {
		return dm
	}

	b := m.Bounds()
	alpha := HasAlpha(m)
	dm := NewImage(b.Dx(), b.Dy(), alpha)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
			if !alpha {
				c.A = 0
			}
			dm.SetARGB(x-b.Min.X, y-b.Min.Y, pack(c.A, c.R, c.G, c.B))
		}
	}
	return dm
}

// Encode writes the Image m to w in DATA format. Whether the stream carries
// an alpha channel is decided by the color model of m, see HasAlpha.
func Encode(w io.Writer, m image.Image) error {
	b := m.Bounds()
	if b.Empty() {
		return fmt.Errorf("%w: no pixels", ErrInvalidImage)
	}
	if b.Dx() > math.MaxInt32 || b.Dy() > math.MaxInt32 {
		return fmt.Errorf("%w: %dx%d exceeds the maximum size", ErrInvalidImage, b.Dx(), b.Dy())
	}

	dm := toImage(m)
	if len(dm.Pix) != dm.Width*dm.Height {
		return fmt.Errorf("%w: %d pixels for %dx%d", ErrInvalidImage, len(dm.Pix), dm.Width, dm.Height)
	}

	e := encoder{
		w: bufio.NewWriter(w),
		m: dm,
	}

	return e.encode()
}
