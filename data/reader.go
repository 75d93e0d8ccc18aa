package data

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrMalformed is returned when a stream violates the DATA format.
var ErrMalformed = errors.New("data: malformed stream")

var (
	errBadSize  = fmt.Errorf("%w: invalid dimensions", ErrMalformed)
	errTooLarge = fmt.Errorf("%w: image too large", ErrMalformed)
)

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

type decoder struct {
	r io.Reader

	config Config
	image  *Image

	tmp [headerSize]byte
}

func (d *decoder) readHeader() error {
	if err := readFull(d.r, d.tmp[:headerSize]); err != nil {
		return err
	}

	width := int32(binary.LittleEndian.Uint32(d.tmp[0:4]))
	height := int32(binary.LittleEndian.Uint32(d.tmp[4:8]))
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w %dx%d", errBadSize, width, height)
	}
	if int64(width)*int64(height) > maxPixels {
		return fmt.Errorf("%w %dx%d", errTooLarge, width, height)
	}

	d.config = Config{
		Width:  int(width),
		Height: int(height),
		// Any non-zero byte counts as true
		Alpha: d.tmp[8] != 0,
	}
	return nil
}

func (d *decoder) readColor() (uint32, error) {
	var a byte
	if d.config.Alpha {
		if err := readFull(d.r, d.tmp[:1]); err != nil {
			return 0, err
		}
		a = d.tmp[0]
		// Fully transparent pixels carry no color
		if a == 0 {
			return 0, nil
		}
	}
	if err := readFull(d.r, d.tmp[:3]); err != nil {
		return 0, err
	}
	return pack(a, d.tmp[2], d.tmp[1], d.tmp[0]), nil
}

func (d *decoder) readRuns() error {
	n := d.config.Width * d.config.Height
	for i := 0; i < n; {
		if err := readFull(d.r, d.tmp[:1]); err != nil {
			return err
		}
		count := int(d.tmp[0])
		if count == 0 {
			return fmt.Errorf("%w: zero run length at pixel %d", ErrMalformed, i)
		}

		c, err := d.readColor()
		if err != nil {
			return err
		}

		// A run overshooting the last pixel is truncated
		for end := min(i+count, n); i < end; i++ {
			x, y := position(i, d.config.Width)
			d.image.SetARGB(x, y, c)
		}
	}
	return nil
}

func (d *decoder) decode(r io.Reader, configOnly bool) error {
	// Only the header is needed for the config so don't read ahead
	if configOnly {
		d.r = r
	} else {
		d.r = bufio.NewReader(r)
	}

	if err := d.readHeader(); err != nil {
		return err
	}

	if configOnly {
		return nil
	}

	d.image = NewImage(d.config.Width, d.config.Height, d.config.Alpha)

	return d.readRuns()
}

// Decode reads a DATA image from r. The whole image is read before it is
// returned.
func Decode(r io.Reader) (*Image, error) {
	var d decoder
	if err := d.decode(r, false); err != nil {
		return nil, err
	}
	return d.image, nil
}

// DecodeConfig returns the dimensions and alpha flag of a DATA image without
// decoding the pixels.
func DecodeConfig(r io.Reader) (Config, error) {
	var d decoder
	if err := d.decode(r, true); err != nil {
		return Config{}, err
	}
	return d.config, nil
}
