package data

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, m image.Image) []byte {
	t.Helper()
	b := new(bytes.Buffer)
	require.NoError(t, Encode(b, m))
	return b.Bytes()
}

func TestEncode(t *testing.T) {
	tables := map[string]struct {
		in   image.Image
		want []byte
	}{
		"opaque red": {
			&Image{Pix: []uint32{0x00ff0000}, Width: 1, Height: 1},
			stream(1, 1, 0, 1, 0x00, 0x00, 0xff),
		},
		"white with alpha": {
			&Image{Pix: []uint32{0xffffffff, 0xffffffff}, Width: 2, Height: 1, Alpha: true},
			stream(2, 1, 1, 2, 0xff, 0xff, 0xff, 0xff),
		},
		"transparent then black": {
			&Image{Pix: []uint32{0x00000000, 0xff000000}, Width: 2, Height: 1, Alpha: true},
			stream(2, 1, 1, 1, 0x00, 1, 0xff, 0x00, 0x00, 0x00),
		},
		"runs span rows": {
			&Image{Pix: []uint32{1, 1, 1, 2}, Width: 2, Height: 2},
			stream(2, 2, 0, 3, 1, 0, 0, 1, 2, 0, 0),
		},
		"rgba": {
			func() image.Image {
				m := image.NewRGBA(image.Rect(0, 0, 1, 1))
				m.Set(0, 0, color.RGBA{0xff, 0x00, 0x00, 0xff})
				return m
			}(),
			stream(1, 1, 0, 1, 0x00, 0x00, 0xff),
		},
		"nrgba": {
			func() image.Image {
				m := image.NewNRGBA(image.Rect(0, 0, 2, 1))
				m.Set(0, 0, color.NRGBA{0x12, 0x34, 0x56, 0x00})
				m.Set(1, 0, color.NRGBA{0x00, 0x00, 0x00, 0xff})
				return m
			}(),
			stream(2, 1, 1, 1, 0x00, 1, 0xff, 0x00, 0x00, 0x00),
		},
		"offset bounds": {
			func() image.Image {
				m := image.NewGray(image.Rect(5, 5, 7, 6))
				m.SetGray(5, 5, color.Gray{0x10})
				m.SetGray(6, 5, color.Gray{0x20})
				return m
			}(),
			stream(2, 1, 0, 1, 0x10, 0x10, 0x10, 1, 0x20, 0x20, 0x20),
		},
	}

	for name, table := range tables {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, table.want, encode(t, table.in))
		})
	}
}

func TestEncodeRunLengthBounds(t *testing.T) {
	m := NewImage(300, 2, false)
	for i := range m.Pix {
		m.Pix[i] = 0x00abcdef
	}

	b := encode(t, m)

	var counts []int
	for i := headerSize; i < len(b); i += 4 {
		counts = append(counts, int(b[i]))
	}
	assert.Equal(t, []int{254, 254, 92}, counts)

	for _, count := range counts {
		assert.GreaterOrEqual(t, count, 1)
		assert.LessOrEqual(t, count, maxRun)
	}
}

func TestEncodeErrors(t *testing.T) {
	err := Encode(new(bytes.Buffer), image.NewRGBA(image.Rect(0, 0, 0, 4)))
	assert.ErrorIs(t, err, ErrInvalidImage)

	err = Encode(new(bytes.Buffer), &Image{Pix: []uint32{1}, Width: 2, Height: 2})
	assert.ErrorIs(t, err, ErrInvalidImage)

	err = Encode(failingWriter{}, NewImage(1, 1, false))
	assert.ErrorIs(t, err, errWrite)
}

var errWrite = errors.New("write failed")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errWrite
}

// randomStream returns a valid stream using arbitrary, possibly non-maximal,
// runs and transparent pixels carrying no color.
func randomStream(rnd *rand.Rand) []byte {
	width, height := int32(rnd.Intn(40)+1), int32(rnd.Intn(40)+1)
	alpha := rnd.Intn(2) == 1

	var flag byte
	if alpha {
		flag = 1
	}
	b := header(width, height, flag)

	palette := make([][4]byte, rnd.Intn(4)+1)
	for i := range palette {
		rnd.Read(palette[i][:])
		if rnd.Intn(3) == 0 {
			palette[i][0] = 0
		}
	}

	for n := int(width * height); n > 0; {
		count := rnd.Intn(maxRun) + 1
		if count > n {
			count = n
		}
		c := palette[rnd.Intn(len(palette))]
		b = append(b, byte(count))
		if alpha {
			b = append(b, c[0])
			if c[0] != 0 {
				b = append(b, c[1:]...)
			}
		} else {
			b = append(b, c[1:]...)
		}
		n -= count
	}
	return b
}

func TestRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))

	for i := 0; i < 200; i++ {
		in := randomStream(rnd)

		first, err := Decode(bytes.NewReader(in))
		require.NoError(t, err)

		canonical := encode(t, first)

		second, err := Decode(bytes.NewReader(canonical))
		require.NoError(t, err)
		assert.Equal(t, first, second)

		// Encoding is stable once canonical
		assert.Equal(t, canonical, encode(t, second))
	}
}
