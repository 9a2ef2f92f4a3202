package image

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRaster_RGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 3))
	src.Set(2, 1, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	r := NewRaster(src)
	assert.Equal(t, 4, r.Width())
	assert.Equal(t, 3, r.Height())

	red, green, blue := r.RGB(2, 1)
	assert.Equal(t, []uint8{10, 20, 30}, []uint8{red, green, blue})

	red, green, blue = r.RGB(99, 99)
	assert.Equal(t, []uint8{0, 0, 0}, []uint8{red, green, blue}, "out of bounds reads black")
}

func TestNewRaster_OffsetBoundsAndGenericPath(t *testing.T) {
	src := image.NewGray(image.Rect(5, 5, 8, 8))
	src.SetGray(6, 7, color.Gray{Y: 200})

	r := NewRaster(src)
	require.Equal(t, 3, r.Width())
	red, green, blue := r.RGB(1, 2)
	assert.Equal(t, []uint8{200, 200, 200}, []uint8{red, green, blue})
}

func TestRaster_ImageRoundTrip(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.Set(1, 1, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	out := NewRaster(src).Image()
	assert.Equal(t, color.RGBA{R: 1, G: 2, B: 3, A: 255}, out.RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{A: 255}, out.RGBAAt(0, 0))
}

func TestNewMask_Threshold(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 1))
	src.Set(0, 0, color.RGBA{R: 128, A: 255})
	src.Set(1, 0, color.RGBA{R: 129, A: 255})
	src.Set(2, 0, color.RGBA{G: 255, B: 255, A: 255})

	m := NewMask(src)
	assert.False(t, m.Forbidden(0, 0), "128 is not above the threshold")
	assert.True(t, m.Forbidden(1, 0))
	assert.False(t, m.Forbidden(2, 0), "only the red channel counts")
	assert.False(t, m.Forbidden(-1, 0))

	var nilMask *Mask
	assert.False(t, nilMask.Forbidden(0, 0))
}

func TestNewMask_IgnoresAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 100})
	src.SetNRGBA(1, 0, color.NRGBA{R: 200, A: 1})
	src.SetNRGBA(2, 0, color.NRGBA{R: 100, A: 100})

	m := NewMask(src)
	assert.True(t, m.Forbidden(0, 0), "semi-transparent red is still forbidden")
	assert.True(t, m.Forbidden(1, 0))
	assert.False(t, m.Forbidden(2, 0))
}

func TestMask_Covers(t *testing.T) {
	r := NewRaster(image.NewRGBA(image.Rect(0, 0, 10, 10)))
	assert.NoError(t, EmptyMask(10, 10).Covers(r))
	assert.NoError(t, EmptyMask(12, 11).Covers(r))
	assert.ErrorIs(t, EmptyMask(9, 10).Covers(r), ErrMaskTooSmall)
}

func TestLoadRasterAndMask(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.png")

	src := image.NewRGBA(image.Rect(0, 0, 5, 5))
	src.Set(3, 4, color.RGBA{R: 255, A: 255})
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, src))
	require.NoError(t, f.Close())

	r, err := LoadRaster(path)
	require.NoError(t, err)
	red, _, _ := r.RGB(3, 4)
	assert.Equal(t, uint8(255), red)

	m, err := LoadMask(path)
	require.NoError(t, err)
	assert.True(t, m.Forbidden(3, 4))

	_, err = LoadRaster(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestIsSupportedFormat(t *testing.T) {
	assert.True(t, IsSupportedFormat("front-300dpi.JPG"))
	assert.True(t, IsSupportedFormat("mask.tif"))
	assert.False(t, IsSupportedFormat("notes.txt"))
}
