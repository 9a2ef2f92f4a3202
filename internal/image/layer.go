// Package image provides image loading and the read-only raster types the
// detector samples from.
package image

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// MaskThreshold is the red-channel level above which a mask pixel is forbidden.
const MaskThreshold = 128

// ErrMaskTooSmall is returned when the tabu mask does not cover the whole image.
var ErrMaskTooSmall = errors.New("mask smaller than image")

// Raster is a packed 8-bit RGB copy of a decoded image, indexed from (0, 0).
// It is never modified after construction.
type Raster struct {
	width, height int
	pix           []uint8 // 3 bytes per pixel, row-major
}

// NewRaster converts any image.Image into a Raster.
func NewRaster(src image.Image) *Raster {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	r := &Raster{width: w, height: h, pix: make([]uint8, w*h*3)}

	// Fast path for the common decoder outputs.
	switch s := src.(type) {
	case *image.RGBA:
		for y := 0; y < h; y++ {
			row := s.Pix[y*s.Stride:]
			for x := 0; x < w; x++ {
				off := (y*w + x) * 3
				copy(r.pix[off:off+3], row[x*4:x*4+3])
			}
		}
		return r
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			row := s.Pix[y*s.Stride:]
			for x := 0; x < w; x++ {
				off := (y*w + x) * 3
				copy(r.pix[off:off+3], row[x*4:x*4+3])
			}
		}
		return r
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBAModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.RGBA)
			off := (y*w + x) * 3
			r.pix[off] = c.R
			r.pix[off+1] = c.G
			r.pix[off+2] = c.B
		}
	}
	return r
}

// Width returns the raster width in pixels.
func (r *Raster) Width() int { return r.width }

// Height returns the raster height in pixels.
func (r *Raster) Height() int { return r.height }

// RGB returns the channels at (x, y). Out-of-bounds coordinates read as black.
func (r *Raster) RGB(x, y int) (uint8, uint8, uint8) {
	if x < 0 || y < 0 || x >= r.width || y >= r.height {
		return 0, 0, 0
	}
	off := (y*r.width + x) * 3
	return r.pix[off], r.pix[off+1], r.pix[off+2]
}

// Image returns an RGBA copy suitable for drawing and encoding.
func (r *Raster) Image() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	for i := 0; i < r.width*r.height; i++ {
		copy(out.Pix[i*4:i*4+3], r.pix[i*3:i*3+3])
		out.Pix[i*4+3] = 255
	}
	return out
}

// Mask marks forbidden ("tabu") territory, such as through-hole drill
// positions, that a via sample may only overlap up to a budget.
type Mask struct {
	width, height int
	forbidden     []bool
}

// NewMask builds a Mask from a decoded mask image. A pixel is forbidden when
// its red channel, read without alpha premultiplication, exceeds MaskThreshold.
func NewMask(src image.Image) *Mask {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	m := &Mask{width: w, height: h, forbidden: make([]bool, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			m.forbidden[y*w+x] = c.R > MaskThreshold
		}
	}
	return m
}

// EmptyMask returns a mask of the given size with nothing forbidden.
func EmptyMask(width, height int) *Mask {
	return &Mask{width: width, height: height, forbidden: make([]bool, width*height)}
}

// Forbidden reports whether (x, y) is tabu. Pixels outside the mask are not.
// A nil mask forbids nothing.
func (m *Mask) Forbidden(x, y int) bool {
	if m == nil || x < 0 || y < 0 || x >= m.width || y >= m.height {
		return false
	}
	return m.forbidden[y*m.width+x]
}

// Set marks or clears a single pixel.
func (m *Mask) Set(x, y int, forbidden bool) {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return
	}
	m.forbidden[y*m.width+x] = forbidden
}

// Covers returns ErrMaskTooSmall unless the mask spans at least the raster.
func (m *Mask) Covers(r *Raster) error {
	if m.width < r.width || m.height < r.height {
		return fmt.Errorf("%w: mask %dx%d, image %dx%d",
			ErrMaskTooSmall, m.width, m.height, r.width, r.height)
	}
	return nil
}

// Decode loads and decodes an image file.
func Decode(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

// LoadRaster decodes the PCB scan at path.
func LoadRaster(path string) (*Raster, error) {
	img, err := Decode(path)
	if err != nil {
		return nil, err
	}
	return NewRaster(img), nil
}

// LoadMask decodes the tabu mask at path.
func LoadMask(path string) (*Mask, error) {
	img, err := Decode(path)
	if err != nil {
		return nil, err
	}
	return NewMask(img), nil
}

// SupportedFormats returns the list of supported image formats.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg", ".bmp"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
