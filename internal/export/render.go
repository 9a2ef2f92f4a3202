package export

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	pcbimage "pcb-viacv/internal/image"
	"pcb-viacv/internal/via"
	"pcb-viacv/pkg/colorutil"
)

// AnnotateOptions configures the detection overlay.
type AnnotateOptions struct {
	Color     color.RGBA // Circle color
	Thickness int        // Outline width in pixels, drawn inwards
}

// DefaultAnnotateOptions returns a one pixel red outline.
func DefaultAnnotateOptions() AnnotateOptions {
	return AnnotateOptions{
		Color:     colorutil.Red,
		Thickness: 1,
	}
}

// Annotate returns a copy of the raster with a circle of the given diameter
// drawn over every via. The circle's bounding box is the via's sampling square.
func Annotate(raster *pcbimage.Raster, vias []via.Via, diameter int, opts AnnotateOptions) *image.RGBA {
	img := raster.Image()
	thickness := max(1, opts.Thickness)
	r := diameter / 2
	for _, v := range vias {
		cx, cy := v.Anchor.X+r, v.Anchor.Y+r
		for w := 0; w < thickness && r-w >= 0; w++ {
			drawCircle(img, cx, cy, r-w, opts.Color)
		}
	}
	return img
}

// RenderScoreMap draws each anchor's score as a gray pixel at the centre of
// its sampling square. Pixels without a score stay black.
func RenderScoreMap(sm *via.ScoreMap, width, height, diameter int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		img.Pix[i*4+3] = 255
	}
	if sm == nil {
		return img
	}
	off := diameter / 2
	for x := 0; x < sm.Width; x++ {
		for y := 0; y < sm.Height; y++ {
			px, py := x+off, y+off
			if px < width && py < height {
				img.SetRGBA(px, py, colorutil.Gray(sm.At(x, y)))
			}
		}
	}
	return img
}

// SavePNG encodes img to path.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

// drawCircle draws a circle outline using Bresenham's algorithm.
func drawCircle(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	bounds := img.Bounds()

	setPixel := func(x, y int) {
		if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
			img.SetRGBA(x, y, c)
		}
	}

	x, y, err := r, 0, 0
	for x >= y {
		setPixel(cx+x, cy+y)
		setPixel(cx+y, cy+x)
		setPixel(cx-y, cy+x)
		setPixel(cx-x, cy+y)
		setPixel(cx-x, cy-y)
		setPixel(cx-y, cy-x)
		setPixel(cx+y, cy-x)
		setPixel(cx+x, cy-y)

		y++
		if err <= 0 {
			err += 2*y + 1
		}
		if err > 0 {
			x--
			err -= 2*x + 1
		}
	}
}
