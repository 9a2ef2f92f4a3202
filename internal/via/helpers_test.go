package via

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	pcbimage "pcb-viacv/internal/image"
	"pcb-viacv/pkg/geometry"
)

// Colours chosen so that their smeared histogram bins never overlap.
var (
	boardColor = color.RGBA{R: 90, G: 160, B: 60, A: 255}
	ringColor  = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	holeColor  = color.RGBA{R: 20, G: 20, B: 20, A: 255}
)

// boardAnchors are where newBoard paints vias (28px copper, 18px hole).
var boardAnchors = []geometry.PointInt{
	geometry.Pt(10, 10), geometry.Pt(70, 10), geometry.Pt(130, 10),
	geometry.Pt(10, 70), geometry.Pt(70, 70), geometry.Pt(130, 70),
}

func uniformImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		copy(img.Pix[i*4:], []uint8{c.R, c.G, c.B, c.A})
	}
	return img
}

// paintVia draws a via using the same pixel classification as Region.
func paintVia(img *image.RGBA, anchor geometry.PointInt, outer, inner int) {
	half := float64(outer) / 2
	for dx := 0; dx < outer; dx++ {
		for dy := 0; dy < outer; dy++ {
			d := math.Hypot(float64(dx)-half, float64(dy)-half)
			switch {
			case d <= float64(inner)/2:
				img.SetRGBA(anchor.X+dx, anchor.Y+dy, holeColor)
			case d <= half:
				img.SetRGBA(anchor.X+dx, anchor.Y+dy, ringColor)
			}
		}
	}
}

// newBoard returns a 200x120 board with a via at every boardAnchors entry.
func newBoard() *pcbimage.Raster {
	img := uniformImage(200, 120, boardColor)
	for _, a := range boardAnchors {
		paintVia(img, a, 28, 18)
	}
	return pcbimage.NewRaster(img)
}

// unitVector returns a FeatureVector whose first two components are
// (a, sqrt(1-a²)), so its similarity to e0 is a.
func unitVector(a float64) FeatureVector {
	v := make(FeatureVector, VectorLength)
	v[0] = a
	v[1] = math.Sqrt(1 - a*a)
	return v
}

func anchorsOf(vias []Via) []geometry.PointInt {
	out := make([]geometry.PointInt, len(vias))
	for i, v := range vias {
		out[i] = v.Anchor
	}
	return out
}

// assertNearAnchors checks that got has one anchor within tol of each wanted
// anchor and nothing else.
func assertNearAnchors(t *testing.T, want, got []geometry.PointInt, tol int) {
	t.Helper()
	if !assert.Len(t, got, len(want)) {
		return
	}
	for _, w := range want {
		assert.True(t, geometry.ConflictsAny(w, got, tol), "no detection near %s in %v", w, got)
	}
}
