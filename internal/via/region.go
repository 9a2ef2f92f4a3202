package via

import (
	"math"

	pcbimage "pcb-viacv/internal/image"
	"pcb-viacv/pkg/geometry"
)

// NoBudget disables the forbidden-pixel early exit. Seed profiles are
// extracted with it so that a seed over masked terrain still yields a vector.
const NoBudget = math.MaxInt

// offset is a pixel position relative to the anchor.
type offset struct {
	dx, dy int
	core   bool
}

// Region is the circular sampling layout inscribed in a D×D square: a core
// disc of diameter d and the rim annulus around it. The square's corners
// outside the outer disc are not part of the region.
type Region struct {
	Outer, Inner int
	pixels       []offset // x-major, y-minor
	coreCount    int
}

// NewRegion precomputes the layout for the given outer and inner diameters.
// Distances are measured from integer pixel coordinates to the square's
// centre (x + D/2, y + D/2).
func NewRegion(outer, inner int) *Region {
	r := &Region{Outer: outer, Inner: inner}
	half := float64(outer) / 2
	outerR := float64(outer) / 2
	innerR := float64(inner) / 2

	for dx := 0; dx < outer; dx++ {
		for dy := 0; dy < outer; dy++ {
			d := math.Hypot(float64(dx)-half, float64(dy)-half)
			if d > outerR {
				continue
			}
			core := d <= innerR
			if core {
				r.coreCount++
			}
			r.pixels = append(r.pixels, offset{dx: dx, dy: dy, core: core})
		}
	}
	return r
}

// CoreCount returns the number of pixels in the core disc.
func (r *Region) CoreCount() int { return r.coreCount }

// RimCount returns the number of pixels in the rim annulus.
func (r *Region) RimCount() int { return len(r.pixels) - r.coreCount }

// DiscCount returns the number of pixels in the outer disc.
func (r *Region) DiscCount() int { return len(r.pixels) }

// RegionSample is the mask check of one anchor.
type RegionSample struct {
	Forbidden int  // Forbidden disc pixels seen, capped at the budget
	Exceeded  bool // The budget was reached and sampling stopped
}

// Sample counts forbidden pixels in the outer disc at anchor, stopping as soon
// as the count reaches budget. A budget of NoBudget or less than one never
// stops.
func (r *Region) Sample(anchor geometry.PointInt, mask *pcbimage.Mask, budget int) RegionSample {
	if budget <= 0 {
		budget = NoBudget
	}
	var s RegionSample
	if mask == nil {
		return s
	}
	for _, p := range r.pixels {
		if !mask.Forbidden(anchor.X+p.dx, anchor.Y+p.dy) {
			continue
		}
		s.Forbidden++
		if s.Forbidden >= budget {
			s.Exceeded = true
			return s
		}
	}
	return s
}
