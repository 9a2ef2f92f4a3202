package via

import (
	"gonum.org/v1/gonum/floats"

	pcbimage "pcb-viacv/internal/image"
	"pcb-viacv/pkg/geometry"
)

// ExtractFeatures builds the feature vector of the region at anchor.
//
// Every core pixel adds CenterWeight and every rim pixel adds 1 to the bin of
// each of its channels, in blocks [core-R, core-G, core-B, rim-R, rim-G, rim-B].
// Each contribution is smeared over SmearRadius bins on either side, clipped
// to the vector, and the result is L2-normalised.
func ExtractFeatures(raster *pcbimage.Raster, region *Region, anchor geometry.PointInt, params DetectionParams) FeatureVector {
	counts := make([]float64, VectorLength)
	coreW := float64(params.CenterWeight)

	for _, p := range region.pixels {
		r, g, b := raster.RGB(anchor.X+p.dx, anchor.Y+p.dy)
		block, w := blockRim, 1.0
		if p.core {
			block, w = blockCore, coreW
		}
		counts[int(r)+(block+0)*Bins] += w
		counts[int(g)+(block+1)*Bins] += w
		counts[int(b)+(block+2)*Bins] += w
	}

	vec := FeatureVector(smear(counts, params.SmearRadius))
	vec.normalize()
	return vec
}

// smear spreads every bin over radius neighbours on each side. Overlapping
// contributions add up; bins past either end of the vector are dropped.
func smear(counts []float64, radius int) []float64 {
	n := len(counts)
	prefix := make([]float64, n+1)
	for i, c := range counts {
		prefix[i+1] = prefix[i] + c
	}
	out := make([]float64, n)
	for i := range out {
		lo := max(0, i-radius)
		hi := min(n-1, i+radius)
		out[i] = prefix[hi+1] - prefix[lo]
	}
	return out
}

// normalize scales v to unit length. A zero vector is left as is.
func (v FeatureVector) normalize() {
	n := floats.Norm(v, 2)
	if n == 0 {
		return
	}
	floats.Scale(1/n, v)
}

// Norm returns the L2 norm of v.
func (v FeatureVector) Norm() float64 {
	return floats.Norm(v, 2)
}

// IsDegenerate reports whether v carries no signal.
func (v FeatureVector) IsDegenerate() bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// ComputeFeatureVector checks the mask budget at anchor and, if it holds,
// extracts the feature vector. The vector is nil when the budget was reached.
func ComputeFeatureVector(raster *pcbimage.Raster, mask *pcbimage.Mask, region *Region,
	anchor geometry.PointInt, params DetectionParams, budget int) (FeatureVector, RegionSample) {
	s := region.Sample(anchor, mask, budget)
	if s.Exceeded {
		return nil, s
	}
	return ExtractFeatures(raster, region, anchor, params), s
}
