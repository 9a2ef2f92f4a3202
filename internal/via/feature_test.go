package via

import (
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pcbimage "pcb-viacv/internal/image"
	"pcb-viacv/pkg/geometry"
)

// naiveSmear adds w to every bin within radius of pos, one pixel at a time.
func naiveSmear(vec []float64, pos int, w float64, radius int) {
	from := max(0, pos-radius)
	to := min(len(vec)-1, pos+radius)
	for i := from; i <= to; i++ {
		vec[i] += w
	}
}

func TestExtractFeatures_UniformGray(t *testing.T) {
	raster := pcbimage.NewRaster(uniformImage(40, 40, color.RGBA{R: 128, G: 128, B: 128, A: 255}))
	params := DefaultParams()
	region := NewRegion(28, 18)

	vec := ExtractFeatures(raster, region, geometry.Pt(3, 4), params)
	require.Len(t, vec, VectorLength)
	assert.InDelta(t, 1.0, vec.Norm(), 1e-9)

	for block := 0; block < Channels*Regions; block++ {
		base := block * Bins
		for i := 0; i < Bins; i++ {
			inWindow := i >= 128-params.SmearRadius && i <= 128+params.SmearRadius
			if inWindow {
				assert.Greater(t, vec[base+i], 0.0, "block %d bin %d", block, i)
				assert.InDelta(t, vec[base+128], vec[base+i], 1e-12, "smear is flat for a single value")
			} else {
				assert.Zero(t, vec[base+i], "block %d bin %d", block, i)
			}
		}
	}

	// Core pixels weigh CenterWeight times a rim pixel.
	wantRatio := float64(params.CenterWeight*region.CoreCount()) / float64(region.RimCount())
	assert.InDelta(t, wantRatio, vec[128]/vec[blockRim*Bins+128], 1e-9)

	assert.InDelta(t, 1.0, Similarity(vec, vec), 1e-9)
}

func TestExtractFeatures_SmearClipsAtVectorEnds(t *testing.T) {
	// Black pixels sit at bin 0 of core-R; nothing may spill below it.
	raster := pcbimage.NewRaster(uniformImage(28, 28, color.RGBA{A: 255}))
	vec := ExtractFeatures(raster, NewRegion(28, 18), geometry.Pt(0, 0), DefaultParams())
	for i := 0; i <= 8; i++ {
		assert.Greater(t, vec[i], 0.0)
	}
	assert.Zero(t, vec[9])

	// White rim-B pixels sit in the very last bin.
	raster = pcbimage.NewRaster(uniformImage(28, 28, color.RGBA{R: 255, G: 255, B: 255, A: 255}))
	vec = ExtractFeatures(raster, NewRegion(28, 18), geometry.Pt(0, 0), DefaultParams())
	assert.Greater(t, vec[VectorLength-1], 0.0)
	assert.Greater(t, vec[VectorLength-9], 0.0)
	assert.Zero(t, vec[VectorLength-10])
}

func TestSmear_MatchesNaiveAccumulation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	counts := make([]float64, VectorLength)
	naive := make([]float64, VectorLength)
	for n := 0; n < 500; n++ {
		pos := rng.Intn(VectorLength)
		w := float64(1 + rng.Intn(3))
		counts[pos] += w
		naiveSmear(naive, pos, w, 8)
	}
	got := smear(counts, 8)
	for i := range got {
		assert.InDelta(t, naive[i], got[i], 1e-9, "bin %d", i)
	}
}

func TestExtractFeatures_UnitNormOnBoard(t *testing.T) {
	raster := newBoard()
	region := NewRegion(28, 18)
	for _, a := range []geometry.PointInt{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 33, Y: 51}, {X: 171, Y: 91}} {
		vec := ExtractFeatures(raster, region, a, DefaultParams())
		assert.InDelta(t, 1.0, vec.Norm(), 1e-9, "anchor %s", a)
	}
}

func TestExtractFeatures_Degenerate(t *testing.T) {
	// Zero centre weight and no rim: nothing is accumulated.
	params := DefaultParams()
	params.CenterWeight = 0
	raster := pcbimage.NewRaster(uniformImage(10, 10, color.RGBA{R: 50, A: 255}))

	vec := ExtractFeatures(raster, NewRegion(10, 10), geometry.Pt(0, 0), params)
	require.Len(t, vec, VectorLength)
	assert.True(t, vec.IsDegenerate())
	assert.Zero(t, vec.Norm())
	assert.Zero(t, Similarity(vec, vec))
	assert.Zero(t, Similarity(vec, unitVector(1)))
}

func TestComputeFeatureVector_SkipsOverBudget(t *testing.T) {
	raster := newBoard()
	mask := pcbimage.EmptyMask(200, 120)
	region := NewRegion(28, 18)
	for i := 0; i < 4; i++ {
		mask.Set(24, 20+i, true)
	}

	vec, s := ComputeFeatureVector(raster, mask, region, geometry.Pt(10, 10), DefaultParams(), 4)
	assert.Nil(t, vec)
	assert.True(t, s.Exceeded)

	vec, s = ComputeFeatureVector(raster, mask, region, geometry.Pt(10, 10), DefaultParams(), NoBudget)
	assert.NotNil(t, vec)
	assert.Equal(t, 4, s.Forbidden)
}
