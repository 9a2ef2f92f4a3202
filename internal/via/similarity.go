package via

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Similarity returns the dot product of two feature vectors. Both are unit
// length, so this is their cosine similarity. Mismatched or empty vectors
// score 0, and so does a degenerate vector against anything.
func Similarity(a, b FeatureVector) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	return floats.Dot(a, b)
}

// AggregateScore averages the k highest similarities between vec and the
// profiles. Fewer than k profiles average what is there; none scores 0.
func AggregateScore(vec FeatureVector, profiles []Profile, k int) float64 {
	if len(profiles) == 0 {
		return 0
	}
	sims := make([]float64, len(profiles))
	for i, p := range profiles {
		sims[i] = Similarity(vec, p.Vector)
	}
	return topKMean(sims, k)
}

// topKMean sorts sims in place, descending, and returns the mean of the first k.
func topKMean(sims []float64, k int) float64 {
	if len(sims) == 0 || k < 1 {
		return 0
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sims)))
	k = min(k, len(sims))
	return floats.Sum(sims[:k]) / float64(k)
}

// ScoreByte maps a mean similarity onto 0..255, clamping overshoot.
func ScoreByte(mean float64) byte {
	if math.IsNaN(mean) || mean <= 0 {
		return 0
	}
	return byte(math.Round(math.Min(mean, 1) * 255))
}

// ProfileMatrix packs a profile set into a dense matrix, one profile per row,
// so all similarities of an anchor come out of a single product.
// It is read-only after construction and safe for concurrent use.
type ProfileMatrix struct {
	m    *mat.Dense
	rows int
}

// NewProfileMatrix copies the vectors of profiles into a matrix. Profiles
// without a full-length vector contribute a zero row.
func NewProfileMatrix(profiles []Profile) *ProfileMatrix {
	if len(profiles) == 0 {
		return &ProfileMatrix{}
	}
	data := make([]float64, len(profiles)*VectorLength)
	for i, p := range profiles {
		if len(p.Vector) == VectorLength {
			copy(data[i*VectorLength:], p.Vector)
		}
	}
	return &ProfileMatrix{m: mat.NewDense(len(profiles), VectorLength, data), rows: len(profiles)}
}

// Len returns the number of profiles.
func (pm *ProfileMatrix) Len() int { return pm.rows }

// Similarities returns the similarity of vec to every profile, in profile order.
func (pm *ProfileMatrix) Similarities(vec FeatureVector) []float64 {
	if pm.rows == 0 || len(vec) != VectorLength {
		return make([]float64, pm.rows)
	}
	out := mat.NewVecDense(pm.rows, nil)
	out.MulVec(pm.m, mat.NewVecDense(VectorLength, vec))
	return out.RawVector().Data
}

// Score returns the top-k mean similarity of vec against the profiles.
func (pm *ProfileMatrix) Score(vec FeatureVector, k int) float64 {
	if pm.rows == 0 {
		return 0
	}
	return topKMean(pm.Similarities(vec), k)
}
