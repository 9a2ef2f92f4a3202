package via

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	pcbimage "pcb-viacv/internal/image"
	"pcb-viacv/pkg/geometry"
)

// ScanStats counts what a scan saw.
type ScanStats struct {
	Scanned    int // Anchors evaluated
	Skipped    int // Anchors whose mask budget was reached
	Candidates int // Anchors at or above the acceptance score
	ScoreMap   *ScoreMap
}

// columnResult holds the outcome of scanning one anchor column.
type columnResult struct {
	candidates []Candidate
	scanned    int
	skipped    int
}

// ScanCandidates scores every anchor in [0, W-D) × [0, H-D) against the
// profiles and returns those that pass the similarity threshold, in scan
// order (x-major, then y). The order is the same for any worker count.
func ScanCandidates(ctx context.Context, raster *pcbimage.Raster, mask *pcbimage.Mask,
	profiles []Profile, params DetectionParams) ([]Candidate, ScanStats, error) {
	region := NewRegion(params.OuterDiameter, params.InnerDiameter)
	pm := NewProfileMatrix(profiles)

	cols := raster.Width() - params.OuterDiameter
	rows := raster.Height() - params.OuterDiameter

	var stats ScanStats
	if params.RecordScores {
		stats.ScoreMap = newScoreMap(cols, rows)
	}
	if cols <= 0 || rows <= 0 {
		return nil, stats, ctx.Err()
	}

	scanColumn := func(x int) columnResult {
		var res columnResult
		for y := 0; y < rows; y++ {
			anchor := geometry.Pt(x, y)
			vec, sample := ComputeFeatureVector(raster, mask, region, anchor, params, params.MaskViolationThreshold)
			if sample.Exceeded {
				res.skipped++
				continue
			}
			res.scanned++
			score := ScoreByte(pm.Score(vec, params.TopK))
			if stats.ScoreMap != nil {
				stats.ScoreMap.set(x, y, score)
			}
			if int(score) >= params.MinScore() {
				res.candidates = append(res.candidates, Candidate{Score: score, Vector: vec, Anchor: anchor})
			}
		}
		return res
	}

	results := make([]columnResult, cols)
	workers := max(1, params.Workers)

	if workers == 1 {
		for x := 0; x < cols; x++ {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
			results[x] = scanColumn(x)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for x := 0; x < cols; x++ {
			if gctx.Err() != nil {
				break
			}
			x := x
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[x] = scanColumn(x)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, stats, err
		}
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
	}

	var candidates []Candidate
	for _, r := range results {
		candidates = append(candidates, r.candidates...)
		stats.Scanned += r.scanned
		stats.Skipped += r.skipped
	}
	stats.Candidates = len(candidates)
	return candidates, stats, nil
}

// FilterConflicts returns the candidates that lie farther than d from every
// fixed point. The input slice is not modified.
func FilterConflicts(fixed []geometry.PointInt, candidates []Candidate, d int) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !geometry.ConflictsAny(c.Anchor, fixed, d) {
			out = append(out, c)
		}
	}
	return out
}

// ResolveConflicts greedily picks the highest-scoring candidate, drops every
// remaining candidate within d of it, and repeats until none remain. Equal
// scores keep their input order. The accepted candidates are returned in
// acceptance order; the input slice is not modified.
func ResolveConflicts(candidates []Candidate, d int) []Candidate {
	remaining := slices.Clone(candidates)
	slices.SortStableFunc(remaining, func(a, b Candidate) int {
		return int(b.Score) - int(a.Score)
	})

	var accepted []Candidate
	for len(remaining) > 0 {
		top := remaining[0]
		accepted = append(accepted, top)
		remaining = FilterConflicts([]geometry.PointInt{top.Anchor}, remaining[1:], d)
	}
	return accepted
}

// SelectDetections runs both conflict stages: candidates near an existing
// detection are discarded, then the rest are resolved greedily.
func SelectDetections(existing []Via, candidates []Candidate, d int) []Candidate {
	fixed := make([]geometry.PointInt, len(existing))
	for i, v := range existing {
		fixed[i] = v.Anchor
	}
	return ResolveConflicts(FilterConflicts(fixed, candidates, d), d)
}
