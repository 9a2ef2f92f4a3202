package via

import (
	"context"
	"fmt"
	"log/slog"

	pcbimage "pcb-viacv/internal/image"
	"pcb-viacv/pkg/geometry"
)

// DetectVias seeds a trainer with the gold-standard anchors and runs every
// round. The returned vias start with the seeds.
func DetectVias(ctx context.Context, raster *pcbimage.Raster, mask *pcbimage.Mask,
	seeds []geometry.PointInt, params DetectionParams, logger *slog.Logger) (*DetectionResult, error) {
	t, err := NewTrainer(raster, mask, params, logger)
	if err != nil {
		return nil, err
	}
	if err := t.Seed(seeds); err != nil {
		return nil, err
	}
	return t.Run(ctx)
}

// AnchorReport describes how a single anchor scores against a seed set.
type AnchorReport struct {
	Anchor       geometry.PointInt
	Forbidden    int       // Forbidden disc pixels (capped at the budget when skipped)
	Skipped      bool      // The scan would skip this anchor
	Similarities []float64 // Similarity to each seed, in seed order
	Mean         float64   // Top-k mean similarity
	Score        byte      // Score byte compared against the threshold
	Accepted     bool      // Score passes the threshold
}

// ScoreAnchor extracts the anchor the way a scan would and scores it against
// the seeds. It is a diagnostic for tuning thresholds.
func ScoreAnchor(raster *pcbimage.Raster, mask *pcbimage.Mask, seeds []geometry.PointInt,
	anchor geometry.PointInt, params DetectionParams) (*AnchorReport, error) {
	t, err := NewTrainer(raster, mask, params, nil)
	if err != nil {
		return nil, err
	}
	if err := t.Seed(seeds); err != nil {
		return nil, err
	}
	if !geometry.Square(anchor, params.OuterDiameter).Within(raster.Width(), raster.Height()) {
		return nil, fmt.Errorf("anchor %s outside %dx%d image", anchor, raster.Width(), raster.Height())
	}

	report := &AnchorReport{Anchor: anchor}
	vec, sample := ComputeFeatureVector(raster, mask, t.region, anchor, params, params.MaskViolationThreshold)
	report.Forbidden = sample.Forbidden
	if sample.Exceeded {
		report.Skipped = true
		return report, nil
	}

	pm := NewProfileMatrix(t.profiles)
	report.Similarities = pm.Similarities(vec)
	report.Mean = pm.Score(vec, params.TopK)
	report.Score = ScoreByte(report.Mean)
	report.Accepted = int(report.Score) >= params.MinScore()
	return report, nil
}
