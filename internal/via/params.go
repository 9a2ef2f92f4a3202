package via

import (
	"errors"
	"fmt"
)

// ErrInvalidParams is returned when DetectionParams fail validation.
var ErrInvalidParams = errors.New("invalid detection parameters")

// DetectionParams holds parameters for via detection. It is passed by value
// to every stage and never mutated during a run.
type DetectionParams struct {
	// Candidate acceptance: score >= 255 - SimilarityThreshold.
	// Lower values accept fewer vias.
	SimilarityThreshold int `json:"similarity_threshold"`

	// Histogram weights
	CenterWeight int `json:"center_weight"` // Weight of a core pixel relative to a rim pixel (1 = equal)
	SmearRadius  int `json:"smear_radius"`  // Bins on each side that receive a pixel's weight

	// Self-training
	Rounds int `json:"rounds"` // Number of scan/select/relearn rounds
	TopK   int `json:"top_k"`  // Closest profiles averaged per anchor

	// Forbidden pixels at which an anchor is skipped; 0 disables the mask check
	MaskViolationThreshold int `json:"mask_violation_threshold"`

	// Geometry (pixels)
	ConflictDiameter int `json:"conflict_diameter"` // Detections closer than or equal to this conflict
	OuterDiameter    int `json:"outer_diameter"`    // Via copper diameter, also the sampling square size
	InnerDiameter    int `json:"inner_diameter"`    // Via hole diameter, bounds the core region

	// Scan workers (1 = sequential)
	Workers int `json:"-"`

	// Record the per-anchor score of the last round for visualisation
	RecordScores bool `json:"-"`
}

// DefaultParams returns default via detection parameters.
// These are tuned for 300 DPI scans of boards with ~28px vias.
func DefaultParams() DetectionParams {
	return DetectionParams{
		SimilarityThreshold:    50,
		CenterWeight:           3,
		SmearRadius:            8,
		Rounds:                 1,
		TopK:                   2,
		MaskViolationThreshold: 4,
		ConflictDiameter:       20,
		OuterDiameter:          28,
		InnerDiameter:          18,
		Workers:                1,
	}
}

// MinScore returns the lowest score byte accepted as a candidate.
func (p DetectionParams) MinScore() int {
	return 255 - p.SimilarityThreshold
}

// WithRounds returns a copy of params with the given number of self-training rounds.
func (p DetectionParams) WithRounds(rounds int) DetectionParams {
	p.Rounds = rounds
	return p
}

// WithThreshold returns a copy of params with a different similarity threshold.
func (p DetectionParams) WithThreshold(threshold int) DetectionParams {
	p.SimilarityThreshold = threshold
	return p
}

// WithDiameters returns a copy of params with custom via and hole diameters in pixels.
func (p DetectionParams) WithDiameters(outer, inner int) DetectionParams {
	p.OuterDiameter = outer
	p.InnerDiameter = inner
	return p
}

// WithWorkers returns a copy of params that scans with n workers.
func (p DetectionParams) WithWorkers(n int) DetectionParams {
	p.Workers = n
	return p
}

// Validate reports the first inconsistent parameter.
func (p DetectionParams) Validate() error {
	switch {
	case p.OuterDiameter <= 0:
		return fmt.Errorf("%w: outer diameter %d must be positive", ErrInvalidParams, p.OuterDiameter)
	case p.InnerDiameter < 0 || p.InnerDiameter > p.OuterDiameter:
		return fmt.Errorf("%w: inner diameter %d must be within [0, %d]",
			ErrInvalidParams, p.InnerDiameter, p.OuterDiameter)
	case p.SimilarityThreshold < 0 || p.SimilarityThreshold > 255:
		return fmt.Errorf("%w: similarity threshold %d must be within [0, 255]",
			ErrInvalidParams, p.SimilarityThreshold)
	case p.CenterWeight < 0:
		return fmt.Errorf("%w: center weight %d must not be negative", ErrInvalidParams, p.CenterWeight)
	case p.SmearRadius < 0:
		return fmt.Errorf("%w: smear radius %d must not be negative", ErrInvalidParams, p.SmearRadius)
	case p.TopK < 1:
		return fmt.Errorf("%w: top-k %d must be at least 1", ErrInvalidParams, p.TopK)
	case p.MaskViolationThreshold < 0:
		return fmt.Errorf("%w: mask violation threshold %d must not be negative (0 disables the check)",
			ErrInvalidParams, p.MaskViolationThreshold)
	case p.Rounds < 0:
		return fmt.Errorf("%w: rounds %d must not be negative", ErrInvalidParams, p.Rounds)
	case p.ConflictDiameter < 0:
		return fmt.Errorf("%w: conflict diameter %d must not be negative", ErrInvalidParams, p.ConflictDiameter)
	case p.Workers < 0:
		return fmt.Errorf("%w: workers %d must not be negative", ErrInvalidParams, p.Workers)
	}
	return nil
}
