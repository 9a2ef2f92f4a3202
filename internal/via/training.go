package via

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	pcbimage "pcb-viacv/internal/image"
	"pcb-viacv/pkg/geometry"
)

// ErrSeedOutOfBounds is returned when a seed's sampling square leaves the image.
var ErrSeedOutOfBounds = errors.New("seed outside image")

// ErrNoSeeds is returned when a run is started without seed vias.
var ErrNoSeeds = errors.New("no seed vias")

// Trainer runs the self-training loop: each round scans the whole image with
// the current profile set, accepts non-conflicting candidates, and relearns
// the profile set from every via found so far. Vias are never forgotten.
//
// A Trainer is not safe for concurrent use.
type Trainer struct {
	raster *pcbimage.Raster
	mask   *pcbimage.Mask
	params DetectionParams
	region *Region
	logger *slog.Logger

	profiles []Profile
	vias     []Via
	rounds   []RoundStats
	scoreMap *ScoreMap
}

// NewTrainer creates a trainer over a raster and its tabu mask.
// A nil logger discards log output.
func NewTrainer(raster *pcbimage.Raster, mask *pcbimage.Mask, params DetectionParams, logger *slog.Logger) (*Trainer, error) {
	if raster == nil {
		return nil, fmt.Errorf("nil raster")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if mask != nil {
		if err := mask.Covers(raster); err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Trainer{
		raster: raster,
		mask:   mask,
		params: params,
		region: NewRegion(params.OuterDiameter, params.InnerDiameter),
		logger: logger,
	}, nil
}

// Seed extracts the vectors of the gold-standard anchors. Seeds become both
// the first profile set and the first detections. The mask budget does not
// apply to seeds.
func (t *Trainer) Seed(anchors []geometry.PointInt) error {
	if len(anchors) == 0 {
		return ErrNoSeeds
	}
	w, h := t.raster.Width(), t.raster.Height()
	seeds := make([]Via, 0, len(anchors))
	for _, a := range anchors {
		if !geometry.Square(a, t.params.OuterDiameter).Within(w, h) {
			return fmt.Errorf("%w: %s with diameter %d in %dx%d image",
				ErrSeedOutOfBounds, a, t.params.OuterDiameter, w, h)
		}
		vec, _ := ComputeFeatureVector(t.raster, t.mask, t.region, a, t.params, NoBudget)
		if vec.IsDegenerate() {
			t.logger.Warn("seed has an empty feature vector", "anchor", a.String())
		}
		seeds = append(seeds, Via{Anchor: a, Vector: vec, Round: 0, Score: 255})
	}

	t.vias = seeds
	t.profiles = t.profilesFromVias()
	t.rounds = nil
	t.logger.Info("seeded profiles", "count", len(seeds))
	return nil
}

// Run executes the configured number of rounds. It never stops early: a
// round that finds nothing new still counts.
func (t *Trainer) Run(ctx context.Context) (*DetectionResult, error) {
	if len(t.vias) == 0 {
		return nil, ErrNoSeeds
	}
	for k := 1; k <= t.params.Rounds; k++ {
		if _, err := t.Round(ctx); err != nil {
			return nil, fmt.Errorf("round %d: %w", k, err)
		}
	}
	return t.Result(), nil
}

// Round runs one scan/select/relearn cycle and returns its statistics.
func (t *Trainer) Round(ctx context.Context) (RoundStats, error) {
	start := time.Now()
	k := len(t.rounds) + 1
	stats := RoundStats{Round: k, Profiles: len(t.profiles)}

	params := t.params
	params.RecordScores = params.RecordScores && k == params.Rounds
	candidates, scan, err := ScanCandidates(ctx, t.raster, t.mask, t.profiles, params)
	if err != nil {
		return stats, err
	}
	stats.Scanned = scan.Scanned
	stats.Skipped = scan.Skipped
	stats.Candidates = scan.Candidates
	if scan.ScoreMap != nil {
		t.scoreMap = scan.ScoreMap
	}

	accepted := SelectDetections(t.vias, candidates, t.params.ConflictDiameter)
	for _, c := range accepted {
		t.vias = append(t.vias, Via{Anchor: c.Anchor, Vector: c.Vector, Round: k, Score: c.Score})
	}
	t.profiles = t.profilesFromVias()

	stats.Accepted = len(accepted)
	stats.Elapsed = time.Since(start)
	t.rounds = append(t.rounds, stats)

	t.logger.Info("round complete",
		"round", k,
		"profiles", stats.Profiles,
		"scanned", stats.Scanned,
		"skipped", stats.Skipped,
		"candidates", stats.Candidates,
		"accepted", stats.Accepted,
		"total", len(t.vias),
		"elapsed", stats.Elapsed.Round(time.Millisecond))
	return stats, nil
}

// profilesFromVias copies the detection list into a fresh profile set.
func (t *Trainer) profilesFromVias() []Profile {
	profiles := make([]Profile, len(t.vias))
	for i, v := range t.vias {
		profiles[i] = v.Profile()
	}
	return profiles
}

// Profiles returns a copy of the current profile set.
func (t *Trainer) Profiles() []Profile {
	return slices.Clone(t.profiles)
}

// Vias returns a copy of the detections accumulated so far, seeds first.
func (t *Trainer) Vias() []Via {
	return slices.Clone(t.vias)
}

// Result snapshots the run so far.
func (t *Trainer) Result() *DetectionResult {
	return &DetectionResult{
		Vias:     t.Vias(),
		Rounds:   slices.Clone(t.rounds),
		Params:   t.params,
		ScoreMap: t.scoreMap,
	}
}
