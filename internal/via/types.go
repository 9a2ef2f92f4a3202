// Package via locates through-hole vias in PCB scans by few-shot template
// matching: every anchor's colour histogram is compared to a profile set of
// known vias, and each round's accepted detections become the next round's
// profiles.
package via

import (
	"time"

	"pcb-viacv/pkg/geometry"
)

// Histogram layout: 3 channels × 2 regions × 256 intensity bins.
const (
	Bins         = 256
	Channels     = 3
	Regions      = 2
	VectorLength = Bins * Channels * Regions
)

// Block offsets within a FeatureVector, in units of Bins.
const (
	blockCore = 0        // core R, G, B occupy blocks 0..2
	blockRim  = Channels // rim R, G, B occupy blocks 3..5
)

// FeatureVector is an L2-normalised colour histogram of a via sample.
// A degenerate vector (nothing sampled) is all zeros.
type FeatureVector []float64

// Profile is a known via used as a similarity reference.
type Profile struct {
	Anchor geometry.PointInt `json:"anchor"`
	Vector FeatureVector     `json:"-"`
}

// Candidate is an anchor that passed the similarity threshold in one scan.
type Candidate struct {
	Score  byte              `json:"score"`
	Vector FeatureVector     `json:"-"`
	Anchor geometry.PointInt `json:"anchor"`
}

// Via is an accepted detection. Once accepted it is never removed.
type Via struct {
	Anchor geometry.PointInt `json:"anchor"` // Top-left corner of the sampling square
	Vector FeatureVector     `json:"-"`
	Round  int               `json:"round"` // 0 for seeds
	Score  byte              `json:"score"` // 255 for seeds
}

// Center returns the via centre for a sampling square of the given diameter.
func (v Via) Center(diameter int) geometry.Point2D {
	return v.Anchor.SquareCenter(diameter)
}

// Profile returns the via as a similarity reference.
func (v Via) Profile() Profile {
	return Profile{Anchor: v.Anchor, Vector: v.Vector}
}

// RoundStats summarises one self-training round.
type RoundStats struct {
	Round      int           `json:"round"`
	Profiles   int           `json:"profiles"`   // Profile set size the round scanned with
	Scanned    int           `json:"scanned"`    // Anchors evaluated
	Skipped    int           `json:"skipped"`    // Anchors rejected by the mask budget
	Candidates int           `json:"candidates"` // Anchors above the threshold
	Accepted   int           `json:"accepted"`   // New detections after conflict resolution
	Elapsed    time.Duration `json:"elapsed"`
}

// DetectionResult holds the outcome of a detection run.
type DetectionResult struct {
	Vias     []Via           // Seeds first, then detections in acceptance order
	Rounds   []RoundStats    // One entry per round
	Params   DetectionParams // Parameters used for detection
	ScoreMap *ScoreMap       // Last round's per-anchor scores, if recorded
}

// Anchors returns the anchor of every detected via, in order.
func (r *DetectionResult) Anchors() []geometry.PointInt {
	out := make([]geometry.PointInt, len(r.Vias))
	for i, v := range r.Vias {
		out[i] = v.Anchor
	}
	return out
}

// ScoreMap records the score byte of every scanned anchor. Anchors skipped by
// the mask budget are left at zero.
type ScoreMap struct {
	Width, Height int // Anchor grid extent
	Scores        []byte
}

func newScoreMap(w, h int) *ScoreMap {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &ScoreMap{Width: w, Height: h, Scores: make([]byte, w*h)}
}

// At returns the score recorded for anchor (x, y).
func (m *ScoreMap) At(x, y int) byte {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return 0
	}
	return m.Scores[y*m.Width+x]
}

func (m *ScoreMap) set(x, y int, s byte) {
	m.Scores[y*m.Width+x] = s
}
