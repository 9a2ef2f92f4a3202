package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"pcb-viacv/internal/via"
	"pcb-viacv/pkg/geometry"
)

// ReportVersion is the current report file format version.
const ReportVersion = 1

// Report is the JSON record of a detection run.
type Report struct {
	Version int                 `json:"version"`
	Created time.Time           `json:"created"`
	Image   string              `json:"image"`
	Mask    string              `json:"mask,omitempty"`
	Params  via.DetectionParams `json:"params"`
	Vias    []ReportVia         `json:"vias"`
	Rounds  []via.RoundStats    `json:"rounds"`
}

// ReportVia is one detection in a report.
type ReportVia struct {
	Anchor geometry.PointInt `json:"anchor"`
	Center geometry.Point2D  `json:"center"`
	Round  int               `json:"round"`
	Score  byte              `json:"score"`
}

// NewReport builds a report for a result computed from the given inputs.
func NewReport(result *via.DetectionResult, image, mask string) *Report {
	r := &Report{
		Version: ReportVersion,
		Created: time.Now(),
		Image:   image,
		Mask:    mask,
		Params:  result.Params,
		Vias:    make([]ReportVia, len(result.Vias)),
		Rounds:  result.Rounds,
	}
	for i, v := range result.Vias {
		r.Vias[i] = ReportVia{
			Anchor: v.Anchor,
			Center: v.Center(result.Params.OuterDiameter),
			Round:  v.Round,
			Score:  v.Score,
		}
	}
	return r
}

// Anchors returns the anchor of every via in the report, in order.
func (r *Report) Anchors() []geometry.PointInt {
	out := make([]geometry.PointInt, len(r.Vias))
	for i, v := range r.Vias {
		out[i] = v.Anchor
	}
	return out
}

// Save writes the report as indented JSON.
func (r *Report) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// LoadReport reads a report written by Save.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", path, err)
	}
	if r.Version != ReportVersion {
		return nil, fmt.Errorf("unsupported report version %d", r.Version)
	}
	return &r, nil
}
