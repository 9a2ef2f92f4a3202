// Package config loads viacv settings from defaults, a YAML file and
// command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"pcb-viacv/internal/via"
	"pcb-viacv/pkg/geometry"
)

// ConfigName is the base name of the config file searched for by default.
const ConfigName = "viacv"

// Settings is the full viacv configuration.
type Settings struct {
	Input     InputSettings       `mapstructure:"input" yaml:"input"`
	Output    OutputSettings      `mapstructure:"output" yaml:"output"`
	Seeds     []geometry.PointInt `mapstructure:"seeds" yaml:"seeds"`
	Detection DetectionSettings   `mapstructure:"detection" yaml:"detection"`
	Annotate  AnnotateSettings    `mapstructure:"annotate" yaml:"annotate"`
	Log       LogSettings         `mapstructure:"log" yaml:"log"`
}

// InputSettings names the board scan and its tabu mask.
type InputSettings struct {
	Image      string `mapstructure:"image" yaml:"image"`           // Colour scan of the board
	Mask       string `mapstructure:"mask" yaml:"mask"`             // Red channel marks forbidden pixels
	SeedReport string `mapstructure:"seedreport" yaml:"seedreport"` // Earlier report whose vias become the seeds
	NoMask     bool   `mapstructure:"nomask" yaml:"nomask"`         // Run without a mask; nothing is forbidden
}

// OutputSettings names the result files. Empty paths are not written.
type OutputSettings struct {
	Coords    string `mapstructure:"coords" yaml:"coords"`
	Annotated string `mapstructure:"annotated" yaml:"annotated"`
	ScoreMap  string `mapstructure:"scoremap" yaml:"scoremap"`
	Report    string `mapstructure:"report" yaml:"report"`
}

// DetectionSettings mirrors via.DetectionParams.
type DetectionSettings struct {
	SimilarityThreshold    int `mapstructure:"similaritythreshold" yaml:"similaritythreshold"`
	CenterWeight           int `mapstructure:"centerweight" yaml:"centerweight"`
	Rounds                 int `mapstructure:"rounds" yaml:"rounds"`
	TopK                   int `mapstructure:"topk" yaml:"topk"`
	MaskViolationThreshold int `mapstructure:"maskviolationthreshold" yaml:"maskviolationthreshold"`
	SmearRadius            int `mapstructure:"smearradius" yaml:"smearradius"`
	ConflictDiameter       int `mapstructure:"conflictdiameter" yaml:"conflictdiameter"`
	OuterDiameter          int `mapstructure:"outerdiameter" yaml:"outerdiameter"`
	InnerDiameter          int `mapstructure:"innerdiameter" yaml:"innerdiameter"`
	Workers                int `mapstructure:"workers" yaml:"workers"`
}

// AnnotateSettings controls the result overlay.
type AnnotateSettings struct {
	Color     string `mapstructure:"color" yaml:"color"`
	Thickness int    `mapstructure:"thickness" yaml:"thickness"`
}

// LogSettings controls the logger.
type LogSettings struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text or json
}

// New returns a viper instance with defaults registered and the config file
// read. An explicit path must exist; otherwise ./viacv.yaml and
// $HOME/.config/viacv/viacv.yaml are tried and a missing file is not an error.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return v, nil
	}

	v.SetConfigName(ConfigName)
	for _, dir := range DefaultConfigPaths() {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return v, nil
}

// DefaultConfigPaths lists the directories searched for viacv.yaml.
func DefaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", ConfigName))
	}
	return paths
}

// Load unmarshals v into Settings. The result is not validated.
func Load(v *viper.Viper) (*Settings, error) {
	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return s, nil
}

// Params converts the detection settings to detector parameters.
func (s *Settings) Params() via.DetectionParams {
	d := s.Detection
	return via.DetectionParams{
		SimilarityThreshold:    d.SimilarityThreshold,
		CenterWeight:           d.CenterWeight,
		SmearRadius:            d.SmearRadius,
		Rounds:                 d.Rounds,
		TopK:                   d.TopK,
		MaskViolationThreshold: d.MaskViolationThreshold,
		ConflictDiameter:       d.ConflictDiameter,
		OuterDiameter:          d.OuterDiameter,
		InnerDiameter:          d.InnerDiameter,
		Workers:                d.Workers,
		RecordScores:           s.Output.ScoreMap != "",
	}
}

// ParseSeed parses an "x,y" pair, optionally wrapped in parentheses as in
// the coordinate output.
func ParseSeed(s string) (geometry.PointInt, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimSuffix(strings.TrimPrefix(trimmed, "("), ")")
	xs, ys, ok := strings.Cut(trimmed, ",")
	if !ok {
		return geometry.PointInt{}, fmt.Errorf("invalid seed %q: want x,y", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return geometry.PointInt{}, fmt.Errorf("invalid seed %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return geometry.PointInt{}, fmt.Errorf("invalid seed %q: %w", s, err)
	}
	return geometry.Pt(x, y), nil
}

// ParseSeeds parses every entry with ParseSeed.
func ParseSeeds(values []string) ([]geometry.PointInt, error) {
	seeds := make([]geometry.PointInt, 0, len(values))
	for _, s := range values {
		p, err := ParseSeed(s)
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, p)
	}
	return seeds, nil
}
