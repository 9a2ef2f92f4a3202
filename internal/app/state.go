// Package app wires configuration, image loading, detection and export into
// the viacv command line application.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"pcb-viacv/internal/config"
	"pcb-viacv/internal/export"
	pcbimage "pcb-viacv/internal/image"
	"pcb-viacv/internal/via"
	"pcb-viacv/pkg/colorutil"
	"pcb-viacv/pkg/geometry"
)

// ErrNotLoaded is returned when detection is requested before LoadInputs.
var ErrNotLoaded = errors.New("inputs not loaded")

// ErrNoMask is returned when no mask is configured and the no-mask mode is off.
var ErrNoMask = errors.New("no mask configured")

// State holds one detection session: settings, loaded rasters and results.
type State struct {
	mu sync.RWMutex

	Settings *config.Settings
	Raster   *pcbimage.Raster
	Mask     *pcbimage.Mask
	Result   *via.DetectionResult

	logger    *slog.Logger
	listeners map[EventType][]EventListener
}

// EventType identifies session events.
type EventType int

const (
	EventImageLoaded EventType = iota
	EventMaskLoaded
	EventViasDetected
	EventResultsSaved
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates a session for validated settings. A nil logger discards output.
func NewState(settings *config.Settings, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &State{
		Settings:  settings,
		logger:    logger,
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// LoadInputs loads the board image and its mask. Without a mask path it
// fails unless the no-mask mode is set.
func (s *State) LoadInputs() error {
	if s.Settings.Input.Mask == "" && !s.Settings.Input.NoMask {
		return ErrNoMask
	}
	raster, err := pcbimage.LoadRaster(s.Settings.Input.Image)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}
	s.logger.Info("loaded image", "path", s.Settings.Input.Image,
		"width", raster.Width(), "height", raster.Height())

	var mask *pcbimage.Mask
	switch {
	case s.Settings.Input.Mask == "":
		s.logger.Warn("running without a mask, no pixel is forbidden")
	default:
		mask, err = pcbimage.LoadMask(s.Settings.Input.Mask)
		if err != nil {
			return fmt.Errorf("failed to load mask: %w", err)
		}
		if err := mask.Covers(raster); err != nil {
			return fmt.Errorf("failed to load mask %s: %w", s.Settings.Input.Mask, err)
		}
		s.logger.Info("loaded mask", "path", s.Settings.Input.Mask)
	}

	s.mu.Lock()
	s.Raster = raster
	s.Mask = mask
	s.Result = nil
	s.mu.Unlock()

	s.Emit(EventImageLoaded, raster)
	if mask != nil {
		s.Emit(EventMaskLoaded, mask)
	}
	return nil
}

// Detect runs the self-training detector over the loaded inputs.
func (s *State) Detect(ctx context.Context) (*via.DetectionResult, error) {
	s.mu.RLock()
	raster, mask := s.Raster, s.Mask
	s.mu.RUnlock()
	if raster == nil {
		return nil, ErrNotLoaded
	}

	result, err := via.DetectVias(ctx, raster, mask, s.Settings.Seeds, s.Settings.Params(), s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to detect vias: %w", err)
	}
	s.logger.Info("detection complete", "vias", len(result.Vias), "seeds", len(s.Settings.Seeds))

	s.mu.Lock()
	s.Result = result
	s.mu.Unlock()

	s.Emit(EventViasDetected, result)
	return result, nil
}

// SaveResults writes every configured output for the last detection.
func (s *State) SaveResults() error {
	s.mu.RLock()
	raster, result := s.Raster, s.Result
	s.mu.RUnlock()
	if result == nil {
		return fmt.Errorf("no detection result to save")
	}

	out := s.Settings.Output
	var written []string

	if out.Coords != "" {
		if err := export.SaveCoords(out.Coords, result.Vias); err != nil {
			return err
		}
		written = append(written, out.Coords)
	}

	if out.Annotated != "" {
		opts := export.DefaultAnnotateOptions()
		if s.Settings.Annotate.Color != "" {
			c, err := colorutil.Parse(s.Settings.Annotate.Color)
			if err != nil {
				return err
			}
			opts.Color = c
		}
		if s.Settings.Annotate.Thickness > 0 {
			opts.Thickness = s.Settings.Annotate.Thickness
		}
		img := export.Annotate(raster, result.Vias, result.Params.OuterDiameter, opts)
		if err := export.SavePNG(out.Annotated, img); err != nil {
			return err
		}
		written = append(written, out.Annotated)
	}

	if out.ScoreMap != "" {
		img := export.RenderScoreMap(result.ScoreMap, raster.Width(), raster.Height(), result.Params.OuterDiameter)
		if err := export.SavePNG(out.ScoreMap, img); err != nil {
			return err
		}
		written = append(written, out.ScoreMap)
	}

	if out.Report != "" {
		report := export.NewReport(result, s.Settings.Input.Image, s.Settings.Input.Mask)
		if err := report.Save(out.Report); err != nil {
			return err
		}
		written = append(written, out.Report)
	}

	for _, path := range written {
		s.logger.Info("wrote output", "path", path)
	}
	s.Emit(EventResultsSaved, written)
	return nil
}

// ScoreAnchor scores one anchor against the configured seeds.
func (s *State) ScoreAnchor(anchor geometry.PointInt) (*via.AnchorReport, error) {
	s.mu.RLock()
	raster, mask := s.Raster, s.Mask
	s.mu.RUnlock()
	if raster == nil {
		return nil, ErrNotLoaded
	}
	report, err := via.ScoreAnchor(raster, mask, s.Settings.Seeds, anchor, s.Settings.Params())
	if err != nil {
		return nil, fmt.Errorf("failed to score anchor %s: %w", anchor, err)
	}
	return report, nil
}
