package config

import (
	"errors"
	"fmt"
	"strings"

	pcbimage "pcb-viacv/internal/image"
	"pcb-viacv/pkg/colorutil"
)

// ValidationError collects every problem found in a Settings.
type ValidationError struct {
	Errors []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (e *ValidationError) Unwrap() []error {
	return e.Errors
}

// Validate checks settings needed by a detection run.
func (s *Settings) Validate() error {
	var errs []error

	if s.Input.Image == "" {
		errs = append(errs, errors.New("input.image is required"))
	} else if !pcbimage.IsSupportedFormat(s.Input.Image) {
		errs = append(errs, fmt.Errorf("input.image %s: unsupported format", s.Input.Image))
	}
	switch {
	case s.Input.Mask == "" && !s.Input.NoMask:
		errs = append(errs, errors.New("input.mask is required (set input.nomask to run without one)"))
	case s.Input.Mask != "" && s.Input.NoMask:
		errs = append(errs, errors.New("input.mask and input.nomask are mutually exclusive"))
	case s.Input.Mask != "" && !pcbimage.IsSupportedFormat(s.Input.Mask):
		errs = append(errs, fmt.Errorf("input.mask %s: unsupported format", s.Input.Mask))
	}
	if len(s.Seeds) == 0 && s.Input.SeedReport == "" {
		errs = append(errs, errors.New("at least one seed is required"))
	}
	if err := s.Params().Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := colorutil.Parse(s.Annotate.Color); err != nil {
		errs = append(errs, fmt.Errorf("annotate.color: %w", err))
	}
	if s.Annotate.Thickness < 1 {
		errs = append(errs, fmt.Errorf("annotate.thickness %d must be at least 1", s.Annotate.Thickness))
	}
	switch s.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", s.Log.Format))
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
