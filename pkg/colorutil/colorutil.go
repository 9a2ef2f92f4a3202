// Package colorutil provides shared color utilities for the via locator.
package colorutil

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Common overlay colors.
var (
	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red    = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Green  = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Cyan   = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 0, A: 255}
)

// named maps the overlay color names accepted in configuration.
var named = map[string]color.RGBA{
	"black":  Black,
	"white":  White,
	"red":    Red,
	"green":  Green,
	"cyan":   Cyan,
	"yellow": Yellow,
}

// Parse converts a configured color, either a name ("red") or a hex
// string ("#ff0000", "#f00"), into an opaque RGBA color.
func Parse(s string) (color.RGBA, error) {
	if c, ok := named[s]; ok {
		return c, nil
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// Gray returns an opaque gray level.
func Gray(v uint8) color.RGBA {
	return color.RGBA{R: v, G: v, B: v, A: 255}
}
