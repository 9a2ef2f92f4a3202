// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"fmt"
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// PointInt represents a 2D point with integer coordinates.
// Anchors (top-left corners of sampling squares) use this type.
type PointInt struct {
	X int `json:"x" yaml:"x" mapstructure:"x"`
	Y int `json:"y" yaml:"y" mapstructure:"y"`
}

// Pt is shorthand for PointInt{X: x, Y: y}.
func Pt(x, y int) PointInt {
	return PointInt{X: x, Y: y}
}

// ToFloat converts to Point2D.
func (p PointInt) ToFloat() Point2D {
	return Point2D{X: float64(p.X), Y: float64(p.Y)}
}

// DistanceSq returns the squared Euclidean distance to another point.
func (p PointInt) DistanceSq(other PointInt) int {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return dx*dx + dy*dy
}

// Distance returns the Euclidean distance to another point.
func (p PointInt) Distance(other PointInt) float64 {
	return math.Sqrt(float64(p.DistanceSq(other)))
}

// String formats the point the way detections are written out: "(x,y)".
func (p PointInt) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// SquareCenter returns the centre of the size×size square whose top-left corner is p.
func (p PointInt) SquareCenter(size int) Point2D {
	half := float64(size) / 2
	return Point2D{X: float64(p.X) + half, Y: float64(p.Y) + half}
}

// Conflict reports whether a and b lie within distance d of each other.
// The comparison is inclusive: points exactly d apart conflict.
func Conflict(a, b PointInt, d int) bool {
	return a.DistanceSq(b) <= d*d
}

// ConflictsAny reports whether p conflicts with any of the given points.
func ConflictsAny(p PointInt, others []PointInt, d int) bool {
	for _, o := range others {
		if Conflict(p, o, d) {
			return true
		}
	}
	return false
}

// RectInt represents a rectangle with integer coordinates.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Square returns the size×size rectangle anchored at p.
func Square(p PointInt, size int) RectInt {
	return RectInt{X: p.X, Y: p.Y, Width: size, Height: size}
}

// Within reports whether r lies entirely inside a width×height area anchored at the origin.
func (r RectInt) Within(width, height int) bool {
	return r.X >= 0 && r.Y >= 0 && r.X+r.Width <= width && r.Y+r.Height <= height
}
