// Package core provides fundamental types and utilities for the arena server.
// It contains no external dependencies so that simulation code stays pure
// and testable.
package core

import "math"

// Vec2 is a 2D point or direction in world units.
type Vec2 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// V returns a vector with the given components.
func V(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale returns v multiplied by s.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Dot returns the dot product of v and o.
func (v Vec2) Dot(o Vec2) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Len returns the Euclidean length of v.
func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Dist returns the distance between two points.
func (v Vec2) Dist(o Vec2) float64 {
	return v.Sub(o).Len()
}

// IsZero reports whether both components are zero.
func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// IsFinite reports whether neither component is NaN or infinite.
func (v Vec2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// Normalize returns the unit vector in the direction of v.
// The zero vector normalizes to itself.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{X: v.X / l, Y: v.Y / l}
}

// Bounds is an axis-aligned world rectangle in float coordinates.
type Bounds struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// NewBounds creates bounds spanning [0,w] x [0,h].
func NewBounds(w, h float64) Bounds {
	return Bounds{MaxX: w, MaxY: h}
}

// Clamp restricts a point to lie inside the bounds.
func (b Bounds) Clamp(p Vec2) Vec2 {
	return Vec2{
		X: ClampF(p.X, b.MinX, b.MaxX),
		Y: ClampF(p.Y, b.MinY, b.MaxY),
	}
}

// Contains returns true if the point is inside the bounds (edges inclusive).
func (b Bounds) Contains(p Vec2) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Width returns the horizontal extent.
func (b Bounds) Width() float64 {
	return b.MaxX - b.MinX
}

// Height returns the vertical extent.
func (b Bounds) Height() float64 {
	return b.MaxY - b.MinY
}

// CirclesOverlap reports whether two circles touch or overlap.
func CirclesOverlap(a Vec2, ra float64, b Vec2, rb float64) bool {
	return a.Dist(b) <= ra+rb
}

// InArc reports whether target lies within halfAngle radians of dir as seen
// from origin. A zero dir matches every direction.
func InArc(origin, dir, target Vec2, halfAngle float64) bool {
	if dir.IsZero() {
		return true
	}
	to := target.Sub(origin)
	if to.IsZero() {
		return true
	}
	cos := dir.Normalize().Dot(to.Normalize())
	return cos >= math.Cos(halfAngle)
}

// Rect represents an integer cell rectangle used for screen drawing.
type Rect struct {
	X, Y int // Top-left corner position
	W, H int // Width and height
}

// NewRect creates a new rectangle with the given position and dimensions.
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Right returns the x-coordinate of the right edge.
func (r Rect) Right() int {
	return r.X + r.W
}

// Bottom returns the y-coordinate of the bottom edge.
func (r Rect) Bottom() int {
	return r.Y + r.H
}

// Clamp restricts a value to be within [min, max].
func Clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// ClampF restricts a float64 value to be within [min, max].
func ClampF(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
