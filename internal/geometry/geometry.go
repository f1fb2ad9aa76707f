// Package geometry provides float geometry helpers for coin placement.
package geometry

import "math"

// Point is a page coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Rect is an axis-aligned rectangle in page coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// RectFromSize creates a Rect from its top-left corner and size.
func RectFromSize(x, y, w, h float64) Rect {
	return Rect{Left: x, Top: y, Right: x + w, Bottom: y + h}
}

// Width returns the width of the rectangle.
func (r Rect) Width() float64 {
	return r.Right - r.Left
}

// Height returns the height of the rectangle.
func (r Rect) Height() float64 {
	return r.Bottom - r.Top
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Center returns the center point of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.Left + r.Width()/2, Y: r.Top + r.Height()/2}
}

// Radius returns half of the longer side.
func (r Rect) Radius() float64 {
	return math.Max(r.Width(), r.Height()) / 2
}

// Pad grows every side by p.
func (r Rect) Pad(p float64) Rect {
	return Rect{Left: r.Left - p, Top: r.Top - p, Right: r.Right + p, Bottom: r.Bottom + p}
}

// Inset shrinks every side by m.
func (r Rect) Inset(m float64) Rect {
	return r.Pad(-m)
}

// Contains reports whether p lies inside the rectangle, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X <= r.Right && p.Y >= r.Top && p.Y <= r.Bottom
}

// Intersects reports whether the rectangles overlap.
// Rectangles that only share an edge do not intersect.
func (r Rect) Intersects(o Rect) bool {
	if r.Left >= o.Right || o.Left >= r.Right {
		return false
	}
	if r.Top >= o.Bottom || o.Top >= r.Bottom {
		return false
	}
	return true
}

// DistanceTo returns the distance from p to the nearest point of the
// rectangle, or zero when p is inside it.
func (r Rect) DistanceTo(p Point) float64 {
	dx := math.Max(math.Max(r.Left-p.X, 0), p.X-r.Right)
	dy := math.Max(math.Max(r.Top-p.Y, 0), p.Y-r.Bottom)
	return math.Hypot(dx, dy)
}

// Clamp restricts v to [lo, hi]. When hi < lo, lo wins.
func Clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
