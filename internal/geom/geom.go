package geom

import "math"

// Vec is a point or direction in world coordinates
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o
func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o
func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y} }

// Scale returns v * s
func (v Vec) Scale(s float64) Vec { return Vec{v.X * s, v.Y * s} }

// Len returns the length of v
func (v Vec) Len() float64 { return math.Hypot(v.X, v.Y) }

// Polar returns the vector of length r pointing at angle a (radians)
func Polar(r, a float64) Vec {
	return Vec{r * math.Cos(a), r * math.Sin(a)}
}

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Distance returns the distance between two points
func Distance(a, b Vec) float64 {
	return b.Sub(a).Len()
}

// NormalizeAngle wraps angle to [-PI, PI]
func NormalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// Rect is an axis-aligned rectangle with origin at its top-left corner
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether p lies in [X, X+W] x [Y, Y+H], edges included
func (r Rect) Contains(p Vec) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// CirclesOverlap checks if two circles overlap
func CirclesOverlap(a Vec, ra float64, b Vec, rb float64) bool {
	dx := b.X - a.X
	dy := b.Y - a.Y
	radSum := ra + rb
	return dx*dx+dy*dy <= radSum*radSum
}
