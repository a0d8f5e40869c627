package world

import (
	"stellar-server/internal/geom"
	"stellar-server/internal/protocol"
)

// Kind tags the concrete type behind an Object
type Kind string

const (
	KindPlayer     Kind = "player"
	KindStar       Kind = "star"
	KindPlanet     Kind = "planet"
	KindAsteroid   Kind = "asteroid"
	KindProjectile Kind = "projectile"
)

// World dimensions
const (
	Width  = 10000.0
	Height = 10000.0
)

// Object is anything stored in the World Registry
type Object interface {
	ObjectID() string
	Kind() Kind
	Position() geom.Vec
	State() protocol.ObjectState
}

// Bounds is the playable area
var Bounds = geom.Rect{X: 0, Y: 0, W: Width, H: Height}

// ClampToBounds clips p to the world edges and reports whether it was clipped
func ClampToBounds(p geom.Vec) (geom.Vec, bool) {
	c := geom.Vec{
		X: geom.Clamp(p.X, 0, Width),
		Y: geom.Clamp(p.Y, 0, Height),
	}
	return c, c != p
}

func round1(v float64) float64 {
	if v < 0 {
		return float64(int(v*10-0.5)) / 10
	}
	return float64(int(v*10+0.5)) / 10
}
