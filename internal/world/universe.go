package world

import (
	"math"
	"math/rand/v2"

	"stellar-server/internal/geom"
	"stellar-server/internal/palette"
	"stellar-server/internal/protocol"
)

// Universe holds the static celestial layout: one sun and its planets
type Universe struct {
	Sun     *Star
	Planets []*Planet
	Home    *Planet // where new ships spawn
}

// NewUniverse builds the solar system at the centre of the world. Planet
// angles are random per process.
func NewUniverse(rng *rand.Rand) *Universe {
	sun := NewStar("sun", Width/2, Height/2, 150)
	alpha := NewPlanet(sun, 600, "alpha", 32, rng.Float64()*2*math.Pi, palette.Colour{R: 30, G: 144, B: 255})
	beta := NewPlanet(sun, 1000, "beta", 32, rng.Float64()*2*math.Pi, palette.Colour{R: 220, G: 20, B: 60})
	return &Universe{
		Sun:     sun,
		Planets: []*Planet{alpha, beta},
		Home:    beta,
	}
}

// Bodies returns every celestial body for registration
func (u *Universe) Bodies() []Object {
	out := make([]Object, 0, len(u.Planets)+1)
	out = append(out, u.Sun)
	for _, p := range u.Planets {
		out = append(out, p)
	}
	return out
}

// NearestPlanet returns the planet closest to pos and its distance
func (u *Universe) NearestPlanet(pos geom.Vec) (*Planet, float64) {
	var best *Planet
	bestDist := math.MaxFloat64
	for _, p := range u.Planets {
		if d := geom.Distance(p.Pos, pos); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best, bestDist
}

// MinimapObjects lists landmarks normalised to the world size
func (u *Universe) MinimapObjects() []protocol.MinimapObject {
	out := make([]protocol.MinimapObject, 0, len(u.Planets)+1)
	for _, p := range u.Planets {
		out = append(out, protocol.MinimapObject{X: p.Pos.X / Width, Y: p.Pos.Y / Height, Colour: p.Colour})
	}
	out = append(out, protocol.MinimapObject{X: u.Sun.Pos.X / Width, Y: u.Sun.Pos.Y / Height, Colour: u.Sun.Colour})
	return out
}
