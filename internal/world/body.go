package world

import (
	"math"
	"math/rand/v2"

	"stellar-server/internal/geom"
	"stellar-server/internal/ids"
	"stellar-server/internal/palette"
	"stellar-server/internal/protocol"
)

const (
	OrbitEnterFactor = 6.0  // orbit-enter radius as a multiple of planet radius
	PlanetSpawnGap   = 60.0 // distance outside the surface where ships appear

	AsteroidRadius   = 50.0
	AsteroidMinSpeed = 20.0
	AsteroidMaxSpeed = 80.0
	AsteroidSpinMax  = 1.5
	AsteroidLifetime = 120.0 // seconds
	AsteroidHP       = 40
)

// Star is a fixed celestial body that planets orbit
type Star struct {
	ID     string
	Name   string
	Pos    geom.Vec
	Radius float64
	Colour palette.Colour
}

// NewStar creates a star at (x, y)
func NewStar(name string, x, y, radius float64) *Star {
	return &Star{
		ID:     "star-" + name,
		Name:   name,
		Pos:    geom.Vec{X: x, Y: y},
		Radius: radius,
		Colour: palette.Colour{R: 255, G: 204, B: 51},
	}
}

func (s *Star) ObjectID() string   { return s.ID }
func (s *Star) Kind() Kind         { return KindStar }
func (s *Star) Position() geom.Vec { return s.Pos }

func (s *Star) State() protocol.ObjectState {
	c := s.Colour
	return protocol.ObjectState{ID: s.ID, Kind: string(KindStar), Name: s.Name, X: s.Pos.X, Y: s.Pos.Y, Radius: s.Radius, Colour: &c}
}

// Planet sits at a fixed distance from its parent star
type Planet struct {
	ID         string
	Name       string
	Parent     *Star
	Distance   float64
	Pos        geom.Vec
	Radius     float64
	Colour     palette.Colour
	OrbitRange float64 // players closer than this may enter orbit
}

// NewPlanet places a planet at distance from parent, at the given angle
func NewPlanet(parent *Star, distance float64, name string, radius, angle float64, colour palette.Colour) *Planet {
	return &Planet{
		ID:         "planet-" + name,
		Name:       name,
		Parent:     parent,
		Distance:   distance,
		Pos:        parent.Pos.Add(geom.Polar(distance, angle)),
		Radius:     radius,
		Colour:     colour,
		OrbitRange: radius * OrbitEnterFactor,
	}
}

func (p *Planet) ObjectID() string   { return p.ID }
func (p *Planet) Kind() Kind         { return KindPlanet }
func (p *Planet) Position() geom.Vec { return p.Pos }

func (p *Planet) State() protocol.ObjectState {
	c := p.Colour
	return protocol.ObjectState{ID: p.ID, Kind: string(KindPlanet), Name: p.Name, X: p.Pos.X, Y: p.Pos.Y, Radius: p.Radius, Colour: &c}
}

// InRange reports whether pos is close enough to enter orbit
func (p *Planet) InRange(pos geom.Vec) bool {
	return geom.Distance(p.Pos, pos) <= p.OrbitRange
}

// SpawnPoint is the planet's spawn policy: a point just above the surface at a
// random angle, always inside the orbit range and the world bounds
func (p *Planet) SpawnPoint(rng *rand.Rand) geom.Vec {
	a := rng.Float64() * 2 * math.Pi
	pt, _ := ClampToBounds(p.Pos.Add(geom.Polar(p.Radius+PlanetSpawnGap, a)))
	return pt
}

// Asteroid is an ephemeral rock drifting through the system
type Asteroid struct {
	ID       string
	Pos      geom.Vec
	Vel      geom.Vec
	Radius   float64
	Rotation float64
	Spin     float64
	Life     float64
	HP       int
	Alive    bool
}

// NewAsteroid spawns an asteroid around centre at a random distance in [rMin, rMax]
func NewAsteroid(rng *rand.Rand, centre geom.Vec, rMin, rMax, radius float64) *Asteroid {
	dist := rMin + rng.Float64()*(rMax-rMin)
	angle := rng.Float64() * 2 * math.Pi
	speed := AsteroidMinSpeed + rng.Float64()*(AsteroidMaxSpeed-AsteroidMinSpeed)
	// drift roughly tangentially so the belt keeps its shape for a while
	heading := angle + math.Pi/2 + (rng.Float64()-0.5)*0.6
	spin := (rng.Float64()*2 - 1) * AsteroidSpinMax
	pos, _ := ClampToBounds(centre.Add(geom.Polar(dist, angle)))
	return &Asteroid{
		ID:       "ast-" + ids.Hex(8),
		Pos:      pos,
		Vel:      geom.Polar(speed, heading),
		Radius:   radius,
		Rotation: rng.Float64() * 2 * math.Pi,
		Spin:     spin,
		Life:     AsteroidLifetime,
		HP:       AsteroidHP,
		Alive:    true,
	}
}

func (a *Asteroid) ObjectID() string   { return a.ID }
func (a *Asteroid) Kind() Kind         { return KindAsteroid }
func (a *Asteroid) Position() geom.Vec { return a.Pos }

func (a *Asteroid) State() protocol.ObjectState {
	return protocol.ObjectState{ID: a.ID, Kind: string(KindAsteroid), X: a.Pos.X, Y: a.Pos.Y, Radius: a.Radius, Angle: round1(a.Rotation)}
}

// Step moves the asteroid and ages it
func (a *Asteroid) Step(dt float64) {
	if !a.Alive {
		return
	}
	a.Pos = a.Pos.Add(a.Vel.Scale(dt))
	a.Rotation = geom.NormalizeAngle(a.Rotation + a.Spin*dt)
	a.Life -= dt
	if a.Life <= 0 {
		a.Alive = false
	}
	var clipped bool
	if a.Pos, clipped = ClampToBounds(a.Pos); clipped {
		a.Vel = geom.Vec{}
	}
}

// TakeDamage reduces HP and returns true if the asteroid broke apart
func (a *Asteroid) TakeDamage(dmg int) bool {
	if !a.Alive {
		return false
	}
	a.HP -= dmg
	if a.HP <= 0 {
		a.Alive = false
		return true
	}
	return false
}
