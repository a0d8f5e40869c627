package orbit

import (
	"math/rand/v2"
	"time"

	"stellar-server/internal/geom"
	"stellar-server/internal/world"
)

// Cooldown is the minimum time between leaving orbit and entering again
const Cooldown = 5 * time.Second

// Outcome of a toggle request
type Outcome int

const (
	Entered Outcome = iota
	Exited
	TooFar
	TooSoon
)

func (o Outcome) String() string {
	switch o {
	case Entered:
		return "entered"
	case Exited:
		return "exited"
	case TooFar:
		return "too far"
	case TooSoon:
		return "too soon"
	}
	return "unknown"
}

// Machine moves players between free flight and orbit around a planet
type Machine struct {
	universe *world.Universe
	rng      *rand.Rand
	now      func() time.Time
}

// NewMachine creates an orbit machine. now defaults to time.Now.
func NewMachine(u *world.Universe, rng *rand.Rand, now func() time.Time) *Machine {
	if now == nil {
		now = time.Now
	}
	return &Machine{universe: u, rng: rng, now: now}
}

// Toggle enters or leaves orbit. The planet involved is returned for
// Entered and Exited.
func (m *Machine) Toggle(p *world.Player) (Outcome, *world.Planet) {
	if p.Orbiting != nil {
		planet := p.Orbiting
		p.Orbiting = nil
		p.Pos = planet.SpawnPoint(m.rng)
		p.Vel = geom.Vec{}
		p.LastOrbitExit = m.now()
		return Exited, planet
	}

	if !p.LastOrbitExit.IsZero() && m.now().Sub(p.LastOrbitExit) < Cooldown {
		return TooSoon, nil
	}
	planet, dist := m.universe.NearestPlanet(p.Pos)
	if planet == nil || dist > planet.OrbitRange {
		return TooFar, nil
	}
	p.Orbiting = planet
	p.Vel = geom.Vec{}
	return Entered, planet
}
