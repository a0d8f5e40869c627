package orbit

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stellar-server/internal/geom"
	"stellar-server/internal/palette"
	"stellar-server/internal/world"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func setup() (*Machine, *world.Universe, *clock) {
	rng := rand.New(rand.NewPCG(42, 1))
	u := world.NewUniverse(rng)
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewMachine(u, rng, c.Now), u, c
}

func pilotNear(planet *world.Planet, dist float64) *world.Player {
	p := world.NewPlayer("p1", "Nova", palette.Colours[0])
	p.Pos = planet.Pos.Add(geom.Vec{X: dist})
	p.Vel = geom.Vec{X: 50, Y: -20}
	return p
}

func TestEnterWithinRange(t *testing.T) {
	m, u, _ := setup()
	p := pilotNear(u.Home, 100)

	out, planet := m.Toggle(p)
	assert.Equal(t, Entered, out)
	require.NotNil(t, planet)
	assert.Equal(t, u.Home, planet)
	assert.Equal(t, u.Home, p.Orbiting)
	assert.Equal(t, geom.Vec{}, p.Vel)
}

func TestExitRespawnsAndStartsCooldown(t *testing.T) {
	m, u, c := setup()
	p := pilotNear(u.Home, 100)
	m.Toggle(p)

	c.Advance(time.Second)
	out, planet := m.Toggle(p)
	assert.Equal(t, Exited, out)
	assert.Equal(t, u.Home, planet)
	assert.Nil(t, p.Orbiting)
	assert.Equal(t, c.Now(), p.LastOrbitExit)
	assert.InDelta(t, u.Home.Radius+world.PlanetSpawnGap, geom.Distance(p.Pos, u.Home.Pos), 1e-6)
}

func TestReenterTooSoon(t *testing.T) {
	m, u, c := setup()
	p := pilotNear(u.Home, 100)
	m.Toggle(p)
	m.Toggle(p)

	c.Advance(2 * time.Second)
	out, _ := m.Toggle(p)
	assert.Equal(t, TooSoon, out)
	assert.Nil(t, p.Orbiting)

	c.Advance(Cooldown)
	out, _ = m.Toggle(p)
	assert.Equal(t, Entered, out)
}

func TestTooFar(t *testing.T) {
	m, u, _ := setup()
	p := pilotNear(u.Home, u.Home.OrbitRange+1)
	p.Pos = geom.Vec{X: 100, Y: 100}

	out, planet := m.Toggle(p)
	assert.Equal(t, TooFar, out)
	assert.Nil(t, planet)
	assert.Nil(t, p.Orbiting)
	assert.Equal(t, geom.Vec{X: 50, Y: -20}, p.Vel)
}

func TestCooldownCheckedBeforeRange(t *testing.T) {
	m, u, c := setup()
	p := pilotNear(u.Home, 100)
	m.Toggle(p)
	m.Toggle(p)
	c.Advance(time.Second)

	p.Pos = geom.Vec{X: u.Home.Pos.X + u.Home.OrbitRange + 50, Y: u.Home.Pos.Y}
	out, planet := m.Toggle(p)
	assert.Equal(t, TooSoon, out)
	assert.Nil(t, planet)

	c.Advance(Cooldown)
	out, _ = m.Toggle(p)
	assert.NotEqual(t, TooSoon, out)
}

func TestEnterNearestPlanet(t *testing.T) {
	m, u, _ := setup()
	alpha := u.Planets[0]
	p := pilotNear(alpha, alpha.Radius*2)

	out, planet := m.Toggle(p)
	assert.Equal(t, Entered, out)
	assert.Equal(t, alpha, planet)
}
