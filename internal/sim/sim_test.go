package sim

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"stellar-server/internal/bus"
	"stellar-server/internal/economy"
	"stellar-server/internal/game"
	"stellar-server/internal/geom"
	"stellar-server/internal/palette"
	"stellar-server/internal/world"
)

var t0 = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

const frame = time.Second / 60

func newSim(t *testing.T) (*Simulator, *game.Engine) {
	t.Helper()
	e := game.New(game.Options{Rand: rand.New(rand.NewPCG(11, 12))})
	return New(e, nil), e
}

func addShip(t *testing.T, e *game.Engine, id string, pos geom.Vec) *world.Player {
	t.Helper()
	p, _, err := e.Claim(id, id, id, palette.Colours[0])
	require.NoError(t, err)
	p.Pos = pos
	p.Angle = 0
	e.Activate(p)
	return p
}

func TestFirstTickHasZeroElapsed(t *testing.T) {
	s, e := newSim(t)
	p := addShip(t, e, "p1", geom.Vec{X: 2000, Y: 2000})
	p.Keys.Up = true

	s.Tick(t0)
	assert.Equal(t, geom.Vec{X: 2000, Y: 2000}, p.Pos)

	s.Tick(t0.Add(frame))
	assert.Greater(t, p.Pos.X, 2000.0)
}

func TestTickMovesShipInRegistry(t *testing.T) {
	s, e := newSim(t)
	p := addShip(t, e, "p1", geom.Vec{X: 2000, Y: 2000})
	p.Vel = geom.Vec{X: 600}

	s.Tick(t0)
	for i := 1; i <= 120; i++ {
		s.Tick(t0.Add(time.Duration(i) * frame))
	}
	require.Greater(t, p.Pos.X, 2200.0)
	assert.Empty(t, e.World.InView(1990, 1990, 20, 20))
	got := e.World.InView(p.Pos.X-1, p.Pos.Y-1, 2, 2)
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].ObjectID())
}

func TestShipsAreClampedToWorld(t *testing.T) {
	s, e := newSim(t)
	p := addShip(t, e, "p1", geom.Vec{X: 5, Y: world.Height - 5})
	p.Vel = geom.Vec{X: -800, Y: 800}

	s.Tick(t0)
	s.Tick(t0.Add(100 * time.Millisecond))
	assert.Equal(t, 0.0, p.Pos.X)
	assert.Equal(t, world.Height, p.Pos.Y)
}

func TestOrbitingShipIsFrozen(t *testing.T) {
	s, e := newSim(t)
	p := addShip(t, e, "p1", e.Universe.Home.Pos.Add(geom.Vec{X: 50}))
	out, _ := e.Orbit.Toggle(p)
	require.NotNil(t, p.Orbiting, out.String())
	p.Keys = world.Keys{Up: true, Blasters: true}
	start := p.Pos

	s.Tick(t0)
	s.Tick(t0.Add(time.Second / 10))
	assert.Equal(t, start, p.Pos)
	assert.Equal(t, 0, s.Projectiles())
}

func TestBlasterFiresProjectile(t *testing.T) {
	s, e := newSim(t)
	p := addShip(t, e, "p1", geom.Vec{X: 3000, Y: 3000})
	p.Keys.Blasters = true

	s.Tick(t0)
	assert.Equal(t, 1, s.Projectiles())
	assert.Equal(t, world.BaseAmmo-1, p.Ammo)
	assert.Equal(t, 1, e.World.Count(world.KindProjectile))

	// cooldown holds the second shot back
	s.Tick(t0.Add(frame))
	assert.Equal(t, 1, s.Projectiles())
}

func TestTorpedoKeyNeedsOwnedWeapon(t *testing.T) {
	s, e := newSim(t)
	p := addShip(t, e, "p1", geom.Vec{X: 3000, Y: 3000})
	p.Keys.Torpedos = true

	s.Tick(t0)
	assert.Equal(t, 0, s.Projectiles())

	p.Weapons[economy.Torpedo] = true
	s.Tick(t0.Add(frame))
	require.Equal(t, 1, s.Projectiles())
	for _, shot := range s.shots {
		assert.Equal(t, economy.Torpedo, shot.Weapon)
	}
}

func TestProjectilesExpire(t *testing.T) {
	s, e := newSim(t)
	p := addShip(t, e, "p1", geom.Vec{X: 5000, Y: 1000})
	p.Keys.Blasters = true
	s.Tick(t0)
	p.Keys.Blasters = false
	require.Equal(t, 1, s.Projectiles())

	now := t0
	for i := 0; i < 20; i++ {
		now = now.Add(200 * time.Millisecond)
		s.Tick(now)
	}
	assert.Equal(t, 0, s.Projectiles())
	assert.Equal(t, 0, e.World.Count(world.KindProjectile))
}

func TestKillPublishesAndRespawnsVictim(t *testing.T) {
	s, e := newSim(t)
	shooter := addShip(t, e, "shooter", geom.Vec{X: 2000, Y: 2000})
	victim := addShip(t, e, "victim", geom.Vec{X: 2045, Y: 2000})
	victim.Health = 5
	shooter.Keys.Blasters = true

	var kills []bus.Kill
	e.Bus.Subscribe(bus.TopicKill, func(ev bus.Event) { kills = append(kills, ev.(bus.Kill)) })

	s.Tick(t0)

	require.Equal(t, []bus.Kill{{Killer: "shooter", Victim: "victim"}}, kills)
	assert.Equal(t, 1, shooter.Score)
	assert.Equal(t, 1, victim.Deaths)
	assert.Equal(t, victim.MaxHealth(), victim.Health)
	assert.True(t, e.Universe.Home.InRange(victim.Pos), "victim respawns at home")
	assert.Equal(t, 0, s.Projectiles())
	assert.Equal(t, "shooter", e.Leaderboard()[0].ID)
}

func TestHitWithoutKillOnlyDamages(t *testing.T) {
	s, e := newSim(t)
	shooter := addShip(t, e, "shooter", geom.Vec{X: 2000, Y: 2000})
	victim := addShip(t, e, "victim", geom.Vec{X: 2045, Y: 2000})
	shooter.Keys.Blasters = true

	s.Tick(t0)
	assert.Equal(t, world.BaseHealth-10, victim.Health)
	assert.Equal(t, 0, shooter.Score)
}

func TestAsteroidDestroyedRewardsShooter(t *testing.T) {
	s, e := newSim(t)
	shooter := addShip(t, e, "shooter", geom.Vec{X: 2000, Y: 2000})
	shooter.Keys.Blasters = true
	before := shooter.Currency

	a := world.NewAsteroid(e.Rand, geom.Vec{X: 2080, Y: 2000}, 0, 0, world.AsteroidRadius)
	a.Vel = geom.Vec{}
	a.HP = 5
	e.Exec(func() {
		s.asteroids[a.ID] = a
		e.World.Add(a)
	})

	s.Tick(t0)
	assert.False(t, a.Alive)
	assert.Equal(t, 0, s.Asteroids())
	assert.False(t, e.World.Has(a.ID))
	assert.Equal(t, before+economy.AsteroidReward, shooter.Currency)
}

func TestSpawnAsteroidAroundSun(t *testing.T) {
	s, e := newSim(t)
	for i := 0; i < 10; i++ {
		require.True(t, s.SpawnAsteroid())
	}
	assert.Equal(t, 10, s.Asteroids())
	assert.Equal(t, 10, e.World.Count(world.KindAsteroid))
	for _, a := range s.asteroids {
		d := geom.Distance(a.Pos, e.Universe.Sun.Pos)
		assert.GreaterOrEqual(t, d, AsteroidMinDist-1e-6)
		assert.LessOrEqual(t, d, AsteroidMaxDist+1e-6)
	}
}

func TestSpawnAsteroidCap(t *testing.T) {
	s, _ := newSim(t)
	for i := 0; i < MaxAsteroids; i++ {
		require.True(t, s.SpawnAsteroid())
	}
	assert.False(t, s.SpawnAsteroid())
	assert.Equal(t, MaxAsteroids, s.Asteroids())
}

func TestFaultyObjectDoesNotStopCycle(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	e := game.New(game.Options{Rand: rand.New(rand.NewPCG(1, 1))})
	s := New(e, zap.New(core))

	// a ship built without its internal maps panics when it fires
	broken := &world.Player{
		ID:      "broken",
		Pos:     geom.Vec{X: 1000, Y: 1000},
		Health:  world.BaseHealth,
		Ammo:    world.BaseAmmo,
		Weapons: map[string]bool{economy.Blaster: true},
		Keys:    world.Keys{Blasters: true},
	}
	e.Exec(func() { e.Activate(broken) })
	healthy := addShip(t, e, "healthy", geom.Vec{X: 3000, Y: 3000})
	healthy.Vel = geom.Vec{X: 100}

	s.Tick(t0)
	s.Tick(t0.Add(frame))

	assert.Greater(t, healthy.Pos.X, 3000.0)
	assert.GreaterOrEqual(t, logs.FilterMessage("object update failed").Len(), 1)
}

func TestSweepDiscardsExpiredRetention(t *testing.T) {
	now := t0
	e := game.New(game.Options{
		Rand:  rand.New(rand.NewPCG(1, 1)),
		Now:   func() time.Time { return now },
		Grace: time.Minute,
	})
	s := New(e, nil)
	p := addShip(t, e, "p1", geom.Vec{X: 100, Y: 100})
	e.Deactivate(p)

	now = now.Add(2 * time.Minute)
	s.Sweep()
	assert.Equal(t, 0, e.Retained())
}

func TestRunStopsOnCancel(t *testing.T) {
	s, _ := newSim(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return s.Asteroids() >= 1 }, 3*time.Second, 20*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunLogsCensus(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	e := game.New(game.Options{Rand: rand.New(rand.NewPCG(11, 12))})
	s := New(e, zap.New(core))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	require.Eventually(t, func() bool {
		return logs.FilterMessage("world census").Len() >= 1
	}, 3*time.Second, 20*time.Millisecond)
	entry := logs.FilterMessage("world census").All()[0]
	assert.Contains(t, entry.ContextMap(), "asteroids")
	assert.Contains(t, entry.ContextMap(), "projectiles")
}
