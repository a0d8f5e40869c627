package sim

import (
	"context"
	"time"

	"go.uber.org/zap"

	"stellar-server/internal/bus"
	"stellar-server/internal/economy"
	"stellar-server/internal/game"
	"stellar-server/internal/geom"
	"stellar-server/internal/world"
)

const (
	TickRate      = 60 // physics ticks per second
	TickDuration  = time.Second / TickRate
	SpawnInterval = time.Second
	SweepInterval = time.Second

	// maxStep caps the elapsed time of one cycle after a stall
	maxStep = 0.25

	MaxAsteroids   = 200
	MaxProjectiles = 2000

	AsteroidMinDist = 800.0
	AsteroidMaxDist = 900.0
)

// Simulator advances the world on a fixed schedule, independent of clients
type Simulator struct {
	engine *game.Engine
	log    *zap.Logger

	asteroids map[string]*world.Asteroid
	shots     map[string]*world.Projectile
	last      time.Time
	started   bool
}

// New creates a simulator for the engine's world
func New(engine *game.Engine, log *zap.Logger) *Simulator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Simulator{
		engine:    engine,
		log:       log.Named("sim"),
		asteroids: make(map[string]*world.Asteroid),
		shots:     make(map[string]*world.Projectile),
	}
}

// Run drives the tick, asteroid spawn and retention sweep until ctx is done
func (s *Simulator) Run(ctx context.Context) {
	tick := time.NewTicker(TickDuration)
	spawn := time.NewTicker(SpawnInterval)
	sweep := time.NewTicker(SweepInterval)
	defer func() {
		tick.Stop()
		spawn.Stop()
		sweep.Stop()
	}()

	s.log.Info("simulation started", zap.Int("tick_rate", TickRate))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("simulation stopped")
			return
		case <-tick.C:
			s.Tick(s.engine.Now())
		case <-spawn.C:
			s.SpawnAsteroid()
		case <-sweep.C:
			s.Sweep()
			s.log.Debug("world census",
				zap.Int("asteroids", s.Asteroids()),
				zap.Int("projectiles", s.Projectiles()))
		}
	}
}

// Tick runs one simulation cycle at time now. The first cycle has zero
// elapsed time.
func (s *Simulator) Tick(now time.Time) {
	s.engine.Exec(func() { s.tick(now) })
}

// SpawnAsteroid adds one asteroid around the sun unless the cap is reached
func (s *Simulator) SpawnAsteroid() bool {
	spawned := false
	s.engine.Exec(func() {
		if len(s.asteroids) >= MaxAsteroids {
			return
		}
		a := world.NewAsteroid(s.engine.Rand, s.engine.Universe.Sun.Pos, AsteroidMinDist, AsteroidMaxDist, world.AsteroidRadius)
		s.asteroids[a.ID] = a
		s.engine.World.Add(a)
		spawned = true
	})
	return spawned
}

// Sweep drops retained players whose grace period expired
func (s *Simulator) Sweep() {
	s.engine.Exec(func() { s.engine.Sweep() })
}

// Asteroids returns the number of live asteroids
func (s *Simulator) Asteroids() int {
	var n int
	s.engine.Exec(func() { n = len(s.asteroids) })
	return n
}

// Projectiles returns the number of live projectiles
func (s *Simulator) Projectiles() int {
	var n int
	s.engine.Exec(func() { n = len(s.shots) })
	return n
}

func (s *Simulator) tick(now time.Time) {
	dt := 0.0
	if s.started {
		dt = now.Sub(s.last).Seconds()
		if dt < 0 {
			dt = 0
		} else if dt > maxStep {
			dt = maxStep
		}
	}
	s.last = now
	s.started = true

	for _, p := range s.engine.Players.All() {
		s.safely("player", p.ID, func() { s.stepPlayer(p, dt) })
	}
	for id, a := range s.asteroids {
		s.safely("asteroid", id, func() {
			a.Step(dt)
			if !a.Alive {
				s.removeAsteroid(a)
				return
			}
			s.engine.World.Touch(a)
		})
	}
	for id, shot := range s.shots {
		s.safely("projectile", id, func() {
			shot.Step(dt)
			if !shot.Alive {
				s.removeShot(shot)
				return
			}
			s.engine.World.Touch(shot)
		})
	}
	for id, shot := range s.shots {
		s.safely("projectile", id, func() { s.resolveHit(shot) })
	}
}

// safely runs one object's update; a panic is logged and the cycle goes on
func (s *Simulator) safely(kind, id string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("object update failed",
				zap.String("kind", kind),
				zap.String("id", id),
				zap.Any("panic", r))
		}
	}()
	fn()
}

func (s *Simulator) stepPlayer(p *world.Player, dt float64) {
	if !p.Active {
		return
	}
	p.Recharge(dt)
	if p.IsOrbiting() {
		return
	}
	p.Integrate(dt)
	p.KeepInBounds()
	s.engine.World.Touch(p)

	if p.Keys.Blasters {
		s.fire(p, economy.Blaster)
	}
	if p.Keys.Torpedos {
		// the heavy key fires the best secondary weapon the ship owns
		if p.Weapons[economy.Railgun] {
			s.fire(p, economy.Railgun)
		} else {
			s.fire(p, economy.Torpedo)
		}
	}
}

func (s *Simulator) fire(p *world.Player, weapon string) {
	w, ok := economy.LookupWeapon(weapon)
	if !ok || len(s.shots) >= MaxProjectiles {
		return
	}
	if !p.TryFire(weapon, w.AmmoCost, w.Cooldown) {
		return
	}
	shot := world.NewProjectile(p, weapon, w.Speed, w.Damage)
	s.shots[shot.ID] = shot
	s.engine.World.Add(shot)
}

// hitReach is the widest centre distance at which a shot can touch anything
const hitReach = world.AsteroidRadius + world.ProjectileRadius

func (s *Simulator) resolveHit(shot *world.Projectile) {
	if !shot.Alive {
		return
	}
	near := s.engine.World.InView(shot.Pos.X-hitReach, shot.Pos.Y-hitReach, 2*hitReach, 2*hitReach)
	for _, o := range near {
		switch t := o.(type) {
		case *world.Player:
			if t.ID == shot.OwnerID || !t.Active || t.IsOrbiting() {
				continue
			}
			if !overlaps(shot, t.Pos.X, t.Pos.Y, world.PlayerRadius) {
				continue
			}
			s.removeShot(shot)
			if t.TakeDamage(shot.Damage) {
				s.engine.Bus.Publish(bus.Kill{Killer: shot.OwnerID, Victim: t.ID})
				s.engine.Respawn(t)
			}
			return
		case *world.Asteroid:
			if !t.Alive || !overlaps(shot, t.Pos.X, t.Pos.Y, t.Radius) {
				continue
			}
			s.removeShot(shot)
			if t.TakeDamage(shot.Damage) {
				s.removeAsteroid(t)
				s.rewardAsteroid(shot.OwnerID, t)
			}
			return
		}
	}
}

func (s *Simulator) rewardAsteroid(ownerID string, a *world.Asteroid) {
	owner, ok := s.engine.Lookup(ownerID)
	if !ok {
		return
	}
	owner.Currency += economy.AsteroidReward
	s.engine.Stats.Track(game.EvtAsteroid, ownerID, "", map[string]any{"asteroid": a.ID})
}

func (s *Simulator) removeShot(shot *world.Projectile) {
	shot.Alive = false
	delete(s.shots, shot.ID)
	s.engine.World.Remove(shot.ID)
}

func (s *Simulator) removeAsteroid(a *world.Asteroid) {
	a.Alive = false
	delete(s.asteroids, a.ID)
	s.engine.World.Remove(a.ID)
}

func overlaps(shot *world.Projectile, x, y, radius float64) bool {
	return geom.CirclesOverlap(shot.Pos, world.ProjectileRadius, geom.Vec{X: x, Y: y}, radius)
}
