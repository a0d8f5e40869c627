package world

import (
	"math"
	"math/rand/v2"
	"time"

	"stellar-server/internal/geom"
	"stellar-server/internal/palette"
	"stellar-server/internal/protocol"
)

const (
	PlayerRadius  = 20.0
	BaseThrust    = 400.0 // pixels/s²
	ThrustPerTier = 0.15  // engine upgrade bonus per tier
	ReverseFactor = 0.5
	TurnSpeed     = 3.5   // radians/s
	Friction      = 0.03  // fraction of velocity lost per 1/60 s
	MaxSpeed      = 900.0 // pixels/s
	BaseHealth    = 100
	HealthPerTier = 25
	BaseAmmo      = 50
	AmmoPerTier   = 25
	AmmoRegen     = 2.0 // rounds/s
	StartCurrency = 100
)

// Upgrade lines that change ship stats
const (
	UpgradeEngine   = "engine"
	UpgradeHull     = "hull"
	UpgradeMagazine = "magazine"
)

// DefaultWeapon is owned by every new ship
const DefaultWeapon = "blaster"

// Keys mirrors the client's held keys
type Keys = protocol.Keys

// Player is a connected pilot and their ship
type Player struct {
	ID     string
	Name   string
	Colour palette.Colour

	Pos   geom.Vec
	Vel   geom.Vec
	Angle float64
	Keys  Keys

	Health   int
	Ammo     int
	ammoAcc  float64
	Currency int
	Upgrades map[string]int  // upgrade name -> tier
	Weapons  map[string]bool // owned weapons
	cooldown map[string]float64

	Orbiting      *Planet // nil while in free flight
	LastOrbitExit time.Time

	Active bool
	Score  int
	Kills  int
	Deaths int
}

// NewPlayer creates an inactive, unspawned player
func NewPlayer(id, name string, colour palette.Colour) *Player {
	return &Player{
		ID:       id,
		Name:     name,
		Colour:   colour,
		Health:   BaseHealth,
		Ammo:     BaseAmmo,
		Currency: StartCurrency,
		Upgrades: make(map[string]int),
		Weapons:  map[string]bool{DefaultWeapon: true},
		cooldown: make(map[string]float64),
	}
}

func (p *Player) ObjectID() string   { return p.ID }
func (p *Player) Kind() Kind         { return KindPlayer }
func (p *Player) Position() geom.Vec { return p.Pos }

func (p *Player) State() protocol.ObjectState {
	c := p.Colour
	return protocol.ObjectState{
		ID: p.ID, Kind: string(KindPlayer), Name: p.Name,
		X: p.Pos.X, Y: p.Pos.Y, Radius: PlayerRadius,
		Angle: round1(p.Angle), Colour: &c,
	}
}

// Tier returns the owned tier of an upgrade line
func (p *Player) Tier(upgrade string) int {
	return p.Upgrades[upgrade]
}

// Thrust is the forward acceleration after engine upgrades
func (p *Player) Thrust() float64 {
	return BaseThrust * (1 + ThrustPerTier*float64(p.Tier(UpgradeEngine)))
}

// MaxHealth after hull upgrades
func (p *Player) MaxHealth() int {
	return BaseHealth + HealthPerTier*p.Tier(UpgradeHull)
}

// MaxAmmo after magazine upgrades
func (p *Player) MaxAmmo() int {
	return BaseAmmo + AmmoPerTier*p.Tier(UpgradeMagazine)
}

// IsOrbiting reports whether the player is parked around a planet
func (p *Player) IsOrbiting() bool {
	return p.Orbiting != nil
}

// Spawn places the ship at the planet's spawn point with full health and ammo
func (p *Player) Spawn(planet *Planet, rng *rand.Rand) {
	p.Pos = planet.SpawnPoint(rng)
	p.Vel = geom.Vec{}
	p.Angle = geom.NormalizeAngle(rng.Float64() * 2 * math.Pi)
	p.Health = p.MaxHealth()
	p.Ammo = p.MaxAmmo()
	p.ammoAcc = 0
	p.Orbiting = nil
	for w := range p.cooldown {
		delete(p.cooldown, w)
	}
}

// Integrate applies held keys to velocity and position over dt seconds
func (p *Player) Integrate(dt float64) {
	if dt <= 0 {
		return
	}
	if p.Keys.Left {
		p.Angle -= TurnSpeed * dt
	}
	if p.Keys.Right {
		p.Angle += TurnSpeed * dt
	}
	p.Angle = geom.NormalizeAngle(p.Angle)

	thrust := 0.0
	if p.Keys.Up {
		thrust += p.Thrust()
	}
	if p.Keys.Down {
		thrust -= p.Thrust() * ReverseFactor
	}
	p.Vel = p.Vel.Add(geom.Polar(thrust*dt, p.Angle))

	p.Vel = p.Vel.Scale(math.Pow(1-Friction, dt*60))
	if speed := p.Vel.Len(); speed > MaxSpeed {
		p.Vel = p.Vel.Scale(MaxSpeed / speed)
	}
	p.Pos = p.Pos.Add(p.Vel.Scale(dt))
}

// KeepInBounds clips the ship to the world edge, killing velocity into the wall
func (p *Player) KeepInBounds() {
	c, clipped := ClampToBounds(p.Pos)
	if !clipped {
		return
	}
	if c.X != p.Pos.X {
		p.Vel.X = 0
	}
	if c.Y != p.Pos.Y {
		p.Vel.Y = 0
	}
	p.Pos = c
}

// Recharge ticks weapon cooldowns and regenerates ammo
func (p *Player) Recharge(dt float64) {
	for w, cd := range p.cooldown {
		if cd -= dt; cd <= 0 {
			delete(p.cooldown, w)
		} else {
			p.cooldown[w] = cd
		}
	}
	max := p.MaxAmmo()
	if p.Ammo >= max {
		p.ammoAcc = 0
		return
	}
	p.ammoAcc += AmmoRegen * dt
	if whole := int(p.ammoAcc); whole > 0 {
		p.Ammo += whole
		p.ammoAcc -= float64(whole)
		if p.Ammo > max {
			p.Ammo = max
		}
	}
}

// TryFire spends ammo and starts the weapon cooldown if the weapon is owned,
// off cooldown and affordable
func (p *Player) TryFire(weapon string, ammoCost int, cooldown float64) bool {
	if !p.Weapons[weapon] || p.cooldown[weapon] > 0 || p.Ammo < ammoCost {
		return false
	}
	p.Ammo -= ammoCost
	p.cooldown[weapon] = cooldown
	return true
}

// TakeDamage reduces health and returns true if the ship was destroyed
func (p *Player) TakeDamage(dmg int) bool {
	if p.Health <= 0 {
		return false
	}
	p.Health -= dmg
	if p.Health <= 0 {
		p.Health = 0
		return true
	}
	return false
}

// ToState converts to protocol state
func (p *Player) ToState() protocol.PlayerState {
	s := protocol.PlayerState{
		ID:        p.ID,
		Name:      p.Name,
		Colour:    p.Colour,
		X:         p.Pos.X,
		Y:         p.Pos.Y,
		Angle:     round1(p.Angle),
		Health:    p.Health,
		MaxHealth: p.MaxHealth(),
		Ammo:      p.Ammo,
		MaxAmmo:   p.MaxAmmo(),
		Score:     p.Score,
		Currency:  p.Currency,
	}
	if p.Orbiting != nil {
		s.Orbiting = p.Orbiting.Name
	}
	return s
}
