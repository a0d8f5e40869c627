package world

import (
	"stellar-server/internal/geom"
	"stellar-server/internal/ids"
	"stellar-server/internal/protocol"
)

const (
	ProjectileRadius   = 4.0
	ProjectileLifetime = 2.0  // seconds
	ProjectileOffset   = 30.0 // spawn distance from ship center
)

// Projectile is a shot fired by a player
type Projectile struct {
	ID      string
	OwnerID string
	Weapon  string
	Pos     geom.Vec
	Vel     geom.Vec
	Angle   float64
	Damage  int
	Life    float64
	Alive   bool
}

// NewProjectile fires a shot from owner's nose along its facing direction
func NewProjectile(owner *Player, weapon string, speed float64, damage int) *Projectile {
	return &Projectile{
		ID:      "shot-" + ids.Hex(8),
		OwnerID: owner.ID,
		Weapon:  weapon,
		Pos:     owner.Pos.Add(geom.Polar(ProjectileOffset, owner.Angle)),
		Vel:     geom.Polar(speed, owner.Angle).Add(owner.Vel.Scale(0.3)), // inherit some of ship velocity
		Angle:   owner.Angle,
		Damage:  damage,
		Life:    ProjectileLifetime,
		Alive:   true,
	}
}

func (p *Projectile) ObjectID() string   { return p.ID }
func (p *Projectile) Kind() Kind         { return KindProjectile }
func (p *Projectile) Position() geom.Vec { return p.Pos }

func (p *Projectile) State() protocol.ObjectState {
	return protocol.ObjectState{
		ID: p.ID, Kind: string(KindProjectile), Name: p.Weapon,
		X: p.Pos.X, Y: p.Pos.Y, Radius: ProjectileRadius,
		Angle: round1(p.Angle), Owner: p.OwnerID,
	}
}

// Step moves the projectile one tick; it dies at the world edge
func (p *Projectile) Step(dt float64) {
	if !p.Alive {
		return
	}
	p.Pos = p.Pos.Add(p.Vel.Scale(dt))
	p.Life -= dt
	var clipped bool
	if p.Pos, clipped = ClampToBounds(p.Pos); clipped || p.Life <= 0 {
		p.Alive = false
	}
}
