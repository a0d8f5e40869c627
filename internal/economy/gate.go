package economy

import "stellar-server/internal/world"

// Rewards credited by the simulation
const (
	KillBounty     = 50
	AsteroidReward = 10
)

// UpgradeResult is the outcome of a successful upgrade purchase
type UpgradeResult struct {
	Name     string
	Tier     int
	NextCost int // -1 when the upgrade is maxed
}

// BuyUpgrade validates and applies one upgrade tier. On failure nothing about
// the player changes.
func BuyUpgrade(p *world.Player, name string) (UpgradeResult, bool) {
	u, ok := LookupUpgrade(name)
	if !ok {
		return UpgradeResult{}, false
	}
	tier := p.Tier(name)
	cost := u.CostFor(tier)
	if cost < 0 || p.Currency < cost {
		return UpgradeResult{}, false
	}

	prevMaxHealth, prevMaxAmmo := p.MaxHealth(), p.MaxAmmo()
	p.Currency -= cost
	p.Upgrades[name] = tier + 1

	// the bonus from a bigger hull or magazine is granted immediately
	if gain := p.MaxHealth() - prevMaxHealth; gain > 0 {
		p.Health += gain
	}
	if gain := p.MaxAmmo() - prevMaxAmmo; gain > 0 {
		p.Ammo += gain
	}
	return UpgradeResult{Name: name, Tier: tier + 1, NextCost: u.CostFor(tier + 1)}, true
}

// BuyWeapon validates and applies a weapon purchase
func BuyWeapon(p *world.Player, name string) bool {
	w, ok := LookupWeapon(name)
	if !ok || p.Weapons[name] || p.Currency < w.Cost {
		return false
	}
	p.Currency -= w.Cost
	p.Weapons[name] = true
	return true
}
