package economy

import "stellar-server/internal/protocol"

// Upgrade is a purchasable ship improvement with a cost per tier
type Upgrade struct {
	Name        string
	Description string
	Costs       []int // Costs[i] buys tier i+1
}

// MaxTier is the highest tier the upgrade can reach
func (u Upgrade) MaxTier() int { return len(u.Costs) }

// CostFor returns the price of the next tier after current, or -1 when maxed
func (u Upgrade) CostFor(current int) int {
	if current < 0 || current >= len(u.Costs) {
		return -1
	}
	return u.Costs[current]
}

// Weapon is a purchasable gun
type Weapon struct {
	Name     string
	Cost     int
	Damage   int
	Speed    float64 // projectile speed, pixels/s
	AmmoCost int
	Cooldown float64 // seconds between shots
}

// Weapon names
const (
	Blaster = "blaster"
	Torpedo = "torpedo"
	Railgun = "railgun"
)

// Upgrades is the upgrade catalog in display order
var Upgrades = []Upgrade{
	{Name: "engine", Description: "Stronger thrusters", Costs: []int{50, 100, 200, 350, 550}},
	{Name: "hull", Description: "Reinforced plating, more max health", Costs: []int{75, 150, 250, 400, 600}},
	{Name: "magazine", Description: "Larger ammo bay", Costs: []int{40, 80, 160, 280, 450}},
}

// Weapons is the weapon catalog in display order
var Weapons = []Weapon{
	{Name: Blaster, Cost: 0, Damage: 10, Speed: 900, AmmoCost: 1, Cooldown: 0.2},
	{Name: Torpedo, Cost: 150, Damage: 40, Speed: 600, AmmoCost: 5, Cooldown: 1.0},
	{Name: Railgun, Cost: 400, Damage: 60, Speed: 1600, AmmoCost: 8, Cooldown: 1.5},
}

var (
	upgradeMap map[string]Upgrade
	weaponMap  map[string]Weapon
)

func init() {
	upgradeMap = make(map[string]Upgrade, len(Upgrades))
	for _, u := range Upgrades {
		upgradeMap[u.Name] = u
	}
	weaponMap = make(map[string]Weapon, len(Weapons))
	for _, w := range Weapons {
		weaponMap[w.Name] = w
	}
}

// LookupUpgrade finds an upgrade by name
func LookupUpgrade(name string) (Upgrade, bool) {
	u, ok := upgradeMap[name]
	return u, ok
}

// LookupWeapon finds a weapon by name
func LookupWeapon(name string) (Weapon, bool) {
	w, ok := weaponMap[name]
	return w, ok
}

// Catalog returns both catalogs in wire form for the "initialize" reply
func Catalog() protocol.InitializeMsg {
	msg := protocol.InitializeMsg{
		Upgrades: make([]protocol.UpgradeInfo, 0, len(Upgrades)),
		Weapons:  make([]protocol.WeaponInfo, 0, len(Weapons)),
	}
	for _, u := range Upgrades {
		msg.Upgrades = append(msg.Upgrades, protocol.UpgradeInfo{
			Name:        u.Name,
			Description: u.Description,
			Costs:       append([]int(nil), u.Costs...),
			MaxTier:     u.MaxTier(),
		})
	}
	for _, w := range Weapons {
		msg.Weapons = append(msg.Weapons, protocol.WeaponInfo{
			Name: w.Name, Cost: w.Cost, Damage: w.Damage,
			Speed: w.Speed, AmmoCost: w.AmmoCost, Cooldown: w.Cooldown,
		})
	}
	return msg
}
