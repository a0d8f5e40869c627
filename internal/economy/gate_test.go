package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stellar-server/internal/palette"
	"stellar-server/internal/world"
)

func newPilot(currency int) *world.Player {
	p := world.NewPlayer("p1", "Nova", palette.Colours[0])
	p.Currency = currency
	return p
}

func TestCatalogNamesMatchShipStats(t *testing.T) {
	for _, name := range []string{world.UpgradeEngine, world.UpgradeHull, world.UpgradeMagazine} {
		_, ok := LookupUpgrade(name)
		assert.True(t, ok, name)
	}
	w, ok := LookupWeapon(world.DefaultWeapon)
	require.True(t, ok)
	assert.Zero(t, w.Cost)
}

func TestBuyUpgradeAdvancesTier(t *testing.T) {
	p := newPilot(1000)
	res, ok := BuyUpgrade(p, "engine")
	require.True(t, ok)
	assert.Equal(t, UpgradeResult{Name: "engine", Tier: 1, NextCost: 100}, res)
	assert.Equal(t, 950, p.Currency)
	assert.Equal(t, 1, p.Tier("engine"))
}

func TestBuyUpgradeUntilMaxed(t *testing.T) {
	p := newPilot(100000)
	u, _ := LookupUpgrade("magazine")
	var last UpgradeResult
	for i := 0; i < u.MaxTier(); i++ {
		var ok bool
		last, ok = BuyUpgrade(p, "magazine")
		require.True(t, ok)
	}
	assert.Equal(t, -1, last.NextCost)

	before := *p
	_, ok := BuyUpgrade(p, "magazine")
	assert.False(t, ok)
	assert.Equal(t, before.Currency, p.Currency)
	assert.Equal(t, u.MaxTier(), p.Tier("magazine"))
}

func TestBuyUpgradeRejections(t *testing.T) {
	p := newPilot(10)
	_, ok := BuyUpgrade(p, "engine")
	assert.False(t, ok, "insufficient currency")
	_, ok = BuyUpgrade(p, "warp drive")
	assert.False(t, ok, "unknown upgrade")
	assert.Equal(t, 10, p.Currency)
	assert.Empty(t, p.Upgrades)
}

func TestHullUpgradeRaisesHealthImmediately(t *testing.T) {
	p := newPilot(1000)
	_, ok := BuyUpgrade(p, "hull")
	require.True(t, ok)
	assert.Equal(t, world.BaseHealth+world.HealthPerTier, p.MaxHealth())
	assert.Equal(t, p.MaxHealth(), p.Health)
}

func TestBuyWeapon(t *testing.T) {
	p := newPilot(500)
	assert.True(t, BuyWeapon(p, Torpedo))
	assert.Equal(t, 350, p.Currency)
	assert.True(t, p.Weapons[Torpedo])

	assert.False(t, BuyWeapon(p, Torpedo), "already owned")
	assert.False(t, BuyWeapon(p, Railgun), "insufficient currency")
	assert.False(t, BuyWeapon(p, "laser"), "unknown weapon")
	assert.False(t, BuyWeapon(p, Blaster), "blaster is owned from the start")
	assert.Equal(t, 350, p.Currency)
	assert.False(t, p.Weapons[Railgun])
}

func TestCatalogIsACopy(t *testing.T) {
	c := Catalog()
	require.Len(t, c.Upgrades, len(Upgrades))
	require.Len(t, c.Weapons, len(Weapons))
	c.Upgrades[0].Costs[0] = 1
	assert.Equal(t, 50, Upgrades[0].Costs[0])
}
