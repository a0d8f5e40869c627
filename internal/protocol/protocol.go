package protocol

import (
	"encoding/json"

	"stellar-server/internal/geom"
	"stellar-server/internal/palette"
)

// Client -> Server message types
const (
	MsgClientUpdate = "client_update"
	MsgAsk          = "ask"
	MsgToggleOrbit  = "toggle orbit"
	MsgDisconnect   = "disconnect"
	MsgReconnect    = "reconnect"
)

// Server -> Client message types
const (
	MsgServerUpdate   = "server_update"
	MsgNotification   = "notification"
	MsgUpgradesUpdate = "upgrades_update"
	MsgWeaponsUpdate  = "weapons_update"
	MsgOrbitUpdate    = "orbit_update"
	MsgLeaderboard    = "leaderboard_update"
	MsgKill           = "kill"
	MsgDeath          = "death"
	MsgInitialize     = "initialize"
)

// Ask actions
const (
	ActionBuyUpgrade = "buy_upgrade"
	ActionBuyWeapon  = "buy_weapon"
	ActionInitialize = "initialize"
)

// Orbit update payloads
const (
	OrbitEnter = "enter"
	OrbitExit  = "exit"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string `json:"t"`
	Data any    `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages, json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// Keys is the input-key vector held by the client
type Keys struct {
	Up       bool `json:"up"`
	Down     bool `json:"down"`
	Left     bool `json:"left"`
	Right    bool `json:"right"`
	Blasters bool `json:"blasters"`
	Torpedos bool `json:"torpedos"`
}

// Viewport is the size of the client's visible window
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ClientUpdate is sent by the client every frame
type ClientUpdate struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Colour   palette.Colour `json:"colour"`
	Keys     Keys           `json:"keys"`
	Viewport Viewport       `json:"viewport"`
	Time     int64          `json:"time"` // client clock, ms
}

// Ask is a minor request such as a purchase
type Ask struct {
	Action  string          `json:"action"`
	Request json.RawMessage `json:"request,omitempty"`
}

// PlayerState describes one player in a snapshot
type PlayerState struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Colour    palette.Colour `json:"colour"`
	X         float64        `json:"x"`
	Y         float64        `json:"y"`
	Angle     float64        `json:"angle"`
	Health    int            `json:"health"`
	MaxHealth int            `json:"max_health"`
	Ammo      int            `json:"ammo"`
	MaxAmmo   int            `json:"max_ammo"`
	Score     int            `json:"score"`
	Currency  int            `json:"currency"`
	Orbiting  string         `json:"orbiting,omitempty"`
}

// ObjectState describes one world object in a snapshot, tagged by kind
type ObjectState struct {
	ID     string          `json:"id"`
	Kind   string          `json:"kind"`
	Name   string          `json:"name,omitempty"`
	X      float64         `json:"x"`
	Y      float64         `json:"y"`
	Radius float64         `json:"radius"`
	Angle  float64         `json:"angle,omitempty"`
	Colour *palette.Colour `json:"colour,omitempty"`
	Owner  string          `json:"owner,omitempty"`
}

// MinimapObject is a landmark normalised to [0,1] world coordinates
type MinimapObject struct {
	X      float64        `json:"x"`
	Y      float64        `json:"y"`
	Colour palette.Colour `json:"colour"`
}

// ServerUpdate is the reply to every accepted client update
type ServerUpdate struct {
	Player         PlayerState     `json:"player"`
	Objects        []ObjectState   `json:"objects"`
	Players        []PlayerState   `json:"players"`
	Time           int64           `json:"time"`
	Offset         geom.Vec        `json:"offset"`
	Health         int             `json:"health"`
	Ammo           int             `json:"ammo"`
	MinimapObjects []MinimapObject `json:"minimap_objects"`
}

// Notification is a line of text shown to the player
type Notification struct {
	Text string `json:"text"`
}

// UpgradesUpdate confirms an upgrade purchase
type UpgradesUpdate struct {
	UpgradeBought   string `json:"upgrade_bought"`
	Tier            int    `json:"tier"`
	NextUpgradeCost int    `json:"next_upgrade_cost"` // -1 when maxed
}

// Standing is one leaderboard row
type Standing struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// UpgradeInfo describes one purchasable upgrade line
type UpgradeInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Costs       []int  `json:"costs"` // cost to reach tier i+1
	MaxTier     int    `json:"max_tier"`
}

// WeaponInfo describes one purchasable weapon
type WeaponInfo struct {
	Name     string  `json:"name"`
	Cost     int     `json:"cost"`
	Damage   int     `json:"damage"`
	Speed    float64 `json:"speed"`
	AmmoCost int     `json:"ammo_cost"`
	Cooldown float64 `json:"cooldown"`
}

// InitializeMsg bootstraps the client's shop UI
type InitializeMsg struct {
	Upgrades []UpgradeInfo `json:"upgrades"`
	Weapons  []WeaponInfo  `json:"weapons"`
}

// Identity is the reply to POST /
type Identity struct {
	Colour palette.Colour `json:"colour"`
	Name   string         `json:"name"`
	ID     string         `json:"id"`
	Token  string         `json:"token,omitempty"`
}
