package session

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"stellar-server/internal/bus"
	"stellar-server/internal/economy"
	"stellar-server/internal/game"
	"stellar-server/internal/geom"
	"stellar-server/internal/orbit"
	"stellar-server/internal/protocol"
	"stellar-server/internal/telemetry"
	"stellar-server/internal/world"
)

const (
	MaxIDLen    = 32
	MaxNameLen  = 16
	DefaultName = "anonymous"
)

// Sender delivers one typed message to the connected client without blocking
type Sender interface {
	Send(msgType string, data any)
}

// Options carries per-connection details
type Options struct {
	ConnID string
	// Subject is the player id bound to the connection's identity token;
	// empty for unauthenticated connections
	Subject string
	Log     *zap.Logger
}

// Manager is the per-connection session: it binds one client to one player
// and translates client messages into engine operations
type Manager struct {
	engine *game.Engine
	out    Sender
	log    *zap.Logger
	tracer trace.Tracer
	connID string
	subj   string

	player       *world.Player
	lastUpdate   int64
	hasUpdate    bool
	subs         []bus.Handle
	disconnected bool
}

// New creates a session for one connection
func New(engine *game.Engine, out Sender, opts Options) *Manager {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Manager{
		engine: engine,
		out:    out,
		log:    opts.Log.Named("session").With(zap.String("conn", opts.ConnID)),
		tracer: telemetry.Tracer("session"),
		connID: opts.ConnID,
		subj:   opts.Subject,
	}
}

// PlayerID returns the bound player's id, or "" before the first update
func (m *Manager) PlayerID() string {
	var id string
	m.engine.Exec(func() {
		if m.player != nil {
			id = m.player.ID
		}
	})
	return id
}

// Subscriptions returns how many bus subscriptions the session holds
func (m *Manager) Subscriptions() int {
	var n int
	m.engine.Exec(func() { n = len(m.subs) })
	return n
}

// HandleClientUpdate applies one client frame and returns the viewport
// snapshot. Stale or invalid updates return false and change nothing.
func (m *Manager) HandleClientUpdate(ctx context.Context, u protocol.ClientUpdate) (*protocol.ServerUpdate, bool) {
	_, span := m.tracer.Start(ctx, "session.client_update")
	defer span.End()

	var reply *protocol.ServerUpdate
	m.engine.Exec(func() { reply = m.clientUpdate(u) })
	span.SetAttributes(attribute.Bool("accepted", reply != nil))
	return reply, reply != nil
}

func (m *Manager) clientUpdate(u protocol.ClientUpdate) *protocol.ServerUpdate {
	if m.disconnected {
		return nil
	}
	if m.hasUpdate && u.Time <= m.lastUpdate {
		return nil
	}
	if u.Viewport.Width <= 0 || u.Viewport.Height <= 0 {
		return nil
	}
	if m.player == nil && !m.join(u) {
		return nil
	}

	m.lastUpdate = u.Time
	m.hasUpdate = true
	m.player.Keys = u.Keys
	return m.snapshot(u.Viewport)
}

// join binds the session to a player on its first valid update
func (m *Manager) join(u protocol.ClientUpdate) bool {
	if u.ID == "" || len(u.ID) > MaxIDLen {
		return false
	}
	if m.subj != "" && u.ID != m.subj {
		m.log.Warn("client update for foreign id", zap.String("id", u.ID), zap.String("token_subject", m.subj))
		return false
	}

	p, resumed, err := m.engine.Claim(m, u.ID, CleanName(u.Name), u.Colour)
	if errors.Is(err, game.ErrIDTaken) {
		m.notify("that id is already in use.")
		return false
	}
	if err != nil {
		m.log.Error("claim player", zap.Error(err))
		return false
	}

	m.player = p
	m.engine.Activate(p)
	m.subscribe()
	m.log.Info("player joined",
		zap.String("id", p.ID),
		zap.String("name", p.Name),
		zap.Bool("resumed", resumed))
	m.engine.Stats.Track(game.EvtSessionStart, p.ID, m.connID, map[string]any{"resumed": resumed})
	m.engine.Bus.Publish(bus.ScoreChanged{PlayerID: p.ID})
	return true
}

func (m *Manager) snapshot(vp protocol.Viewport) *protocol.ServerUpdate {
	p := m.player
	off := geom.Vec{X: p.Pos.X - vp.Width/2, Y: p.Pos.Y - vp.Height/2}

	objs := m.engine.World.InView(off.X, off.Y, vp.Width, vp.Height)
	objects := make([]protocol.ObjectState, 0, len(objs))
	for _, o := range objs {
		objects = append(objects, o.State())
	}
	ships := m.engine.Players.InView(off.X, off.Y, vp.Width, vp.Height)
	players := make([]protocol.PlayerState, 0, len(ships))
	for _, s := range ships {
		players = append(players, s.ToState())
	}

	return &protocol.ServerUpdate{
		Player:         p.ToState(),
		Objects:        objects,
		Players:        players,
		Time:           m.engine.Now().UnixMilli(),
		Offset:         off,
		Health:         p.Health,
		Ammo:           p.Ammo,
		MinimapObjects: m.engine.Universe.MinimapObjects(),
	}
}

// HandleAsk runs a shop action. Unknown actions are ignored.
func (m *Manager) HandleAsk(ctx context.Context, a protocol.Ask) {
	_, span := m.tracer.Start(ctx, "session.ask", trace.WithAttributes(attribute.String("action", a.Action)))
	defer span.End()

	m.engine.Exec(func() {
		if m.player == nil || m.disconnected {
			return
		}
		switch a.Action {
		case protocol.ActionBuyUpgrade:
			m.buyUpgrade(protocol.RequestName(a.Request, "upgrade_name"))
		case protocol.ActionBuyWeapon:
			m.buyWeapon(protocol.RequestName(a.Request, "weapon_name"))
		case protocol.ActionInitialize:
			m.out.Send(protocol.MsgInitialize, economy.Catalog())
		}
	})
}

func (m *Manager) buyUpgrade(name string) {
	res, ok := economy.BuyUpgrade(m.player, name)
	if !ok {
		m.notify("unable to purchase " + name)
		return
	}
	m.engine.Stats.Track(game.EvtPurchase, m.player.ID, m.connID, map[string]any{"upgrade": name, "tier": res.Tier})
	m.out.Send(protocol.MsgUpgradesUpdate, protocol.UpgradesUpdate{
		UpgradeBought:   res.Name,
		Tier:            res.Tier,
		NextUpgradeCost: res.NextCost,
	})
}

func (m *Manager) buyWeapon(name string) {
	if !economy.BuyWeapon(m.player, name) {
		m.notify("unable to purchase weapon " + name)
		return
	}
	m.engine.Stats.Track(game.EvtPurchase, m.player.ID, m.connID, map[string]any{"weapon": name})
	m.out.Send(protocol.MsgWeaponsUpdate, name)
	m.notify("you have purchased the " + name)
}

// HandleToggleOrbit enters or leaves orbit and tells only this client
func (m *Manager) HandleToggleOrbit(ctx context.Context) {
	_, span := m.tracer.Start(ctx, "session.toggle_orbit")
	defer span.End()

	m.engine.Exec(func() {
		if m.player == nil || m.disconnected {
			return
		}
		out, planet := m.engine.Orbit.Toggle(m.player)
		span.SetAttributes(attribute.String("outcome", out.String()))
		switch out {
		case orbit.Entered:
			m.engine.Stats.Track(game.EvtOrbit, m.player.ID, m.connID, map[string]any{"planet": planet.Name})
			m.notify("now orbiting planet " + planet.Name + ". press C or M to exit orbit.")
			m.out.Send(protocol.MsgOrbitUpdate, protocol.OrbitEnter)
		case orbit.Exited:
			m.engine.World.Touch(m.player)
			m.out.Send(protocol.MsgOrbitUpdate, protocol.OrbitExit)
		case orbit.TooFar:
			m.notify("get closer to a planet and try again.")
		case orbit.TooSoon:
			m.notify("you just left orbit!")
		}
	})
}

// HandleDisconnect takes the player out of the world and keeps it for a
// later reconnect. Repeated calls are no-ops.
func (m *Manager) HandleDisconnect(ctx context.Context) {
	_, span := m.tracer.Start(ctx, "session.disconnect")
	defer span.End()
	m.engine.Exec(m.disconnect)
}

func (m *Manager) disconnect() {
	if m.disconnected {
		return
	}
	m.disconnected = true
	m.unsubscribe()
	p := m.player
	if p == nil || !p.Active || !m.engine.Owns(m, p.ID) {
		return
	}
	m.engine.Deactivate(p)
	m.log.Info("player disconnected", zap.String("id", p.ID), zap.String("name", p.Name))
	m.engine.Stats.Track(game.EvtSessionEnd, p.ID, m.connID, map[string]any{"score": p.Score})
	m.engine.Bus.Publish(bus.ScoreChanged{PlayerID: p.ID})
}

// HandleReconnect puts a disconnected player back into the world
func (m *Manager) HandleReconnect(ctx context.Context) {
	_, span := m.tracer.Start(ctx, "session.reconnect")
	defer span.End()

	m.engine.Exec(func() {
		p := m.player
		if p == nil || p.Active {
			return
		}
		m.disconnected = false
		if !m.engine.Owns(m, p.ID) {
			// swept from retention; the next update joins afresh
			m.player = nil
			return
		}
		m.engine.Activate(p)
		m.subscribe()
		m.log.Info("player reconnected", zap.String("id", p.ID), zap.String("name", p.Name))
		m.engine.Bus.Publish(bus.ScoreChanged{PlayerID: p.ID})
	})
}

// Close tears the session down when the connection goes away
func (m *Manager) Close() {
	m.engine.Exec(m.disconnect)
}

func (m *Manager) subscribe() {
	m.unsubscribe()
	m.subs = append(m.subs,
		m.engine.Bus.Subscribe(bus.TopicKill, m.onKill),
		m.engine.Bus.Subscribe(bus.TopicLeaderboard, m.onLeaderboard),
	)
}

func (m *Manager) unsubscribe() {
	for _, h := range m.subs {
		m.engine.Bus.Unsubscribe(h)
	}
	m.subs = nil
}

func (m *Manager) onKill(ev bus.Event) {
	k := ev.(bus.Kill)
	if m.player == nil {
		return
	}
	if k.Killer == m.player.ID {
		m.notify("you have killed " + m.nameOf(k.Victim))
		m.out.Send(protocol.MsgKill, nil)
	}
	if k.Victim == m.player.ID {
		m.notify("you were killed by " + m.nameOf(k.Killer))
		m.out.Send(protocol.MsgDeath, nil)
	}
}

func (m *Manager) onLeaderboard(ev bus.Event) {
	m.out.Send(protocol.MsgLeaderboard, ev.(bus.LeaderboardUpdate).Standings)
}

func (m *Manager) nameOf(id string) string {
	if p, ok := m.engine.Lookup(id); ok {
		return p.Name
	}
	return id
}

func (m *Manager) notify(text string) {
	m.out.Send(protocol.MsgNotification, protocol.Notification{Text: text})
}

// CleanName trims the display name and caps its length in runes
func CleanName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultName
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		name = string([]rune(name)[:MaxNameLen])
	}
	return name
}
