package game

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"stellar-server/internal/bus"
	"stellar-server/internal/economy"
	"stellar-server/internal/orbit"
	"stellar-server/internal/palette"
	"stellar-server/internal/protocol"
	"stellar-server/internal/world"
)

// LeaderboardSize is how many standings the leaderboard keeps
const LeaderboardSize = 10

// ErrIDTaken is returned when another live session already flies the id
var ErrIDTaken = errors.New("player id held by another session")

// Analytics event types
const (
	EvtSessionStart = "session_start"
	EvtSessionEnd   = "session_end"
	EvtKill         = "player_kill"
	EvtPurchase     = "purchase"
	EvtOrbit        = "orbit"
	EvtAsteroid     = "asteroid_destroyed"
)

// Tracker records analytics events; it must not block
type Tracker interface {
	Track(evtType, playerID, sessionID string, data map[string]any)
}

type nopTracker struct{}

func (nopTracker) Track(string, string, string, map[string]any) {}

// Options configures an Engine
type Options struct {
	Log   *zap.Logger
	Stats Tracker
	Rand  *rand.Rand
	Now   func() time.Time
	// Grace is how long a disconnected player is kept for reconnection.
	// Zero keeps it until shutdown.
	Grace time.Duration
}

type retained struct {
	player *world.Player
	since  time.Time
}

// Engine owns the world state. Every mutation runs under its lock via Exec.
type Engine struct {
	mu  sync.Mutex
	log *zap.Logger

	Universe *world.Universe
	World    *world.Registry
	Players  *world.PlayerRegistry
	Bus      *bus.Bus
	Orbit    *orbit.Machine
	Stats    Tracker
	Rand     *rand.Rand

	now         func() time.Time
	grace       time.Duration
	leaderboard []protocol.Standing
	retained    map[string]*retained
	owners      map[string]any // player id -> owning session
}

// New builds the universe, registries and bus, and wires the scoring
// subscriptions
func New(opts Options) *Engine {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Stats == nil {
		opts.Stats = nopTracker{}
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	e := &Engine{
		log:      opts.Log.Named("engine"),
		Universe: world.NewUniverse(opts.Rand),
		World:    world.NewRegistry(),
		Players:  world.NewPlayerRegistry(),
		Bus:      bus.New(opts.Log),
		Stats:    opts.Stats,
		Rand:     opts.Rand,
		now:      opts.Now,
		grace:    opts.Grace,
		retained: make(map[string]*retained),
		owners:   make(map[string]any),
	}
	e.Orbit = orbit.NewMachine(e.Universe, e.Rand, e.now)
	for _, b := range e.Universe.Bodies() {
		e.World.Add(b)
	}

	// kill crediting runs before any session hears about the kill
	e.Bus.Subscribe(bus.TopicKill, e.onKill)
	e.Bus.Subscribe(bus.TopicScoreChanged, e.onScoreChanged)
	return e
}

// Exec runs fn under the engine lock. A panic inside fn is logged and
// swallowed so the caller's loop keeps going.
func (e *Engine) Exec(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("recovered panic", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	fn()
}

// Now returns the engine clock
func (e *Engine) Now() time.Time {
	return e.now()
}

// Leaderboard returns a copy of the current standings
func (e *Engine) Leaderboard() []protocol.Standing {
	return append([]protocol.Standing(nil), e.leaderboard...)
}

// Claim finds or creates the player for id on behalf of owner. A retained
// player is resumed; an id flown by another live session is refused.
func (e *Engine) Claim(owner any, id, name string, colour palette.Colour) (*world.Player, bool, error) {
	if p, ok := e.Players.Get(id); ok {
		if e.owners[id] == owner {
			return p, true, nil
		}
		return nil, false, ErrIDTaken
	}
	if r, ok := e.retained[id]; ok {
		delete(e.retained, id)
		e.owners[id] = owner
		return r.player, true, nil
	}
	if !palette.Contains(colour) {
		colour = palette.Random()
	}
	p := world.NewPlayer(id, name, colour)
	p.Spawn(e.Universe.Home, e.Rand)
	e.owners[id] = owner
	return p, false, nil
}

// Owns reports whether owner currently holds the player with id
func (e *Engine) Owns(owner any, id string) bool {
	o, ok := e.owners[id]
	return ok && o == owner
}

// Activate inserts p into both registries
func (e *Engine) Activate(p *world.Player) {
	delete(e.retained, p.ID)
	p.Active = true
	e.Players.Add(p)
	e.World.Add(p)
}

// Deactivate removes p from both registries and keeps it for reconnection
func (e *Engine) Deactivate(p *world.Player) {
	p.Active = false
	p.Keys = world.Keys{}
	e.Players.Remove(p.ID)
	e.World.Remove(p.ID)
	e.retained[p.ID] = &retained{player: p, since: e.now()}
}

// Lookup finds a player by id, active or retained
func (e *Engine) Lookup(id string) (*world.Player, bool) {
	if p, ok := e.Players.Get(id); ok {
		return p, true
	}
	if r, ok := e.retained[id]; ok {
		return r.player, true
	}
	return nil, false
}

// Retained returns the number of players kept for reconnection
func (e *Engine) Retained() int {
	return len(e.retained)
}

// Respawn puts a destroyed ship back at the home planet
func (e *Engine) Respawn(p *world.Player) {
	p.Spawn(e.Universe.Home, e.Rand)
	e.World.Touch(p)
}

// Sweep discards retained players whose grace period has expired
func (e *Engine) Sweep() int {
	if e.grace <= 0 {
		return 0
	}
	cutoff := e.now().Add(-e.grace)
	n := 0
	for id, r := range e.retained {
		if r.since.Before(cutoff) {
			delete(e.retained, id)
			delete(e.owners, id)
			n++
		}
	}
	if n > 0 {
		e.log.Debug("retention sweep", zap.Int("discarded", n))
	}
	return n
}

func (e *Engine) onKill(ev bus.Event) {
	k := ev.(bus.Kill)
	if victim, ok := e.Lookup(k.Victim); ok {
		victim.Deaths++
	}
	killer, ok := e.Lookup(k.Killer)
	if !ok {
		return
	}
	killer.Score++
	killer.Kills++
	killer.Currency += economy.KillBounty
	e.Stats.Track(EvtKill, k.Killer, "", map[string]any{"victim": k.Victim})
	e.Bus.Publish(bus.ScoreChanged{PlayerID: k.Killer})
}

func (e *Engine) onScoreChanged(bus.Event) {
	top := e.Players.Highest(LeaderboardSize)
	standings := make([]protocol.Standing, 0, len(top))
	for _, p := range top {
		standings = append(standings, protocol.Standing{ID: p.ID, Name: p.Name, Score: p.Score})
	}
	e.leaderboard = standings
	e.Bus.Publish(bus.LeaderboardUpdate{Standings: e.Leaderboard()})
}
