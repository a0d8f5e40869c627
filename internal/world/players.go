package world

import (
	"sort"

	"stellar-server/internal/geom"
)

// PlayerRegistry holds the active players. Callers must hold the engine lock.
type PlayerRegistry struct {
	players map[string]*Player
}

// NewPlayerRegistry creates an empty Player Registry
func NewPlayerRegistry() *PlayerRegistry {
	return &PlayerRegistry{players: make(map[string]*Player)}
}

// Add inserts a player
func (r *PlayerRegistry) Add(p *Player) {
	r.players[p.ID] = p
}

// Remove deletes a player by id; unknown ids are ignored
func (r *PlayerRegistry) Remove(id string) {
	delete(r.players, id)
}

// Get returns a player by id
func (r *PlayerRegistry) Get(id string) (*Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

// Len returns the number of active players
func (r *PlayerRegistry) Len() int {
	return len(r.players)
}

// Each calls fn for every active player
func (r *PlayerRegistry) Each(fn func(*Player)) {
	for _, p := range r.players {
		fn(p)
	}
}

// All returns the active players ordered by id
func (r *PlayerRegistry) All() []*Player {
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// InView returns the players positioned in [x, x+w] x [y, y+h], ordered by id
func (r *PlayerRegistry) InView(x, y, w, h float64) []*Player {
	rect := geom.Rect{X: x, Y: y, W: w, H: h}
	var out []*Player
	for _, p := range r.players {
		if rect.Contains(p.Pos) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Highest returns up to n players with the greatest score, descending, ties
// broken by id
func (r *PlayerRegistry) Highest(n int) []*Player {
	if n <= 0 {
		return nil
	}
	all := r.All()
	sort.SliceStable(all, func(i, j int) bool { return all[i].Score > all[j].Score })
	if len(all) > n {
		all = all[:n]
	}
	return all
}
