package world

import (
	"sort"

	"stellar-server/internal/geom"
)

// Registry is the World Registry: every world object keyed by id, indexed by
// a spatial grid for viewport queries. Callers must hold the engine lock.
type Registry struct {
	objects map[string]Object
	grid    *spatialGrid
}

// NewRegistry creates an empty World Registry
func NewRegistry() *Registry {
	return &Registry{
		objects: make(map[string]Object),
		grid:    newSpatialGrid(Width, Height),
	}
}

// Add inserts or replaces an object
func (r *Registry) Add(o Object) {
	r.objects[o.ObjectID()] = o
	p := o.Position()
	r.grid.place(o.ObjectID(), p.X, p.Y)
}

// Remove deletes the object with the given id; unknown ids are ignored
func (r *Registry) Remove(id string) {
	delete(r.objects, id)
	r.grid.remove(id)
}

// Touch re-indexes an object after its position changed
func (r *Registry) Touch(o Object) {
	if _, ok := r.objects[o.ObjectID()]; !ok {
		return
	}
	p := o.Position()
	r.grid.place(o.ObjectID(), p.X, p.Y)
}

// Get returns the object with the given id
func (r *Registry) Get(id string) (Object, bool) {
	o, ok := r.objects[id]
	return o, ok
}

// Has reports whether id is registered
func (r *Registry) Has(id string) bool {
	_, ok := r.objects[id]
	return ok
}

// Len returns the number of registered objects
func (r *Registry) Len() int {
	return len(r.objects)
}

// Each calls fn for every object; fn must not add or remove objects
func (r *Registry) Each(fn func(Object)) {
	for _, o := range r.objects {
		fn(o)
	}
}

// Count returns how many objects of kind k are registered
func (r *Registry) Count(k Kind) int {
	n := 0
	for _, o := range r.objects {
		if o.Kind() == k {
			n++
		}
	}
	return n
}

// InView returns exactly the objects whose position lies in
// [x, x+w] x [y, y+h], ordered by id
func (r *Registry) InView(x, y, w, h float64) []Object {
	rect := geom.Rect{X: x, Y: y, W: w, H: h}
	var out []Object
	for _, id := range r.grid.candidates(x, y, w, h, nil) {
		o, ok := r.objects[id]
		if !ok {
			continue
		}
		if !rect.Contains(o.Position()) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ObjectID() < out[j].ObjectID() })
	return out
}
