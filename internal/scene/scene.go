package scene

import (
	"image"
	"sort"
)

type entry struct {
	actor  *Actor
	handle Handle
}

type hit struct {
	name   string
	bounds image.Rectangle
}

// Scene is the per-panel actor collection. Dynamic actors are swapped as a
// whole by ReplaceDynamic, which also starts a new generation.
type Scene struct {
	nextID  uint64
	gen     uint64
	order   []uint64
	entries map[uint64]entry
	byActor map[*Actor]uint64
	hits    []hit
}

func New() *Scene {
	return &Scene{
		entries: make(map[uint64]entry),
		byActor: make(map[*Actor]uint64),
	}
}

func (s *Scene) Generation() uint64 { return s.gen }

func (s *Scene) Add(a *Actor) (Handle, error) {
	if a == nil {
		return Handle{}, ErrNilActor
	}
	if _, ok := s.byActor[a]; ok {
		return Handle{}, ErrAlreadyAdded
	}
	return s.insert(a), nil
}

func (s *Scene) insert(a *Actor) Handle {
	s.nextID++
	h := Handle{id: s.nextID, gen: s.gen}
	s.entries[h.id] = entry{actor: a, handle: h}
	s.byActor[a] = h.id
	s.order = append(s.order, h.id)
	return h
}

func (s *Scene) Remove(h Handle) error {
	e, ok := s.entries[h.id]
	if !ok || e.handle != h {
		return ErrStaleHandle
	}
	s.drop(h.id)
	return nil
}

func (s *Scene) drop(id uint64) {
	e := s.entries[id]
	delete(s.entries, id)
	delete(s.byActor, e.actor)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// ReplaceDynamic removes every dynamic actor and adds actors in their place.
// Nil entries are skipped. The scene is left untouched when any actor is
// rejected.
func (s *Scene) ReplaceDynamic(actors []*Actor) ([]Handle, error) {
	seen := make(map[*Actor]struct{}, len(actors))
	for _, a := range actors {
		if a == nil {
			continue
		}
		if a.Kind != Dynamic {
			return nil, ErrKind
		}
		if _, dup := seen[a]; dup {
			return nil, ErrAlreadyAdded
		}
		seen[a] = struct{}{}
	}

	kept := s.order[:0]
	for _, id := range s.order {
		e := s.entries[id]
		if e.actor.Kind == Dynamic {
			delete(s.entries, id)
			delete(s.byActor, e.actor)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	s.gen++

	handles := make([]Handle, 0, len(seen))
	for _, a := range actors {
		if a == nil {
			continue
		}
		handles = append(handles, s.insert(a))
	}
	return handles, nil
}

func (s *Scene) StaticCount() int { return s.count(Static) }

func (s *Scene) DynamicCount() int { return s.count(Dynamic) }

func (s *Scene) count(k Kind) int {
	n := 0
	for _, id := range s.order {
		if s.entries[id].actor.Kind == k {
			n++
		}
	}
	return n
}

// Find returns the first actor with the given name.
func (s *Scene) Find(name string) *Actor {
	for _, id := range s.order {
		if a := s.entries[id].actor; a.Name == name {
			return a
		}
	}
	return nil
}

// Draw paints every actor onto dst and records the screen bounds of
// pickable actors for Pick.
func (s *Scene) Draw(dst *image.RGBA, proj Projection) {
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()

	type item struct {
		a     *Actor
		depth float64
	}
	items := make([]item, 0, len(s.order))
	for _, id := range s.order {
		a := s.entries[id].actor
		if a.Shape == nil {
			continue
		}
		items = append(items, item{a: a, depth: a.Shape.depth(proj, w, h)})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].a.Layer != items[j].a.Layer {
			return items[i].a.Layer < items[j].a.Layer
		}
		return items[i].depth > items[j].depth
	})

	r := newRaster(dst)
	s.hits = s.hits[:0]
	for _, it := range items {
		b := it.a.Shape.draw(r, proj)
		if it.a.Pickable && !b.Empty() {
			s.hits = append(s.hits, hit{name: it.a.Name, bounds: b})
		}
	}
}

// Pick returns the name of the top-most pickable actor drawn under p during
// the last Draw.
func (s *Scene) Pick(p image.Point) (string, bool) {
	for i := len(s.hits) - 1; i >= 0; i-- {
		if p.In(s.hits[i].bounds) {
			return s.hits[i].name, true
		}
	}
	return "", false
}
