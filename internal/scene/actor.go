package scene

import "errors"

var (
	ErrAlreadyAdded = errors.New("scene: actor already added")
	ErrStaleHandle  = errors.New("scene: stale actor handle")
	ErrNilActor     = errors.New("scene: nil actor")
	ErrKind         = errors.New("scene: static actor passed as dynamic")
)

type Kind int

const (
	Static Kind = iota
	Dynamic
)

func (k Kind) String() string {
	if k == Dynamic {
		return "dynamic"
	}
	return "static"
}

// Actor is one drawable primitive owned by a single Scene. Actors are drawn
// by ascending Layer, then far to near.
type Actor struct {
	Name     string
	Kind     Kind
	Pickable bool
	Layer    int
	Shape    Shape
}

// Handle identifies an actor inside a Scene for one generation.
type Handle struct {
	id  uint64
	gen uint64
}

func (h Handle) Generation() uint64 { return h.gen }
