// Package dispatch maps pointer positions to panels and routes selection
// events so at most one panel holds a selection.
package dispatch

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/san-kum/forceview/internal/panel"
)

var (
	ErrDuplicateViewport = errors.New("dispatch: viewport already registered")
	ErrNilPanel          = errors.New("dispatch: nil panel")
)

// Event is one pointer click. A nil Viewport means the click landed outside
// every tracked viewport; an empty Element means background.
type Event struct {
	Viewport *int
	Element  string
	Pos      image.Point
}

// Hit builds an event for a click inside viewport index.
func Hit(index int, element string, pos image.Point) Event {
	return Event{Viewport: &index, Element: element, Pos: pos}
}

// Outside builds an event for a click that hit no viewport.
func Outside(pos image.Point) Event { return Event{Pos: pos} }

func (e Event) String() string {
	if e.Viewport == nil {
		return fmt.Sprintf("outside@%v", e.Pos)
	}
	if e.Element == "" {
		return fmt.Sprintf("viewport %d background@%v", *e.Viewport, e.Pos)
	}
	return fmt.Sprintf("viewport %d %s@%v", *e.Viewport, e.Element, e.Pos)
}

type viewport struct {
	index int
	panel panel.Selectable
	area  image.Rectangle
}

// Registry holds the immutable viewport bindings established at setup.
type Registry struct {
	viewports []viewport
}

func NewRegistry() *Registry { return &Registry{} }

// Register binds a panel to a viewport index and the surface rectangle it
// occupies. The area may be empty when the panel is not placed on a surface.
func (r *Registry) Register(index int, p panel.Selectable, area image.Rectangle) error {
	if p == nil {
		return ErrNilPanel
	}
	for _, v := range r.viewports {
		if v.index == index {
			return fmt.Errorf("%w: %d", ErrDuplicateViewport, index)
		}
	}
	r.viewports = append(r.viewports, viewport{index: index, panel: p, area: area.Canon()})
	sort.Slice(r.viewports, func(i, j int) bool { return r.viewports[i].index < r.viewports[j].index })
	return nil
}

func (r *Registry) Lookup(index int) (panel.Selectable, bool) {
	for _, v := range r.viewports {
		if v.index == index {
			return v.panel, true
		}
	}
	return nil, false
}

// Area returns the surface rectangle bound to index.
func (r *Registry) Area(index int) (image.Rectangle, bool) {
	for _, v := range r.viewports {
		if v.index == index {
			return v.area, true
		}
	}
	return image.Rectangle{}, false
}

// Panels returns the registered panels in viewport order.
func (r *Registry) Panels() []panel.Selectable {
	out := make([]panel.Selectable, len(r.viewports))
	for i, v := range r.viewports {
		out[i] = v.panel
	}
	return out
}

func (r *Registry) Len() int { return len(r.viewports) }

// Locate finds the viewport containing a surface pixel and converts the
// pixel to the panel's native resolution.
func (r *Registry) Locate(pt image.Point) (int, image.Point, bool) {
	for _, v := range r.viewports {
		if v.area.Empty() || !pt.In(v.area) {
			continue
		}
		return v.index, toLocal(pt, v.area, v.panel.Size()), true
	}
	return 0, image.Point{}, false
}

func toLocal(pt image.Point, area image.Rectangle, native image.Point) image.Point {
	rel := pt.Sub(area.Min)
	return image.Pt(
		rel.X*native.X/area.Dx(),
		rel.Y*native.Y/area.Dy(),
	)
}

// Pick builds the event for a click at a surface pixel.
func (r *Registry) Pick(pt image.Point) Event {
	index, local, ok := r.Locate(pt)
	if !ok {
		return Outside(pt)
	}
	p, _ := r.Lookup(index)
	name, _ := p.Pick(local)
	return Hit(index, name, pt)
}
