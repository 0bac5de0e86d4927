package dispatch

import (
	"log/slog"

	"github.com/san-kum/forceview/internal/panel"
)

type Kind int

const (
	RoutedTo Kind = iota
	GlobalDeselect
)

func (k Kind) String() string {
	if k == RoutedTo {
		return "routed"
	}
	return "global-deselect"
}

// Result reports where an event went. Panel and Selection are set only when
// Kind is RoutedTo.
type Result struct {
	Kind      Kind
	Viewport  int
	Panel     panel.Selectable
	Selection panel.Selection
}

// Clock is the part of the timeline the dispatcher consults.
type Clock interface {
	Playing() bool
	// Last reports the most recently rendered timestamp.
	Last() (float64, bool)
}

// Listener observes every panel whose selection changed.
type Listener func(id panel.ID, sel panel.Selection)

type Dispatcher struct {
	reg       *Registry
	clock     Clock
	logger    *slog.Logger
	listeners []Listener
}

func NewDispatcher(reg *Registry, clock Clock, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{reg: reg, clock: clock, logger: logger.With("component", "dispatch")}
}

func (d *Dispatcher) OnSelect(l Listener) { d.listeners = append(d.listeners, l) }

// Dispatch routes ev to exactly one panel, or deselects everywhere.
func (d *Dispatcher) Dispatch(ev Event) Result {
	res := Result{Kind: GlobalDeselect}
	var target panel.Selectable
	if ev.Viewport != nil {
		if p, ok := d.reg.Lookup(*ev.Viewport); ok {
			target = p
			res = Result{Kind: RoutedTo, Viewport: *ev.Viewport, Panel: p, Selection: d.parse(p, ev.Element)}
		} else {
			d.logger.Debug("unregistered viewport", "event", ev.String())
		}
	}

	prev := make([]panel.Selection, d.reg.Len())
	panels := d.reg.Panels()
	for i, p := range panels {
		prev[i] = p.Selection()
		if p == target {
			p.HandleSelection(res.Selection)
		} else {
			p.HandleSelection(panel.None)
		}
	}

	last, rendered := 0.0, false
	if d.clock != nil && !d.clock.Playing() {
		last, rendered = d.clock.Last()
	}
	for i, p := range panels {
		cur := p.Selection()
		if cur == prev[i] {
			continue
		}
		if rendered {
			p.RenderAt(last)
		}
		for _, l := range d.listeners {
			l(p.ID(), cur)
		}
	}

	if res.Kind == RoutedTo {
		res.Selection = target.Selection()
	}
	d.logger.Debug("dispatched", "event", ev.String(), "result", res.Kind.String(), "selection", res.Selection.String())
	return res
}

// parse converts an element name to a selection. Names the panel does not
// recognize count as a background click.
func (d *Dispatcher) parse(p panel.Selectable, element string) panel.Selection {
	if element == "" {
		return panel.None
	}
	id, err := p.ParseElement(element)
	if err != nil {
		d.logger.Debug("element parse failed", "panel", p.ID().String(), "element", element, "err", err)
		return panel.None
	}
	return panel.Select(id)
}
