package cutborder

import (
	"errors"
	"fmt"

	"github.com/gogpu/cutborder/overlay"
	"github.com/gogpu/gg"
)

// Renderer errors.
var (
	// ErrAlreadyActive is returned by a second call to Activate.
	ErrAlreadyActive = errors.New("cutborder: renderer already active")

	// ErrReleased is returned by operations on a released renderer.
	ErrReleased = errors.New("cutborder: renderer released")

	// ErrNilElement is returned by Draw when given a nil element.
	ErrNilElement = errors.New("cutborder: nil element")

	// ErrNotTarget is returned by Draw for an element that Activate did not
	// find through the selector.
	ErrNotTarget = errors.New("cutborder: element is not a border target")
)

// target is the per-element state kept across draws: the injected surface
// and the canvas rasterizing into it. Everything else is recomputed.
type target struct {
	surface Surface
	canvas  *overlay.Canvas
}

// Renderer draws cut-corner borders on every opted-in element of a Document
// and keeps them in sync with element resizes.
//
// Renderer is NOT safe for concurrent use; call it from the goroutine that
// delivers resize notifications.
type Renderer struct {
	doc  Document
	opts options

	observer ResizeObserver
	elements []Element
	members  map[Element]bool
	observed map[Element]bool
	targets  map[Element]*target

	active   bool
	released bool
}

// New creates a Renderer for doc. Nothing is drawn until Activate.
func New(doc Document, opts ...Option) *Renderer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.measurer == nil {
		o.measurer = doc
	}
	return &Renderer{
		doc:      doc,
		opts:     o,
		members:  make(map[Element]bool),
		observed: make(map[Element]bool),
		targets:  make(map[Element]*target),
	}
}

// Activate enumerates the opted-in elements once, draws each of them and
// registers each with a shared resize observer. It returns the number of
// elements found.
//
// A failing draw is logged and does not stop activation.
func (r *Renderer) Activate() (int, error) {
	if r.released {
		return 0, ErrReleased
	}
	if r.active {
		return len(r.elements), ErrAlreadyActive
	}
	r.active = true

	r.elements = r.doc.QueryAll(r.opts.selector)
	if len(r.elements) == 0 {
		Logger().Debug("cutborder: no targets", "selector", r.opts.selector)
		return 0, nil
	}

	for _, el := range r.elements {
		r.members[el] = true
	}
	r.observer = r.doc.NewResizeObserver(r.handleResize)
	for _, el := range r.elements {
		if err := r.Draw(el); err != nil {
			Logger().Warn("cutborder: initial draw failed", "err", err)
		}
		r.observer.Observe(el)
		r.observed[el] = true
	}

	Logger().Info("cutborder: activated", "selector", r.opts.selector, "targets", len(r.elements))
	return len(r.elements), nil
}

// Elements returns the elements found by Activate, in document order.
func (r *Renderer) Elements() []Element {
	out := make([]Element, len(r.elements))
	copy(out, r.elements)
	return out
}

// IsTarget reports whether el was found by Activate and has not been released.
func (r *Renderer) IsTarget(el Element) bool {
	return r.members[el]
}

// Observed reports whether el is registered for resize notifications.
func (r *Renderer) Observed(el Element) bool {
	return r.observed[el]
}

// handleResize redraws each registered element of a notification batch.
func (r *Renderer) handleResize(entries []Element) {
	for _, el := range entries {
		if !r.observed[el] {
			Logger().Debug("cutborder: resize for unregistered element ignored")
			continue
		}
		if err := r.Draw(el); err != nil {
			Logger().Warn("cutborder: redraw failed", "err", err)
		}
	}
}

// Draw recomputes the border of el from its live style and geometry and
// paints it. The element's surface is created on the first draw and reused
// afterwards. Only elements found by Activate can be drawn.
func (r *Renderer) Draw(el Element) error {
	if r.released {
		return ErrReleased
	}
	if el == nil {
		return ErrNilElement
	}
	if !r.members[el] {
		return ErrNotTarget
	}

	cfg := ParseConfig(el, r.opts.props, r.opts.measurer)
	box := el.BoundingClientRect()
	geom := cfg.Outline(box.Width, box.Height)

	col, err := ParseColor(cfg.Color)
	if err != nil {
		Logger().Warn("cutborder: unusable border color, using black", "color", cfg.Color, "err", err)
		col = gg.Black
	}

	t := r.target(el)
	dpr := r.doc.DevicePixelRatio()
	if err := t.canvas.Configure(box.Width, box.Height, dpr); err != nil {
		return fmt.Errorf("cutborder: configure surface: %w", err)
	}
	pw, ph := t.canvas.PixelSize()
	t.surface.SetBackingSize(pw, ph)
	t.surface.SetDisplaySize(box.Width, box.Height)

	Logger().Debug("cutborder: draw",
		"width", box.Width, "height", box.Height, "dpr", t.canvas.Scale(),
		"stroke", cfg.Width, "mode", cfg.Mode, "cuts", cfg.Cuts)

	if err := t.canvas.Draw(func(dc *gg.Context) error {
		return geom.stroke(dc, cfg.Width, col)
	}); err != nil {
		return fmt.Errorf("cutborder: stroke: %w", err)
	}
	if err := t.surface.Present(t.canvas); err != nil {
		return fmt.Errorf("cutborder: present: %w", err)
	}
	return nil
}

// target returns the per-element state, creating it on first use. An
// existing surface tagged with the surface class is adopted.
func (r *Renderer) target(el Element) *target {
	if t, ok := r.targets[el]; ok {
		return t
	}
	s := el.Surface(r.opts.surfaceClass)
	if s == nil {
		s = el.PrependSurface(r.opts.surfaceClass)
	}
	var canvasOpts []overlay.Option
	if r.opts.provider != nil {
		canvasOpts = append(canvasOpts, overlay.WithDeviceProvider(r.opts.provider))
	}
	t := &target{surface: s, canvas: overlay.New(canvasOpts...)}
	r.targets[el] = t
	return t
}

// Canvas returns the canvas backing el's border, or nil if el was never drawn.
func (r *Renderer) Canvas(el Element) *overlay.Canvas {
	if t, ok := r.targets[el]; ok {
		return t.canvas
	}
	return nil
}

// Release stops resize observation, removes every injected surface and
// frees the canvases. The renderer owns those resources exclusively and
// cannot be used afterwards. Release is idempotent.
func (r *Renderer) Release() error {
	if r.released {
		return nil
	}
	r.released = true

	if r.observer != nil {
		for el := range r.observed {
			r.observer.Unobserve(el)
		}
		r.observer.Disconnect()
		r.observer = nil
	}

	var errs []error
	for el, t := range r.targets {
		t.surface.Remove()
		if err := t.canvas.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(r.targets, el)
	}
	clear(r.observed)
	clear(r.members)

	Logger().Info("cutborder: released", "targets", len(r.elements))
	r.elements = nil
	return errors.Join(errs...)
}
