package cutborder

import "github.com/gogpu/cutborder/overlay"

// Rect is an element's bounding box in CSS pixels.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Style is a computed-style lookup.
type Style interface {
	// PropertyValue returns the computed value of a property, or "" when unset.
	PropertyValue(name string) string
}

// Surface is the drawing element injected into a bordered element.
type Surface interface {
	// SetBackingSize sets the surface's pixel resolution.
	SetBackingSize(width, height int)

	// SetDisplaySize pins the displayed size in CSS pixels.
	SetDisplaySize(width, height float64)

	// Present publishes the canvas content to the surface.
	Present(c *overlay.Canvas) error

	// Remove detaches the surface from its element.
	Remove()
}

// Element is the part of a DOM element the renderer reads and mutates.
//
// Elements are used as map keys, so implementations must be comparable
// (pointer types are the usual choice).
type Element interface {
	// BoundingClientRect returns the live bounding box.
	BoundingClientRect() Rect

	// ComputedStyle returns the live computed style.
	ComputedStyle() Style

	// Surface returns the child surface tagged with class, or nil.
	Surface(class string) Surface

	// PrependSurface injects a new surface tagged with class as the first child.
	PrependSurface(class string) Surface
}

// Measurer resolves a length token the renderer cannot interpret itself
// (em, rem, vw, ...) to CSS pixels, relative to an element.
type Measurer interface {
	Measure(el Element, token string) (float64, error)
}

// MeasurerFunc adapts a function to the Measurer interface.
type MeasurerFunc func(el Element, token string) (float64, error)

// Measure calls f(el, token).
func (f MeasurerFunc) Measure(el Element, token string) (float64, error) {
	return f(el, token)
}

// ResizeObserver delivers resize notifications for observed elements.
type ResizeObserver interface {
	Observe(el Element)
	Unobserve(el Element)
	Disconnect()
}

// Document is the environment a Renderer runs in.
type Document interface {
	Measurer

	// QueryAll returns the elements matching selector, in document order.
	QueryAll(selector string) []Element

	// DevicePixelRatio returns the current ratio of physical to CSS pixels.
	DevicePixelRatio() float64

	// NewResizeObserver returns an observer that calls callback with each
	// batch of resized elements.
	NewResizeObserver(callback func(entries []Element)) ResizeObserver
}
