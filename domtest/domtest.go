// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package domtest provides an in-memory DOM for exercising cutborder without
// a browser.
//
// A Document holds elements with fixed geometry and computed style, measures
// lengths the way a probe node would, and delivers resize notifications
// synchronously when the test calls Resize or Notify:
//
//	doc := domtest.NewDocument()
//	el := doc.NewElement("card", 200, 100, "js-border-polygon")
//	el.Style.Set("--cut-size", "10px")
//
//	r := cutborder.New(doc)
//	r.Activate()
//	doc.Resize(el, 300, 100) // redraws el only
package domtest

import (
	"errors"
	"fmt"
	"image"
	"slices"
	"strconv"
	"strings"

	"github.com/gogpu/cutborder"
	"github.com/gogpu/cutborder/overlay"
)

// Errors returned by domtest.
var (
	// ErrUnsupportedUnit is returned by Measure for units it cannot resolve.
	ErrUnsupportedUnit = errors.New("domtest: unsupported unit")

	// ErrDetached is returned by Present on a removed surface.
	ErrDetached = errors.New("domtest: surface is detached")
)

// Style is a computed style backed by a map.
type Style map[string]string

// PropertyValue returns the value of name, or "".
func (s Style) PropertyValue(name string) string {
	return s[name]
}

// Set assigns a property value.
func (s Style) Set(name, value string) {
	s[name] = value
}

// Element is an in-memory element.
type Element struct {
	ID       string
	Classes  []string
	Attrs    map[string]string
	Rect     cutborder.Rect
	Style    Style
	FontSize float64 // px; 0 inherits the document root font size

	surfaces []*Surface
	doc      *Document
}

var _ cutborder.Element = (*Element)(nil)

// BoundingClientRect returns the element's geometry.
func (e *Element) BoundingClientRect() cutborder.Rect {
	return e.Rect
}

// ComputedStyle returns the element's style.
func (e *Element) ComputedStyle() cutborder.Style {
	return e.Style
}

// Surface returns the first child surface carrying class, or nil.
func (e *Element) Surface(class string) cutborder.Surface {
	for _, s := range e.surfaces {
		if s.Class == class {
			return s
		}
	}
	return nil
}

// PrependSurface inserts a new surface carrying class as the first child.
func (e *Element) PrependSurface(class string) cutborder.Surface {
	s := &Surface{Class: class, el: e}
	e.surfaces = slices.Insert(e.surfaces, 0, s)
	return s
}

// Surfaces returns the element's child surfaces in order.
func (e *Element) Surfaces() []*Surface {
	return slices.Clone(e.surfaces)
}

// HasClass reports whether the element carries class.
func (e *Element) HasClass(class string) bool {
	return slices.Contains(e.Classes, class)
}

// SetSize changes the element's size without notifying observers.
func (e *Element) SetSize(width, height float64) {
	e.Rect.Width = width
	e.Rect.Height = height
}

// fontSize returns the element's font size in px.
func (e *Element) fontSize() float64 {
	if e.FontSize > 0 {
		return e.FontSize
	}
	if e.doc != nil {
		return e.doc.RootFontSize
	}
	return defaultFontSize
}

// matches reports whether the element matches a simple selector:
// ".class", "#id", "[attr]", "[attr=value]" or "*".
func (e *Element) matches(selector string) bool {
	selector = strings.TrimSpace(selector)
	switch {
	case selector == "*":
		return true
	case strings.HasPrefix(selector, "."):
		return e.HasClass(selector[1:])
	case strings.HasPrefix(selector, "#"):
		return e.ID == selector[1:]
	case strings.HasPrefix(selector, "[") && strings.HasSuffix(selector, "]"):
		name, value, hasValue := strings.Cut(selector[1:len(selector)-1], "=")
		got, ok := e.Attrs[name]
		if !ok {
			return false
		}
		return !hasValue || got == strings.Trim(value, `"'`)
	}
	return false
}

// Surface is an injected drawing surface. It keeps a copy of the last
// presented image.
type Surface struct {
	Class string

	BackingWidth  int
	BackingHeight int
	DisplayWidth  float64
	DisplayHeight float64

	// Presents counts Present calls.
	Presents int

	image   *image.RGBA
	removed bool
	el      *Element
}

var _ cutborder.Surface = (*Surface)(nil)

// SetBackingSize records the pixel resolution.
func (s *Surface) SetBackingSize(width, height int) {
	s.BackingWidth = width
	s.BackingHeight = height
}

// SetDisplaySize records the displayed CSS size.
func (s *Surface) SetDisplaySize(width, height float64) {
	s.DisplayWidth = width
	s.DisplayHeight = height
}

// Present copies the canvas pixels.
func (s *Surface) Present(c *overlay.Canvas) error {
	if s.removed {
		return ErrDetached
	}
	s.image = c.Image()
	s.Presents++
	return nil
}

// Remove detaches the surface from its element.
func (s *Surface) Remove() {
	if s.removed {
		return
	}
	s.removed = true
	if s.el != nil {
		s.el.surfaces = slices.DeleteFunc(s.el.surfaces, func(o *Surface) bool { return o == s })
	}
}

// Removed reports whether Remove was called.
func (s *Surface) Removed() bool {
	return s.removed
}

// Image returns the last presented image, or nil.
func (s *Surface) Image() *image.RGBA {
	return s.image
}

// Defaults for a new Document.
const (
	defaultFontSize       = 16
	defaultViewportWidth  = 1280
	defaultViewportHeight = 800
)

// Document is an in-memory document.
type Document struct {
	// Ratio is the device pixel ratio.
	Ratio float64

	ViewportWidth  float64
	ViewportHeight float64
	RootFontSize   float64

	// Probes counts Measure calls.
	Probes int

	elements  []*Element
	observers []*Observer
}

var _ cutborder.Document = (*Document)(nil)

// NewDocument returns an empty document at ratio 1 with a 1280x800 viewport
// and a 16px root font size.
func NewDocument() *Document {
	return &Document{
		Ratio:          1,
		ViewportWidth:  defaultViewportWidth,
		ViewportHeight: defaultViewportHeight,
		RootFontSize:   defaultFontSize,
	}
}

// NewElement adds an element of the given size carrying classes.
func (d *Document) NewElement(id string, width, height float64, classes ...string) *Element {
	return d.Add(&Element{
		ID:      id,
		Classes: classes,
		Rect:    cutborder.Rect{Width: width, Height: height},
	})
}

// Add appends el to the document and returns it.
func (d *Document) Add(el *Element) *Element {
	if el.Style == nil {
		el.Style = Style{}
	}
	if el.Attrs == nil {
		el.Attrs = map[string]string{}
	}
	el.doc = d
	d.elements = append(d.elements, el)
	return el
}

// Element returns the element with the given id, or nil.
func (d *Document) Element(id string) *Element {
	for _, el := range d.elements {
		if el.ID == id {
			return el
		}
	}
	return nil
}

// Elements returns all elements in document order.
func (d *Document) Elements() []*Element {
	return slices.Clone(d.elements)
}

// QueryAll returns the elements matching selector in document order.
func (d *Document) QueryAll(selector string) []cutborder.Element {
	var out []cutborder.Element
	for _, el := range d.elements {
		if el.matches(selector) {
			out = append(out, el)
		}
	}
	return out
}

// DevicePixelRatio returns Ratio.
func (d *Document) DevicePixelRatio() float64 {
	return d.Ratio
}

// NewResizeObserver returns an observer delivering batches to callback.
func (d *Document) NewResizeObserver(callback func(entries []cutborder.Element)) cutborder.ResizeObserver {
	o := &Observer{callback: callback, doc: d}
	d.observers = append(d.observers, o)
	return o
}

// Resize changes el's size and notifies observers.
func (d *Document) Resize(el *Element, width, height float64) {
	el.SetSize(width, height)
	d.Notify(el)
}

// Notify delivers one resize batch containing els to every observer that
// observes at least one of them. Elements an observer does not watch are
// left out of its batch.
func (d *Document) Notify(els ...*Element) {
	for _, o := range slices.Clone(d.observers) {
		var batch []cutborder.Element
		for _, el := range els {
			if o.observes(el) {
				batch = append(batch, el)
			}
		}
		if len(batch) > 0 {
			o.callback(batch)
		}
	}
}

// Measure resolves a length token relative to el, like a hidden probe node
// appended to el would.
func (d *Document) Measure(el cutborder.Element, token string) (float64, error) {
	d.Probes++

	token = strings.ToLower(strings.TrimSpace(token))
	num := strings.TrimRightFunc(token, func(r rune) bool {
		return (r >= 'a' && r <= 'z') || r == '%'
	})
	unit := token[len(num):]
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("domtest: bad length %q: %w", token, err)
	}

	fontSize := float64(defaultFontSize)
	if e, ok := el.(*Element); ok {
		fontSize = e.fontSize()
	}

	var px float64
	switch unit {
	case "px":
		px = 1
	case "%":
		px = el.BoundingClientRect().Width / 100
	case "em":
		px = fontSize
	case "ex", "ch":
		px = fontSize / 2
	case "rem":
		px = d.RootFontSize
	case "vw":
		px = d.ViewportWidth / 100
	case "vh":
		px = d.ViewportHeight / 100
	case "vmin":
		px = min(d.ViewportWidth, d.ViewportHeight) / 100
	case "vmax":
		px = max(d.ViewportWidth, d.ViewportHeight) / 100
	case "in":
		px = 96
	case "cm":
		px = 96 / 2.54
	case "mm":
		px = 96 / 25.4
	case "q":
		px = 96 / 101.6
	case "pt":
		px = 96.0 / 72
	case "pc":
		px = 16
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedUnit, token)
	}
	return v * px, nil
}

// Observer is a resize observer created by Document.NewResizeObserver.
type Observer struct {
	callback func(entries []cutborder.Element)
	doc      *Document
	watched  []cutborder.Element
}

var _ cutborder.ResizeObserver = (*Observer)(nil)

// Observe starts watching el.
func (o *Observer) Observe(el cutborder.Element) {
	if !slices.Contains(o.watched, el) {
		o.watched = append(o.watched, el)
	}
}

// Unobserve stops watching el.
func (o *Observer) Unobserve(el cutborder.Element) {
	o.watched = slices.DeleteFunc(o.watched, func(w cutborder.Element) bool { return w == el })
}

// Disconnect stops watching everything and detaches the observer.
func (o *Observer) Disconnect() {
	o.watched = nil
	o.doc.observers = slices.DeleteFunc(o.doc.observers, func(w *Observer) bool { return w == o })
}

// Watched returns the observed elements in registration order.
func (o *Observer) Watched() []cutborder.Element {
	return slices.Clone(o.watched)
}

func (o *Observer) observes(el *Element) bool {
	return slices.Contains(o.watched, cutborder.Element(el))
}
