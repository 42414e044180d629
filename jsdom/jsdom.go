// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build js && wasm

// Package jsdom binds cutborder to a live browser page through syscall/js.
//
// Surfaces are <canvas> elements prepended to each target. Pixels rendered by
// gg are copied into the canvas with putImageData, so no 2D context state is
// shared with page scripts.
package jsdom

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"syscall/js"

	"golang.org/x/image/draw"

	"github.com/gogpu/cutborder"
	"github.com/gogpu/cutborder/overlay"
)

// ErrNotAnElement is returned by Measure for elements created elsewhere.
var ErrNotAnElement = errors.New("jsdom: element does not belong to this document")

// Document wraps window.document.
type Document struct {
	win js.Value
	doc js.Value

	// ids maps DOM nodes to wrapper ids in a WeakMap, so wrapping does not
	// keep removed nodes alive and lookups do not scan.
	ids       js.Value
	elements  map[int]*Element
	nextID    int
	observers int // live resize observers
}

var _ cutborder.Document = (*Document)(nil)

// New returns the Document of the global window.
func New() *Document {
	win := js.Global()
	return newDocument(win, win.Get("document"))
}

func newDocument(win, doc js.Value) *Document {
	return &Document{
		win:      win,
		doc:      doc,
		ids:      win.Get("WeakMap").New(),
		elements: make(map[int]*Element),
	}
}

// wrap returns the unique wrapper for node.
func (d *Document) wrap(node js.Value) *Element {
	if id := d.ids.Call("get", node); id.Type() == js.TypeNumber {
		if el, ok := d.elements[id.Int()]; ok {
			return el
		}
	}
	d.nextID++
	el := &Element{v: node, doc: d}
	d.elements[d.nextID] = el
	d.ids.Call("set", node, d.nextID)
	return el
}

// observerDone drops every wrapper once the last resize observer is gone;
// nothing can deliver them back after that.
func (d *Document) observerDone() {
	d.observers--
	if d.observers == 0 {
		clear(d.elements)
	}
}

// QueryAll runs document.querySelectorAll.
func (d *Document) QueryAll(selector string) []cutborder.Element {
	list := d.doc.Call("querySelectorAll", selector)
	n := list.Length()
	out := make([]cutborder.Element, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, d.wrap(list.Index(i)))
	}
	return out
}

// DevicePixelRatio returns window.devicePixelRatio, or 1 when unavailable.
func (d *Document) DevicePixelRatio() float64 {
	v := d.win.Get("devicePixelRatio")
	if v.Type() != js.TypeNumber || v.Float() <= 0 {
		return 1
	}
	return v.Float()
}

// Measure resolves token by inserting a hidden, absolutely positioned probe
// of that width into el and reading its rendered width.
func (d *Document) Measure(el cutborder.Element, token string) (float64, error) {
	e, ok := el.(*Element)
	if !ok || e.doc != d {
		return 0, ErrNotAnElement
	}
	probe := d.doc.Call("createElement", "div")
	style := probe.Get("style")
	style.Set("position", "absolute")
	style.Set("visibility", "hidden")
	style.Set("width", token)

	e.v.Call("appendChild", probe)
	px := probe.Call("getBoundingClientRect").Get("width").Float()
	probe.Call("remove")
	return px, nil
}

// NewResizeObserver creates a window.ResizeObserver whose entries are
// mapped back to Element wrappers.
func (d *Document) NewResizeObserver(callback func(entries []cutborder.Element)) cutborder.ResizeObserver {
	o := &Observer{doc: d}
	d.observers++
	o.fn = js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) == 0 {
			return nil
		}
		entries := args[0]
		n := entries.Length()
		batch := make([]cutborder.Element, 0, n)
		for i := 0; i < n; i++ {
			batch = append(batch, d.wrap(entries.Index(i).Get("target")))
		}
		callback(batch)
		return nil
	})
	o.v = d.win.Get("ResizeObserver").New(o.fn)
	return o
}

// Element wraps a DOM element.
type Element struct {
	v   js.Value
	doc *Document
}

var _ cutborder.Element = (*Element)(nil)

// Value returns the underlying DOM node.
func (e *Element) Value() js.Value {
	return e.v
}

// BoundingClientRect calls getBoundingClientRect.
func (e *Element) BoundingClientRect() cutborder.Rect {
	r := e.v.Call("getBoundingClientRect")
	return cutborder.Rect{
		X:      r.Get("x").Float(),
		Y:      r.Get("y").Float(),
		Width:  r.Get("width").Float(),
		Height: r.Get("height").Float(),
	}
}

// ComputedStyle calls window.getComputedStyle.
func (e *Element) ComputedStyle() cutborder.Style {
	return style{e.doc.win.Call("getComputedStyle", e.v)}
}

// Surface returns the child <canvas> carrying class, or nil.
func (e *Element) Surface(class string) cutborder.Surface {
	c := e.v.Call("querySelector", ":scope > canvas."+class)
	if c.IsNull() || c.IsUndefined() {
		return nil
	}
	return &Surface{v: c}
}

// PrependSurface creates a <canvas> carrying class as the first child.
func (e *Element) PrependSurface(class string) cutborder.Surface {
	c := e.doc.doc.Call("createElement", "canvas")
	c.Get("classList").Call("add", class)
	e.v.Call("prepend", c)
	return &Surface{v: c}
}

type style struct {
	v js.Value
}

func (s style) PropertyValue(name string) string {
	return s.v.Call("getPropertyValue", name).String()
}

// Surface is a <canvas> element.
type Surface struct {
	v js.Value

	nrgba *image.NRGBA
	buf   js.Value
}

var _ cutborder.Surface = (*Surface)(nil)

// SetBackingSize sets the canvas width and height attributes.
func (s *Surface) SetBackingSize(width, height int) {
	s.v.Set("width", width)
	s.v.Set("height", height)
}

// SetDisplaySize sets the canvas CSS size.
func (s *Surface) SetDisplaySize(width, height float64) {
	st := s.v.Get("style")
	st.Set("width", cssPixels(width))
	st.Set("height", cssPixels(height))
}

// Present copies the canvas pixels into the element with putImageData.
// ImageData is straight alpha; gg pixels are premultiplied, so they are
// converted on the way.
func (s *Surface) Present(c *overlay.Canvas) error {
	src := c.Image()
	b := src.Bounds()
	if b.Empty() {
		return nil
	}

	if s.nrgba == nil || s.nrgba.Bounds() != b {
		s.nrgba = image.NewNRGBA(b)
		s.buf = js.Global().Get("Uint8ClampedArray").New(len(s.nrgba.Pix))
	}
	draw.Draw(s.nrgba, b, src, b.Min, draw.Src)

	if n := js.CopyBytesToJS(s.buf, s.nrgba.Pix); n != len(s.nrgba.Pix) {
		return fmt.Errorf("jsdom: copied %d of %d bytes", n, len(s.nrgba.Pix))
	}
	data := js.Global().Get("ImageData").New(s.buf, b.Dx(), b.Dy())

	ctx := s.v.Call("getContext", "2d")
	if ctx.IsNull() {
		return errors.New("jsdom: 2d context unavailable")
	}
	ctx.Call("putImageData", data, 0, 0)
	return nil
}

// Remove detaches the canvas from the page.
func (s *Surface) Remove() {
	s.v.Call("remove")
}

// Observer wraps a window.ResizeObserver.
type Observer struct {
	v    js.Value
	fn   js.Func
	doc  *Document
	done bool
}

var _ cutborder.ResizeObserver = (*Observer)(nil)

// Observe calls observe.
func (o *Observer) Observe(el cutborder.Element) {
	if e, ok := el.(*Element); ok {
		o.v.Call("observe", e.v)
	}
}

// Unobserve calls unobserve.
func (o *Observer) Unobserve(el cutborder.Element) {
	if e, ok := el.(*Element); ok {
		o.v.Call("unobserve", e.v)
	}
}

// Disconnect calls disconnect and releases the Go callback. Once the last
// observer of the document is disconnected its element wrappers are freed.
func (o *Observer) Disconnect() {
	if o.done {
		return
	}
	o.done = true
	o.v.Call("disconnect")
	o.fn.Release()
	o.doc.observerDone()
}

func cssPixels(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}
