// Package cutborder draws cut-corner ("polygon") borders around elements.
//
// # Overview
//
// An element opts in by carrying a marker (".js-border-polygon" by default)
// and declares its border through four custom properties:
//
//	--border-width: 4px;          /* px, %, or any unit the page understands */
//	--border-color: #e33;         /* defaults to black */
//	--border-type:  inner;        /* center (default) or inner */
//	--cut-size:     10px 20px;    /* 1 to 4 values, CSS shorthand order */
//
// The renderer resolves those values against the element's live geometry,
// builds an octagon by chamfering each corner, and strokes it with gg onto an
// overlay canvas injected as the element's first child.
//
// # Quick Start
//
//	r := cutborder.New(doc)
//	n, err := r.Activate() // draws every target and observes resizes
//	...
//	defer r.Release()
//
// The environment is abstract: a Document enumerates targets, reports the
// device pixel ratio, measures opaque lengths and creates resize observers.
// Package domtest provides an in-memory implementation; package jsdom binds
// a real browser page when built for js/wasm.
//
// # Lengths
//
// "px" values are taken as is and "%" values are resolved against the element
// width (or height, see Axis). Every other unit is handed to a Measurer, which
// in a browser inserts a hidden probe node and reads its width.
//
// # Coordinate System
//
// Outline coordinates are CSS pixels with the origin at the element's top-left
// corner. The overlay canvas scales them by the device pixel ratio.
//
// # Lifecycle
//
// Configuration is recomputed from scratch on every draw; only the surface and
// its canvas are kept between draws. After Activate, draws are driven by
// resize notifications. Release stops observation and removes the surfaces.
package cutborder
