// Package scenefile reads YAML scene descriptions into in-memory documents.
//
// A scene lists sized elements and their computed style:
//
//	dpr: 2
//	viewport: {width: 1280, height: 800}
//	rootFontSize: 16
//	elements:
//	  - id: hero
//	    width: 200
//	    height: 100
//	    style:
//	      --border-width: 4px
//	      --cut-size: 10px 10px
//
// Every element carries the default opt-in marker class unless it lists its
// own classes.
package scenefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/cutborder"
	"github.com/gogpu/cutborder/domtest"
)

// ErrInvalidScene is wrapped by every validation error.
var ErrInvalidScene = errors.New("scenefile: invalid scene")

// Scene is a parsed scene file.
type Scene struct {
	DPR          float64   `yaml:"dpr"`
	Viewport     Viewport  `yaml:"viewport"`
	RootFontSize float64   `yaml:"rootFontSize"`
	Elements     []Element `yaml:"elements"`
}

// Viewport is the size of the initial containing block in CSS pixels.
type Viewport struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Element describes one element of a scene.
type Element struct {
	ID       string            `yaml:"id"`
	Width    float64           `yaml:"width"`
	Height   float64           `yaml:"height"`
	FontSize float64           `yaml:"fontSize,omitempty"`
	Classes  []string          `yaml:"classes,omitempty"`
	Style    map[string]string `yaml:"style,omitempty"`
}

// Load reads and parses the scene at path.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenefile: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a scene. Unknown keys are rejected.
func Parse(data []byte) (*Scene, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Scene
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("scenefile: decode: %w", err)
	}
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scene) applyDefaults() {
	d := domtest.NewDocument()
	if s.DPR == 0 {
		s.DPR = d.Ratio
	}
	if s.Viewport.Width == 0 {
		s.Viewport.Width = d.ViewportWidth
	}
	if s.Viewport.Height == 0 {
		s.Viewport.Height = d.ViewportHeight
	}
	if s.RootFontSize == 0 {
		s.RootFontSize = d.RootFontSize
	}
}

// Validate checks ids and sizes.
func (s *Scene) Validate() error {
	if !positive(s.DPR) {
		return fmt.Errorf("%w: dpr must be positive, got %v", ErrInvalidScene, s.DPR)
	}
	seen := make(map[string]bool, len(s.Elements))
	for i, el := range s.Elements {
		switch {
		case el.ID == "":
			return fmt.Errorf("%w: element %d has no id", ErrInvalidScene, i)
		case strings.ContainsAny(el.ID, `/\`):
			return fmt.Errorf("%w: element id %q contains a path separator", ErrInvalidScene, el.ID)
		case seen[el.ID]:
			return fmt.Errorf("%w: duplicate element id %q", ErrInvalidScene, el.ID)
		case !nonNegative(el.Width) || !nonNegative(el.Height):
			return fmt.Errorf("%w: element %q has invalid size %vx%v", ErrInvalidScene, el.ID, el.Width, el.Height)
		}
		seen[el.ID] = true
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

// classes returns the element's classes, defaulting to the opt-in marker.
func (e Element) classes() []string {
	if len(e.Classes) > 0 {
		return e.Classes
	}
	return []string{strings.TrimPrefix(cutborder.DefaultSelector, ".")}
}

// Document builds an in-memory document holding the scene.
func (s *Scene) Document() *domtest.Document {
	doc := domtest.NewDocument()
	doc.Ratio = s.DPR
	doc.ViewportWidth = s.Viewport.Width
	doc.ViewportHeight = s.Viewport.Height
	doc.RootFontSize = s.RootFontSize

	for _, el := range s.Elements {
		d := doc.NewElement(el.ID, el.Width, el.Height, el.classes()...)
		d.FontSize = el.FontSize
		maps.Copy(d.Style, el.Style)
	}
	return doc
}

// Delta is the difference between two versions of a scene.
type Delta struct {
	// Structural is set when the element list, a class list, the pixel
	// ratio, the viewport or the root font size changed. Such a change
	// requires a new document.
	Structural bool

	// Resized lists elements whose size changed.
	Resized []string

	// Restyled lists elements whose size is unchanged but whose style or
	// font size changed.
	Restyled []string
}

// Empty reports whether the scenes are equivalent.
func (d Delta) Empty() bool {
	return !d.Structural && len(d.Resized) == 0 && len(d.Restyled) == 0
}

// Diff compares old and next element by element, in next's order.
func Diff(old, next *Scene) Delta {
	if old.DPR != next.DPR || old.Viewport != next.Viewport ||
		old.RootFontSize != next.RootFontSize || len(old.Elements) != len(next.Elements) {
		return Delta{Structural: true}
	}

	var d Delta
	for i, n := range next.Elements {
		o := old.Elements[i]
		if o.ID != n.ID || !slices.Equal(o.classes(), n.classes()) {
			return Delta{Structural: true}
		}
		switch {
		case o.Width != n.Width || o.Height != n.Height:
			d.Resized = append(d.Resized, n.ID)
		case o.FontSize != n.FontSize || !maps.Equal(o.Style, n.Style):
			d.Restyled = append(d.Restyled, n.ID)
		}
	}
	return d
}

// Apply copies next's per-element sizes, font sizes and styles onto doc,
// which must have been built from a scene with the same structure. It does
// not notify observers.
func Apply(doc *domtest.Document, next *Scene) error {
	for _, n := range next.Elements {
		el := doc.Element(n.ID)
		if el == nil {
			return fmt.Errorf("%w: element %q not in document", ErrInvalidScene, n.ID)
		}
		el.SetSize(n.Width, n.Height)
		el.FontSize = n.FontSize
		clear(el.Style)
		maps.Copy(el.Style, n.Style)
	}
	return nil
}
