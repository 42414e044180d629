package cutborder

import (
	"strings"
)

// Default custom property names read from computed style.
const (
	PropBorderWidth = "--border-width"
	PropBorderColor = "--border-color"
	PropBorderType  = "--border-type"
	PropCutSize     = "--cut-size"
)

// DefaultColor is the stroke color used when none is declared.
const DefaultColor = "#000"

// Properties names the custom properties that configure a border.
type Properties struct {
	Width   string
	Color   string
	Type    string
	CutSize string
}

// DefaultProperties returns the standard property names.
func DefaultProperties() Properties {
	return Properties{
		Width:   PropBorderWidth,
		Color:   PropBorderColor,
		Type:    PropBorderType,
		CutSize: PropCutSize,
	}
}

// withDefaults fills empty names from DefaultProperties.
func (p Properties) withDefaults() Properties {
	d := DefaultProperties()
	if p.Width == "" {
		p.Width = d.Width
	}
	if p.Color == "" {
		p.Color = d.Color
	}
	if p.Type == "" {
		p.Type = d.Type
	}
	if p.CutSize == "" {
		p.CutSize = d.CutSize
	}
	return p
}

// Mode controls where the stroke sits relative to the element edge.
type Mode int

const (
	// ModeCenter centers the stroke on the element edge.
	ModeCenter Mode = iota
	// ModeInner insets the stroke by half its width so it stays inside the element.
	ModeInner
)

// String returns the CSS keyword for the mode.
func (m Mode) String() string {
	if m == ModeInner {
		return "inner"
	}
	return "center"
}

// ParseMode maps a border type keyword to a Mode. Anything other than
// "inner" (ASCII case-insensitive) is ModeCenter.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), "inner") {
		return ModeInner
	}
	return ModeCenter
}

// Cuts holds the four corner cut lengths in CSS pixels.
type Cuts struct {
	TopLeft     float64
	TopRight    float64
	BottomRight float64
	BottomLeft  float64
}

// ExpandCuts maps 1 to 4 values onto the corners with CSS shorthand rules:
//
//	1 value:  all corners
//	2 values: top-left and bottom-right, top-right and bottom-left
//	3 values: top-left, top-right and bottom-left, bottom-right
//	4 values: top-left, top-right, bottom-right, bottom-left
//
// Any other count yields no cuts.
func ExpandCuts(v []float64) Cuts {
	switch len(v) {
	case 1:
		return Cuts{v[0], v[0], v[0], v[0]}
	case 2:
		return Cuts{v[0], v[1], v[0], v[1]}
	case 3:
		return Cuts{v[0], v[1], v[2], v[1]}
	case 4:
		return Cuts{v[0], v[1], v[2], v[3]}
	default:
		return Cuts{}
	}
}

// Config is the border configuration of one element at draw time.
type Config struct {
	Width float64
	Color string
	Mode  Mode
	Cuts  Cuts
}

// Inset returns the distance the path is moved in from the element edge.
func (c Config) Inset() float64 {
	if c.Mode == ModeInner {
		return c.Width / 2
	}
	return 0
}

// ParseConfig reads an element's border configuration from its computed style.
// It never fails: missing or malformed values fall back to zero lengths,
// black, and center mode. Negative lengths are treated as zero.
func ParseConfig(el Element, props Properties, m Measurer) Config {
	props = props.withDefaults()
	style := el.ComputedStyle()

	color := strings.TrimSpace(style.PropertyValue(props.Color))
	if color == "" {
		color = DefaultColor
	}

	return Config{
		Width: nonNegative(ResolveLength(style.PropertyValue(props.Width), el, AxisX, m)),
		Color: color,
		Mode:  ParseMode(style.PropertyValue(props.Type)),
		Cuts:  ParseCuts(style.PropertyValue(props.CutSize), el, m),
	}
}

// ParseCuts splits a cut-size value on whitespace, resolves each token
// horizontally against el and expands the result with ExpandCuts.
func ParseCuts(value string, el Element, m Measurer) Cuts {
	tokens := strings.Fields(value)
	if len(tokens) == 0 || len(tokens) > 4 {
		return Cuts{}
	}
	px := make([]float64, len(tokens))
	for i, tok := range tokens {
		px[i] = nonNegative(ResolveLength(tok, el, AxisX, m))
	}
	return ExpandCuts(px)
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
