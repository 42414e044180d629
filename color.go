package cutborder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/gg"
	"golang.org/x/image/colornames"
)

// ErrInvalidColor is returned by ParseColor for values it cannot interpret.
var ErrInvalidColor = errors.New("cutborder: invalid color")

// ParseColor interprets a CSS color value.
//
// Supported forms: "#rgb", "#rgba", "#rrggbb", "#rrggbbaa", CSS named colors,
// "transparent", rgb()/rgba() and hsl()/hsla() in both the comma and the
// space-separated syntax. Keywords and function names are case-insensitive.
func ParseColor(s string) (gg.RGBA, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case v == "":
		return gg.RGBA{}, fmt.Errorf("%w: empty value", ErrInvalidColor)
	case v == "transparent":
		return gg.Transparent, nil
	case v[0] == '#':
		c, err := gg.ParseHex(v)
		if err != nil {
			return gg.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		return c, nil
	}

	if name, args, ok := splitFunc(v); ok {
		var (
			c   gg.RGBA
			err error
		)
		switch name {
		case "rgb", "rgba":
			c, err = parseRGBFunc(args)
		case "hsl", "hsla":
			c, err = parseHSLFunc(args)
		default:
			err = fmt.Errorf("unsupported function %q", name)
		}
		if err != nil {
			return gg.RGBA{}, fmt.Errorf("%w: %q: %v", ErrInvalidColor, s, err)
		}
		return c, nil
	}

	if named, ok := colornames.Map[v]; ok {
		return gg.FromColor(named), nil
	}
	return gg.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
}

// splitFunc splits "name(args)" into its name and argument list.
func splitFunc(v string) (name string, args []string, ok bool) {
	open := strings.IndexByte(v, '(')
	if open <= 0 || !strings.HasSuffix(v, ")") {
		return "", nil, false
	}
	name = strings.TrimSpace(v[:open])
	body := v[open+1 : len(v)-1]

	// Modern syntax separates alpha with a slash: rgb(0 0 0 / 50%).
	body = strings.ReplaceAll(body, "/", " ")
	args = strings.FieldsFunc(body, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	return name, args, true
}

func parseRGBFunc(args []string) (gg.RGBA, error) {
	if len(args) != 3 && len(args) != 4 {
		return gg.RGBA{}, fmt.Errorf("want 3 or 4 components, got %d", len(args))
	}
	var ch [3]float64
	for i := range ch {
		v, pct, err := parseComponent(args[i])
		if err != nil {
			return gg.RGBA{}, err
		}
		if pct {
			ch[i] = clampUnit(v / 100)
		} else {
			ch[i] = clampUnit(v / 255)
		}
	}
	a, err := parseAlpha(args[3:])
	if err != nil {
		return gg.RGBA{}, err
	}
	return gg.RGBA2(ch[0], ch[1], ch[2], a), nil
}

func parseHSLFunc(args []string) (gg.RGBA, error) {
	if len(args) != 3 && len(args) != 4 {
		return gg.RGBA{}, fmt.Errorf("want 3 or 4 components, got %d", len(args))
	}
	h, _, err := parseComponent(strings.TrimSuffix(args[0], "deg"))
	if err != nil {
		return gg.RGBA{}, err
	}
	s, _, err := parseComponent(args[1])
	if err != nil {
		return gg.RGBA{}, err
	}
	l, _, err := parseComponent(args[2])
	if err != nil {
		return gg.RGBA{}, err
	}
	a, err := parseAlpha(args[3:])
	if err != nil {
		return gg.RGBA{}, err
	}
	c := gg.HSL(h, clampUnit(s/100), clampUnit(l/100))
	c.A = a
	return c, nil
}

// parseAlpha reads an optional alpha component; absent means opaque.
func parseAlpha(args []string) (float64, error) {
	if len(args) == 0 {
		return 1, nil
	}
	v, pct, err := parseComponent(args[0])
	if err != nil {
		return 0, err
	}
	if pct {
		v /= 100
	}
	return clampUnit(v), nil
}

// parseComponent parses a number with an optional trailing percent sign.
func parseComponent(s string) (v float64, pct bool, err error) {
	if strings.HasSuffix(s, "%") {
		pct = true
		s = strings.TrimSuffix(s, "%")
	}
	v, err = strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("bad component %q", s)
	}
	return finite(v), pct, nil
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
