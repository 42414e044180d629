package cutborder

import (
	"math"
	"strconv"
	"strings"
)

// Axis selects which side of an element is the basis for percentages.
type Axis int

const (
	// AxisX resolves percentages against the element width.
	AxisX Axis = iota
	// AxisY resolves percentages against the element height.
	AxisY
)

// String returns a human-readable name for the axis.
func (a Axis) String() string {
	if a == AxisY {
		return "y"
	}
	return "x"
}

// ResolveLength converts a single length token into CSS pixels relative to el.
//
//   - "" resolves to 0.
//   - "Npx" resolves to N without consulting m.
//   - "N%" resolves to N/100 of the element width (AxisX) or height (AxisY).
//   - Any other unit is handed to m, which typically measures a probe node.
//
// Numbers are read the way a browser's parseFloat reads them: the longest
// decimal prefix wins and trailing garbage is ignored. Anything that does not
// produce a finite number resolves to 0, as does a failed measurement.
func ResolveLength(token string, el Element, axis Axis, m Measurer) float64 {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0
	}

	unit := strings.ToLower(token)
	switch {
	case strings.HasSuffix(unit, "px"):
		return finite(leadingFloat(token))
	case strings.HasSuffix(unit, "%"):
		box := el.BoundingClientRect()
		basis := box.Width
		if axis == AxisY {
			basis = box.Height
		}
		return finite(leadingFloat(token) / 100 * basis)
	}

	// A bare number is not a length; a browser ignores it as a width too.
	if _, err := strconv.ParseFloat(token, 64); err == nil {
		return 0
	}

	if m == nil {
		Logger().Warn("cutborder: no measurer for length", "token", token)
		return 0
	}
	px, err := m.Measure(el, token)
	if err != nil {
		Logger().Warn("cutborder: length measurement failed", "token", token, "err", err)
		return 0
	}
	return finite(px)
}

// leadingFloat parses the longest decimal prefix of s, skipping leading
// whitespace. It returns NaN when s does not start with a number.
func leadingFloat(s string) float64 {
	s = strings.TrimLeft(s, " \t\n\r\f")
	end := scanDecimal(s)
	if end == 0 {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		// Out of range prefixes come back as ±Inf with an error.
		return math.NaN()
	}
	return v
}

// scanDecimal returns the length of the decimal literal at the start of s:
// [+-] digits [. digits] [(e|E) [+-] digits]. It returns 0 if no mantissa
// digit is present.
func scanDecimal(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if digits > 0 || frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		exp := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			exp++
		}
		if exp > 0 {
			i = j
		}
	}
	return i
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

// finite maps NaN and ±Inf to 0.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
