package compositor

import (
	"image/color"
	"strconv"
	"strings"
)

var namedColors = map[string]color.NRGBA{
	"white":       {R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	"black":       {A: 0xff},
	"red":         {R: 0xff, A: 0xff},
	"transparent": {},
}

// ParseColor understands #rgb, #rrggbb, #rrggbbaa, rgb(), rgba() and a few
// names.
func ParseColor(s string) (color.NRGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, true
	}
	if hex, ok := strings.CutPrefix(s, "#"); ok {
		return parseHex(hex)
	}
	if args, ok := cutFunc(s, "rgba"); ok {
		return parseRGB(args, true)
	}
	if args, ok := cutFunc(s, "rgb"); ok {
		return parseRGB(args, false)
	}
	return color.NRGBA{}, false
}

func colorOr(s string, def color.NRGBA) color.NRGBA {
	if c, ok := ParseColor(s); ok {
		return c
	}
	return def
}

func parseHex(hex string) (color.NRGBA, bool) {
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, true
}

func parseRGB(args string, alpha bool) (color.NRGBA, bool) {
	parts := strings.Split(args, ",")
	if (alpha && len(parts) != 4) || (!alpha && len(parts) != 3) {
		return color.NRGBA{}, false
	}
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || v < 0 || v > 255 {
			return color.NRGBA{}, false
		}
		ch[i] = uint8(v)
	}
	c := color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: 0xff}
	if alpha {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil {
			return color.NRGBA{}, false
		}
		c.A = uint8(clamp01(a)*255 + 0.5)
	}
	return c, true
}

func cutFunc(s, name string) (string, bool) {
	rest, ok := strings.CutPrefix(s, name+"(")
	if !ok {
		return "", false
	}
	return strings.CutSuffix(rest, ")")
}

// withOpacity scales the alpha of c.
func withOpacity(c color.NRGBA, opacity float64) color.NRGBA {
	c.A = uint8(float64(c.A)*clamp01(opacity) + 0.5)
	return c
}

// length reads a CSS length in px or em.
func length(s string, fontSize float64) float64 {
	s = strings.TrimSpace(s)
	if v, ok := strings.CutSuffix(s, "em"); ok {
		f, _ := strconv.ParseFloat(v, 64)
		return f * fontSize
	}
	f, _ := strconv.ParseFloat(strings.TrimSuffix(s, "px"), 64)
	return f
}

// padding reads "v h" or a single CSS length.
func padding(s string, fontSize float64) (v, h float64) {
	parts := strings.Fields(s)
	switch len(parts) {
	case 0:
		return 0, 0
	case 1:
		v = length(parts[0], fontSize)
		return v, v
	default:
		return length(parts[0], fontSize), length(parts[1], fontSize)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
