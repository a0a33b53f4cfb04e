package animation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TransformOp is a single 2D transform function, e.g. scale(1.1) or translateX(-20px).
type TransformOp struct {
	Kind  string  `json:"kind" yaml:"kind"`
	Value float64 `json:"value" yaml:"value"`
	Unit  string  `json:"unit,omitempty" yaml:"unit,omitempty"`
}

const (
	OpScale      = "scale"
	OpTranslateX = "translateX"
	OpTranslateY = "translateY"
)

func (op TransformOp) String() string {
	return fmt.Sprintf("%s(%s%s)", op.Kind, formatNumber(op.Value), op.Unit)
}

// Inset is a clip-path inset() in percent of the element box.
type Inset struct {
	Top, Right, Bottom, Left float64
}

func (in Inset) String() string {
	return fmt.Sprintf("inset(%s%% %s %s %s)",
		formatNumber(in.Top), insetSide(in.Right), insetSide(in.Bottom), insetSide(in.Left))
}

func insetSide(v float64) string {
	if v == 0 {
		return "0"
	}
	return formatNumber(v) + "%"
}

// Style is a sparse visual fragment. Unset fields leave the element's
// current value untouched when merged.
type Style struct {
	Opacity         *float64          `json:"opacity,omitempty" yaml:"opacity,omitempty"`
	Transform       []TransformOp     `json:"transform,omitempty" yaml:"transform,omitempty"`
	TransformOrigin string            `json:"transformOrigin,omitempty" yaml:"transformOrigin,omitempty"`
	ClipPath        *Inset            `json:"clipPath,omitempty" yaml:"clipPath,omitempty"`
	Filter          string            `json:"filter,omitempty" yaml:"filter,omitempty"`
	Decl            map[string]string `json:"decl,omitempty" yaml:"decl,omitempty"`
}

// Opacity returns a pointer to v, for building Style literals.
func Opacity(v float64) *float64 {
	return &v
}

// Merge returns s overlaid with o; o wins per property.
func (s Style) Merge(o Style) Style {
	out := s
	if o.Opacity != nil {
		v := *o.Opacity
		out.Opacity = &v
	}
	if len(o.Transform) > 0 {
		out.Transform = append([]TransformOp(nil), o.Transform...)
	}
	if o.TransformOrigin != "" {
		out.TransformOrigin = o.TransformOrigin
	}
	if o.ClipPath != nil {
		c := *o.ClipPath
		out.ClipPath = &c
	}
	if o.Filter != "" {
		out.Filter = o.Filter
	}
	if len(o.Decl) > 0 {
		decl := make(map[string]string, len(s.Decl)+len(o.Decl))
		for k, v := range s.Decl {
			decl[k] = v
		}
		for k, v := range o.Decl {
			decl[k] = v
		}
		out.Decl = decl
	}
	return out
}

// OpacityOr returns the opacity or def when unset.
func (s Style) OpacityOr(def float64) float64 {
	if s.Opacity == nil {
		return def
	}
	return *s.Opacity
}

// Scale returns the product of all scale ops, 1 when there are none.
func (s Style) Scale() float64 {
	scale := 1.0
	for _, op := range s.Transform {
		if op.Kind == OpScale {
			scale *= op.Value
		}
	}
	return scale
}

// Translate sums translate ops of the given kind and unit.
func (s Style) Translate(kind, unit string) float64 {
	total := 0.0
	for _, op := range s.Transform {
		if op.Kind == kind && op.Unit == unit {
			total += op.Value
		}
	}
	return total
}

// IsZero reports whether the fragment carries no properties.
func (s Style) IsZero() bool {
	return s.Opacity == nil && len(s.Transform) == 0 && s.TransformOrigin == "" &&
		s.ClipPath == nil && s.Filter == "" && len(s.Decl) == 0
}

// CSS renders the fragment as CSS property/value pairs (camelCase keys).
func (s Style) CSS() map[string]string {
	css := make(map[string]string, len(s.Decl)+5)
	for k, v := range s.Decl {
		css[k] = v
	}
	if s.Opacity != nil {
		css["opacity"] = formatNumber(*s.Opacity)
	}
	if len(s.Transform) > 0 {
		parts := make([]string, len(s.Transform))
		for i, op := range s.Transform {
			parts[i] = op.String()
		}
		css["transform"] = strings.Join(parts, " ")
	}
	if s.TransformOrigin != "" {
		css["transformOrigin"] = s.TransformOrigin
	}
	if s.ClipPath != nil {
		css["clipPath"] = s.ClipPath.String()
	}
	if s.Filter != "" {
		css["filter"] = s.Filter
	}
	return css
}

// String renders the fragment as an inline style attribute.
func (s Style) String() string {
	css := s.CSS()
	keys := make([]string, 0, len(css))
	for k := range css {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(css[k])
	}
	return b.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
