package animation

import (
	"sort"
)

// Category groups animations by the layer they drive.
type Category string

const (
	CategoryImage      Category = "image"
	CategoryTextIn     Category = "text-in"
	CategoryTextOut    Category = "text-out"
	CategoryHighlight  Category = "highlight"
	CategoryTransition Category = "transition"
	CategoryFilter     Category = "filter"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryImage,
	CategoryTextIn,
	CategoryTextOut,
	CategoryHighlight,
	CategoryTransition,
	CategoryFilter,
}

// Params are passed fresh on every evaluation.
type Params struct {
	Frame    int    // frame relative to the animated element's start
	Duration int    // frames; 0 selects the metadata default
	Delay    int    // frames to wait before the curve starts
	Span     int    // length of the enclosing sequence, used for exit legs
	Text     string // content, for text-driven animations

	// Text curves run over [Offset, Offset+Length] in fractional frames when
	// Length is set, and over [0, Duration] otherwise.
	Length float64
	Offset float64
}

// ParamSpec documents one tunable parameter.
type ParamSpec struct {
	Type        string `json:"type" yaml:"type"`
	Default     any    `json:"default,omitempty" yaml:"default,omitempty"`
	Required    bool   `json:"required" yaml:"required"`
	Description string `json:"description" yaml:"description"`
}

// Metadata describes a registered animation.
type Metadata struct {
	Description     string               `json:"description" yaml:"description"`
	DefaultDuration int                  `json:"defaultDuration" yaml:"defaultDuration"`
	Params          map[string]ParamSpec `json:"params,omitempty" yaml:"params,omitempty"`
}

// Func computes the style fragment for one frame.
type Func func(Params) Style

// Animation is implemented by every registry entry.
type Animation interface {
	Evaluate(p Params) Style
	Metadata() Metadata
}

// Entry pairs an evaluation function with its metadata.
type Entry struct {
	Category Category
	Name     string
	Fn       Func
	Meta     Metadata
}

// Evaluate fills in the default duration, shifts by Delay and runs the curve.
func (e Entry) Evaluate(p Params) Style {
	if p.Duration <= 0 {
		p.Duration = e.Meta.DefaultDuration
	}
	if p.Delay > 0 {
		p.Frame -= p.Delay
	}
	if e.Fn == nil {
		return Style{}
	}
	return e.Fn(p)
}

func (e Entry) Metadata() Metadata {
	return e.Meta
}

type fallback struct {
	category Category
	name     string
}

// Registry is an immutable catalog of animations keyed by category and name.
// It is safe for concurrent use.
type Registry struct {
	entries   map[Category]map[string]Entry
	fallbacks map[Category]fallback
}

// Option customizes a registry during construction.
type Option func(*Registry)

// WithFallback makes unknown names in cat resolve to target/name.
func WithFallback(cat, target Category, name string) Option {
	return func(r *Registry) {
		r.fallbacks[cat] = fallback{category: target, name: name}
	}
}

// NewRegistry builds a registry from the given entries. Later entries with
// the same category and name replace earlier ones.
func NewRegistry(entries []Entry, opts ...Option) *Registry {
	r := &Registry{
		entries:   make(map[Category]map[string]Entry),
		fallbacks: make(map[Category]fallback),
	}
	for _, e := range entries {
		byName, ok := r.entries[e.Category]
		if !ok {
			byName = make(map[string]Entry)
			r.entries[e.Category] = byName
		}
		byName[e.Name] = e
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Default returns the built-in catalog. Unknown text entrances fall back to
// fadeIn; every other category, text exits included, falls back to none.
func Default() *Registry {
	var entries []Entry
	entries = append(entries, imageEntries()...)
	entries = append(entries, textInEntries()...)
	entries = append(entries, textOutEntries()...)
	entries = append(entries, highlightEntries()...)
	entries = append(entries, transitionEntries()...)
	entries = append(entries, filterEntries()...)

	return NewRegistry(entries,
		WithFallback(CategoryImage, CategoryImage, None),
		WithFallback(CategoryTextIn, CategoryTextIn, FadeIn),
		WithFallback(CategoryTextOut, CategoryTextOut, None),
		WithFallback(CategoryHighlight, CategoryHighlight, None),
		WithFallback(CategoryTransition, CategoryTransition, None),
		WithFallback(CategoryFilter, CategoryFilter, None),
	)
}

// Lookup returns the entry registered under cat/name.
func (r *Registry) Lookup(cat Category, name string) (Entry, bool) {
	e, ok := r.entries[cat][name]
	return e, ok
}

// Resolve never fails: unknown names resolve to the category fallback, and
// a category without one resolves to an identity entry.
func (r *Registry) Resolve(cat Category, name string) Entry {
	if e, ok := r.Lookup(cat, name); ok {
		return e
	}
	if fb, ok := r.fallbacks[cat]; ok {
		if e, ok := r.Lookup(fb.category, fb.name); ok {
			return e
		}
	}
	return Entry{Category: cat, Name: None, Fn: identity}
}

// Has reports whether cat/name is registered.
func (r *Registry) Has(cat Category, name string) bool {
	_, ok := r.Lookup(cat, name)
	return ok
}

// Names returns the registered names of cat, sorted.
func (r *Registry) Names(cat Category) []string {
	names := make([]string, 0, len(r.entries[cat]))
	for name := range r.entries[cat] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Description is the introspection view of one entry.
type Description struct {
	Category Category `json:"category" yaml:"category"`
	Name     string   `json:"name" yaml:"name"`
	Metadata
}

// Describe returns metadata for every entry, or for one category when cat is set.
func (r *Registry) Describe(cat Category) []Description {
	var out []Description
	for _, c := range Categories {
		if cat != "" && c != cat {
			continue
		}
		for _, name := range r.Names(c) {
			e := r.entries[c][name]
			out = append(out, Description{Category: c, Name: name, Metadata: e.Meta})
		}
	}
	return out
}

func identity(Params) Style {
	return Style{}
}
