// Package timing resolves how many frames scenes and animations occupy.
package timing

import (
	"math"

	"github.com/ivlev/scenevideo/internal/animation"
)

const (
	// DefaultFPS is the frame rate the built-in durations are calibrated for.
	DefaultFPS = 30
	// FallbackSceneSeconds is used when a scene has no known audio length.
	FallbackSceneSeconds = 3.0
)

// Kind is the coarse duration class used when an animation declares no default.
type Kind string

const (
	KindImage      Kind = "image"
	KindText       Kind = "text"
	KindTransition Kind = "transition"
	KindFilter     Kind = "filter"
	KindHighlight  Kind = "highlight"
)

// KindOf maps a registry category onto its duration class.
func KindOf(cat animation.Category) Kind {
	switch cat {
	case animation.CategoryImage:
		return KindImage
	case animation.CategoryTextIn, animation.CategoryTextOut:
		return KindText
	case animation.CategoryTransition:
		return KindTransition
	case animation.CategoryFilter:
		return KindFilter
	case animation.CategoryHighlight:
		return KindHighlight
	}
	return ""
}

// Fallback returns the category constant at fps.
func Fallback(kind Kind, fps int) int {
	if fps <= 0 {
		fps = DefaultFPS
	}
	switch kind {
	case KindImage:
		return 90
	case KindText:
		return 60
	case KindTransition:
		return 90
	case KindFilter, KindHighlight:
		return int(float64(fps) * 1.5)
	}
	return fps * 2
}

// Resolver picks a duration by precedence: explicit > declared default > category fallback.
type Resolver struct {
	Registry *animation.Registry
	FPS      int
}

// NewResolver returns a resolver bound to reg.
func NewResolver(reg *animation.Registry, fps int) *Resolver {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Resolver{Registry: reg, FPS: fps}
}

// Resolve returns the frame count for cat/name. explicit <= 0 means unset.
func (r *Resolver) Resolve(explicit int, name string, cat animation.Category) int {
	if explicit > 0 {
		return explicit
	}
	if r.Registry != nil {
		if e, ok := r.Registry.Lookup(cat, name); ok && e.Meta.DefaultDuration > 0 {
			return e.Meta.DefaultDuration
		}
	}
	return Fallback(KindOf(cat), r.FPS)
}

// Typing resolves a typing duration and caps it by text length.
func (r *Resolver) Typing(explicit, textLen int) int {
	return animation.TypingDuration(r.Resolve(explicit, animation.Typing, animation.CategoryTextIn), textLen)
}

// SceneFrames converts an audio length into frames, falling back to three
// seconds when the length is unknown. The result is never below one.
func SceneFrames(audioSeconds *float64, fps int) int {
	if fps <= 0 {
		fps = DefaultFPS
	}
	seconds := FallbackSceneSeconds
	if audioSeconds != nil && *audioSeconds > 0 && !math.IsInf(*audioSeconds, 0) {
		seconds = *audioSeconds
	}
	frames := int(math.Ceil(roundMicro(seconds * float64(fps))))
	if frames < 1 {
		frames = 1
	}
	return frames
}

// roundMicro trims float noise from seconds*fps so ceil does not add a frame.
func roundMicro(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// TypingSceneFrames is the scene length that fits a full typing reveal
// plus a one-second tail, never shorter than two seconds at 30 fps.
func TypingSceneFrames(text string) int {
	const minFrames = 60
	d := len([]rune(text))*animation.TypingSpeed + 30
	if d < minFrames {
		return minFrames
	}
	return d
}

// TransitionShowcaseFrames is the length of a two-scene transition preview:
// one second per scene, the transition itself and a short tail.
func TransitionShowcaseFrames(transitionFrames, fps int) int {
	if fps <= 0 {
		fps = DefaultFPS
	}
	if transitionFrames <= 0 {
		transitionFrames = 30
	}
	return fps + transitionFrames + fps + 15
}
