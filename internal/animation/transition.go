package animation

const (
	Fade       = "fade"
	SlideLeft  = "slide-left"
	SlideRight = "slide-right"
	WipeUp     = "wipe-up"
)

// TransitionWindow is the default length of a transition leg in frames.
const TransitionWindow = 15

var transitionParams = map[string]ParamSpec{
	"duration": {Type: "number", Default: TransitionWindow, Description: "length of each transition leg in frames"},
}

func transitionEntries() []Entry {
	return []Entry{
		{
			Category: CategoryTransition,
			Name:     None,
			Fn:       identity,
			Meta:     Metadata{Description: "cut without transition", DefaultDuration: TransitionWindow},
		},
		{
			Category: CategoryTransition,
			Name:     Fade,
			Fn:       fade,
			Meta:     Metadata{Description: "fade in and out", DefaultDuration: TransitionWindow, Params: transitionParams},
		},
		{
			Category: CategoryTransition,
			Name:     SlideLeft,
			Fn:       slideX(100, -100),
			Meta:     Metadata{Description: "enters from the right, leaves to the left", DefaultDuration: TransitionWindow, Params: transitionParams},
		},
		{
			Category: CategoryTransition,
			Name:     SlideRight,
			Fn:       slideX(-100, 100),
			Meta:     Metadata{Description: "enters from the left, leaves to the right", DefaultDuration: TransitionWindow, Params: transitionParams},
		},
		{
			Category: CategoryTransition,
			Name:     WipeUp,
			Fn:       wipeUp,
			Meta:     Metadata{Description: "wipes in from the bottom, out to the top", DefaultDuration: TransitionWindow, Params: transitionParams},
		},
	}
}

// legs evaluates a transition curve: enter over [0, Duration] from in to
// rest, and, when Span leaves room for both legs, exit over
// [Span-Duration, Span] from rest to out.
func legs(p Params, in, rest, out float64) float64 {
	d := float64(p.Duration)
	span := float64(p.Span)
	if span < 2*d {
		return Interpolate(float64(p.Frame), []float64{0, d}, []float64{in, rest})
	}
	return Interpolate(float64(p.Frame), []float64{0, d, span - d, span}, []float64{in, rest, rest, out})
}

func fade(p Params) Style {
	return Style{Opacity: Opacity(legs(p, 0, 1, 0))}
}

func slideX(in, out float64) Func {
	return func(p Params) Style {
		return Style{Transform: []TransformOp{{Kind: OpTranslateX, Value: legs(p, in, 0, out), Unit: "%"}}}
	}
}

func wipeUp(p Params) Style {
	return Style{ClipPath: &Inset{Top: legs(p, 100, 0, 100)}}
}

// InTransitionWindow reports whether frame falls in the entrance leg or,
// when span is positive and fits both legs, the exit leg.
func InTransitionWindow(frame, window, span int) bool {
	if window <= 0 || frame < 0 {
		return false
	}
	if frame < window {
		return true
	}
	return span >= 2*window && frame >= span-window
}
