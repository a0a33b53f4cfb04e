package animation

const (
	FadeIn         = "fadeIn"
	FadeOut        = "fadeOut"
	SlideUp        = "slideUp"
	SlideDown      = "slideDown"
	Typing         = "typing"
	WordByWordFade = "word-by-word-fade"
)

// TypingSpeed is the number of frames spent per revealed character.
const TypingSpeed = 3

const (
	textDefaultDuration   = 30
	typingDefaultDuration = 90
	slideDistance         = 30
)

func textParams(def int) map[string]ParamSpec {
	return map[string]ParamSpec{
		"duration": {Type: "number", Default: def, Description: "animation length in frames"},
		"delay":    {Type: "number", Default: 0, Description: "frames to wait before starting"},
	}
}

func textInEntries() []Entry {
	return []Entry{
		{
			Category: CategoryTextIn,
			Name:     None,
			Fn:       identity,
			Meta:     Metadata{Description: "text appears without animation", DefaultDuration: textDefaultDuration},
		},
		{
			Category: CategoryTextIn,
			Name:     FadeIn,
			Fn:       fadeIn,
			Meta: Metadata{
				Description:     "text gradually fades in",
				DefaultDuration: textDefaultDuration,
				Params:          textParams(textDefaultDuration),
			},
		},
		{
			Category: CategoryTextIn,
			Name:     SlideUp,
			Fn:       slideUp,
			Meta: Metadata{
				Description:     "text slides up from below while fading in",
				DefaultDuration: textDefaultDuration,
				Params:          textParams(textDefaultDuration),
			},
		},
		{
			Category: CategoryTextIn,
			Name:     Typing,
			Fn:       typingMarker,
			Meta: Metadata{
				Description:     "text is typed out character by character",
				DefaultDuration: typingDefaultDuration,
				Params: map[string]ParamSpec{
					"duration": {Type: "number", Default: typingDefaultDuration, Description: "upper bound in frames; capped at 3 frames per character"},
					"text":     {Type: "string", Required: true, Description: "content to reveal"},
				},
			},
		},
		{
			Category: CategoryTextIn,
			Name:     WordByWordFade,
			Fn:       wordByWordFade,
			Meta: Metadata{
				Description:     "text chunks fade in one after another",
				DefaultDuration: 0,
				Params: map[string]ParamSpec{
					"duration":  {Type: "number", Description: "defaults to 3 frames per character"},
					"text":      {Type: "string", Required: true, Description: "content to reveal"},
					"chunkSize": {Type: "number", Default: 1, Description: "elements per chunk"},
				},
			},
		},
	}
}

func textOutEntries() []Entry {
	return []Entry{
		{
			Category: CategoryTextOut,
			Name:     None,
			Fn:       identity,
			Meta:     Metadata{Description: "text stays until the chunk ends", DefaultDuration: textDefaultDuration},
		},
		{
			Category: CategoryTextOut,
			Name:     FadeOut,
			Fn:       fadeOut,
			Meta: Metadata{
				Description:     "text gradually fades out",
				DefaultDuration: textDefaultDuration,
				Params:          textParams(textDefaultDuration),
			},
		},
		{
			Category: CategoryTextOut,
			Name:     SlideDown,
			Fn:       slideDown,
			Meta: Metadata{
				Description:     "text slides down while fading out",
				DefaultDuration: textDefaultDuration,
				Params:          textParams(textDefaultDuration),
			},
		},
	}
}

// textRamp maps the frame across the text window from start to end.
func textRamp(p Params, start, end float64) float64 {
	length := p.Length
	if length <= 0 {
		length = float64(p.Duration)
	}
	return Interpolate(float64(p.Frame)-p.Offset, []float64{0, length}, []float64{start, end})
}

func fadeIn(p Params) Style {
	return Style{Opacity: Opacity(textRamp(p, 0, 1))}
}

func fadeOut(p Params) Style {
	return Style{Opacity: Opacity(textRamp(p, 1, 0))}
}

func slideUp(p Params) Style {
	return Style{
		Opacity:   Opacity(textRamp(p, 0, 1)),
		Transform: []TransformOp{{Kind: OpTranslateY, Value: textRamp(p, slideDistance, 0), Unit: "px"}},
	}
}

func slideDown(p Params) Style {
	return Style{
		Opacity:   Opacity(textRamp(p, 1, 0)),
		Transform: []TransformOp{{Kind: OpTranslateY, Value: textRamp(p, 0, slideDistance), Unit: "px"}},
	}
}

// typingMarker only sets layout properties; the revealed prefix is computed
// by the caller from the frame.
func typingMarker(Params) Style {
	return Style{Decl: map[string]string{"overflow": "hidden", "whiteSpace": "pre-wrap"}}
}

func wordByWordFade(Params) Style {
	return Style{Opacity: Opacity(1)}
}

// TypingDuration caps the requested duration at TypingSpeed frames per character.
func TypingDuration(requested, textLen int) int {
	if limit := textLen * TypingSpeed; requested > limit {
		return limit
	}
	return requested
}

// VisibleChars is the number of characters revealed by a typing animation at frame.
func VisibleChars(frame, duration, total int) int {
	if total <= 0 {
		return 0
	}
	d := TypingDuration(duration, total)
	if d <= 0 {
		return total
	}
	n := int(Ramp(frame, 0, d, 0, float64(total)))
	return Clamp(n, 0, total)
}
