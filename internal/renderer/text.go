package renderer

import (
	"math"

	"github.com/ivlev/scenevideo/internal/animation"
	"github.com/ivlev/scenevideo/internal/markup"
	"github.com/ivlev/scenevideo/internal/props"
	"github.com/ivlev/scenevideo/internal/textchunk"
)

const (
	// maxTextWindow caps entrance and exit windows in frames.
	maxTextWindow = 20
	// textWindowShare is the share of a chunk an entrance or exit may use.
	textWindowShare = 0.3
	// typingShare is the share of a chunk a typing reveal may use.
	typingShare = 0.8
)

// textWindow is min(chunkFrames*0.3, 20, duration) in fractional frames,
// never negative.
func textWindow(chunkFrames, duration int) float64 {
	w := math.Min(float64(chunkFrames)*textWindowShare, maxTextWindow)
	if duration > 0 {
		w = math.Min(w, float64(duration))
	}
	return math.Max(w, 0)
}

// windowParams describes a text curve over a fractional window starting at
// offset frames into the chunk.
func windowParams(local int, offset, window float64, cf int, content string) animation.Params {
	return animation.Params{
		Frame:    local,
		Duration: int(math.Ceil(window)),
		Span:     cf,
		Text:     content,
		Length:   window,
		Offset:   offset,
	}
}

func (e *Evaluator) textFrame(s *props.Scene, plan textchunk.Plan, frame int, override map[string]string) TextFrame {
	chunk, local, ok := plan.Active(frame)
	if !ok {
		return TextFrame{ChunkIndex: -1, Phase: PhaseHold, Style: animation.Style{Opacity: animation.Opacity(0)}}
	}

	anim := s.Script.Animation
	tf := TextFrame{
		ChunkIndex:   chunk.Index,
		ChunkCount:   len(plan.Chunks),
		FrameInChunk: local,
		Content:      chunk.Content,
		Visible:      chunk.Content,
	}

	cf := plan.ChunkFrames
	in := e.Registry.Resolve(animation.CategoryTextIn, orNone(anim.In))

	if in.Name == animation.WordByWordFade {
		tf.Phase = PhaseHold
		if local < textchunk.FadeFrames {
			tf.Phase = PhaseEntrance
		} else if !plan.IsLast(chunk.Index) && local >= cf-textchunk.FadeFrames {
			tf.Phase = PhaseExit
		}
		tf.Style = animation.Style{Opacity: animation.Opacity(plan.Opacity(frame))}
	} else {
		out := e.Registry.Resolve(animation.CategoryTextOut, orNone(anim.Out))
		inWin := textWindow(cf, e.resolver.Resolve(anim.InDuration, in.Name, animation.CategoryTextIn))
		outWin := textWindow(cf, e.resolver.Resolve(anim.OutDuration, out.Name, animation.CategoryTextOut))
		exitStart := float64(cf) - outWin

		switch at := float64(local); {
		case out.Name != animation.None && outWin > 0 && at >= exitStart:
			tf.Phase = PhaseExit
			tf.Style = out.Evaluate(windowParams(local, exitStart, outWin, cf, chunk.Content))
		case at < inWin:
			tf.Phase = PhaseEntrance
			tf.Style = in.Evaluate(windowParams(local, 0, inWin, cf, chunk.Content))
		default:
			tf.Phase = PhaseHold
			tf.Style = in.Evaluate(windowParams(local, 0, math.Max(inWin, 1), cf, chunk.Content))
		}

		if in.Name == animation.Typing {
			marker := in.Evaluate(animation.Params{Frame: local, Span: cf})
			tf.Style = animation.Style{Decl: marker.Decl}.Merge(tf.Style)
			tf.Visible = markup.Reveal(chunk.Content, e.typedChars(chunk.Content, anim.InDuration, cf, local))
		}
	}

	if tf.Style.Opacity == nil {
		tf.Style.Opacity = animation.Opacity(1)
	}
	tf.Spans = e.spans(tf.Visible, anim.Highlight, local, override)
	return tf
}

// orNone treats an unset animation as none rather than unknown.
func orNone(name string) string {
	if name == "" {
		return animation.None
	}
	return name
}

// typedChars is the number of characters a typing reveal shows at local,
// finishing within 80% of the chunk.
func (e *Evaluator) typedChars(content string, explicit, chunkFrames, local int) int {
	total := markup.CharCount(content)
	d := e.resolver.Typing(explicit, total)
	if bound := int(float64(chunkFrames) * typingShare); bound > 0 && d > bound {
		d = bound
	}
	return animation.VisibleChars(local, d, total)
}

func (e *Evaluator) spans(text, highlight string, local int, override map[string]string) []HighlightSpan {
	if highlight == "" {
		highlight = animation.DefaultHighlight
	}
	parsed := markup.Parse(text, highlight)
	out := make([]HighlightSpan, len(parsed))
	for i, sp := range parsed {
		out[i] = HighlightSpan{Span: sp}
		if !sp.Highlight {
			continue
		}
		if len(override) > 0 {
			out[i].Style = animation.Style{}.Merge(animation.Style{Decl: override})
			continue
		}
		h := e.Registry.Resolve(animation.CategoryHighlight, sp.Type)
		out[i].Style = animation.Style{}.Merge(h.Evaluate(animation.Params{Frame: local}))
	}
	return out
}

// highlightOverride is the template-level highlight look, nil when the
// theme leaves highlights to their per-type styles.
func highlightOverride(ts *props.TemplateStyle) map[string]string {
	theme := props.ResolveTheme(ts)
	if theme.HighlightBackground == "" && theme.HighlightText == "" {
		return nil
	}
	bg, fg := theme.HighlightBackground, theme.HighlightText
	if bg == "" {
		bg = "#ffd700"
	}
	if fg == "" {
		fg = "#000000"
	}
	return map[string]string{
		"backgroundColor": bg,
		"color":           fg,
		"padding":         "0.1em 0.3em",
		"borderRadius":    "4px",
	}
}
