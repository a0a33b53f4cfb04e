// Package renderer evaluates the animated state of a video at a frame.
//
// Evaluation is pure: it performs no I/O, keeps no state between calls and
// may be invoked concurrently and out of order for the same sequence.
package renderer

import (
	"github.com/ivlev/scenevideo/internal/animation"
	"github.com/ivlev/scenevideo/internal/director"
	"github.com/ivlev/scenevideo/internal/markup"
	"github.com/ivlev/scenevideo/internal/props"
	"github.com/ivlev/scenevideo/internal/textchunk"
	"github.com/ivlev/scenevideo/internal/timing"
)

// Phase is the part of a chunk's life the text animation is in.
type Phase string

const (
	PhaseEntrance Phase = "entrance"
	PhaseHold     Phase = "hold"
	PhaseExit     Phase = "exit"
)

// HighlightSpan is a parsed markup span with its resolved style.
type HighlightSpan struct {
	markup.Span
	Style animation.Style `json:"style" yaml:"style"`
}

// TextFrame is the state of the text area.
type TextFrame struct {
	ChunkIndex   int             `json:"chunkIndex"`
	ChunkCount   int             `json:"chunkCount"`
	FrameInChunk int             `json:"frameInChunk"`
	Content      string          `json:"content"`
	Visible      string          `json:"visible"`
	Phase        Phase           `json:"phase"`
	Style        animation.Style `json:"style"`
	Spans        []HighlightSpan `json:"spans"`
}

// SceneFrame is the evaluated state of one scene at a local frame.
type SceneFrame struct {
	SceneIndex   int             `json:"sceneIndex"`
	FrameInScene int             `json:"frameInScene"`
	SceneFrames  int             `json:"sceneFrames"`
	Image        animation.Style `json:"image"`
	Text         TextFrame       `json:"text"`
	// Transition applies to the image area only.
	Transition animation.Style `json:"transition"`
}

// FrameState is the evaluated state of the whole video at a global frame.
type FrameState struct {
	Frame int `json:"frame"`
	SceneFrame
}

// Evaluator combines the registry, chunk layout and duration rules into
// per-frame styles.
type Evaluator struct {
	Registry *animation.Registry
	FPS      int
	resolver *timing.Resolver
}

// NewEvaluator creates an Evaluator with the built-in registry when reg is nil.
func NewEvaluator(reg *animation.Registry, fps int) *Evaluator {
	if reg == nil {
		reg = animation.Default()
	}
	if fps <= 0 {
		fps = timing.DefaultFPS
	}
	return &Evaluator{Registry: reg, FPS: fps, resolver: timing.NewResolver(reg, fps)}
}

// Sequence is the frame-independent part of a render: the timeline, the
// chunk layout of every scene and the highlight override of the theme.
// It is read-only after Prepare.
type Sequence struct {
	Props     *props.VideoProps
	Timeline  director.Timeline
	Chunks    []textchunk.Plan
	Highlight map[string]string
}

// Prepare lays out p once so each frame only does the per-frame work.
func (e *Evaluator) Prepare(p *props.VideoProps) *Sequence {
	tl := director.BuildTimeline(p.Media, e.FPS)
	seq := &Sequence{
		Props:     p,
		Timeline:  tl,
		Chunks:    make([]textchunk.Plan, len(p.Media)),
		Highlight: highlightOverride(p.TemplateStyle),
	}
	for i := range p.Media {
		s := &p.Media[i]
		seq.Chunks[i] = textchunk.Layout(s.Script.Text, tl.Durations[i], textchunk.ForAnimation(s.Script.Animation.In))
	}
	return seq
}

// TotalFrames is the length of the sequence.
func (s *Sequence) TotalFrames() int {
	return s.Timeline.TotalFrames
}

// Evaluate returns the state of seq at a global frame. Frames outside the
// timeline clamp to the first or last scene.
func (e *Evaluator) Evaluate(seq *Sequence, frame int) FrameState {
	idx, local := seq.Timeline.Locate(frame)
	if idx < 0 {
		return FrameState{Frame: frame, SceneFrame: neutralScene(-1, 0, 0)}
	}
	scene := &seq.Props.Media[idx]
	sf := e.evaluate(scene, seq.Chunks[idx], local, seq.Timeline.Durations[idx], seq.Highlight)
	sf.SceneIndex = idx
	return FrameState{Frame: frame, SceneFrame: sf}
}

// EvaluateScene evaluates a single scene at frameInScene. sceneFrames <= 0
// derives the length from the scene's audio.
func (e *Evaluator) EvaluateScene(s *props.Scene, frameInScene, sceneFrames int) SceneFrame {
	if sceneFrames <= 0 {
		sceneFrames = timing.SceneFrames(s.AudioDuration, e.FPS)
	}
	plan := textchunk.Layout(s.Script.Text, sceneFrames, textchunk.ForAnimation(s.Script.Animation.In))
	return e.evaluate(s, plan, frameInScene, sceneFrames, nil)
}

func (e *Evaluator) evaluate(s *props.Scene, plan textchunk.Plan, frame, sceneFrames int, override map[string]string) SceneFrame {
	if frame < 0 {
		frame = 0
	}
	return SceneFrame{
		FrameInScene: frame,
		SceneFrames:  sceneFrames,
		Image:        e.imageStyle(s, frame),
		Text:         e.textFrame(s, plan, frame, override),
		Transition:   e.transitionStyle(s, frame, sceneFrames),
	}
}

func (e *Evaluator) imageStyle(s *props.Scene, frame int) animation.Style {
	style := animation.Style{Opacity: animation.Opacity(1)}
	if s.Image == nil {
		return style
	}
	effect := e.Registry.Resolve(animation.CategoryImage, s.Image.Animation.Effect)
	style = style.Merge(effect.Evaluate(animation.Params{
		Frame:    frame,
		Duration: e.resolver.Resolve(0, effect.Name, animation.CategoryImage),
	}))
	filter := e.Registry.Resolve(animation.CategoryFilter, s.Image.Animation.Filter)
	return style.Merge(filter.Evaluate(animation.Params{Frame: frame}))
}

func (e *Evaluator) transitionStyle(s *props.Scene, frame, sceneFrames int) animation.Style {
	if s.Transition == nil {
		return animation.Style{}
	}
	tr := e.Registry.Resolve(animation.CategoryTransition, s.Transition.Effect)
	if tr.Name == animation.None {
		return animation.Style{}
	}
	window := e.resolver.Resolve(s.Transition.Duration, tr.Name, animation.CategoryTransition)
	if !animation.InTransitionWindow(frame, window, sceneFrames) {
		return animation.Style{}
	}
	return tr.Evaluate(animation.Params{Frame: frame, Duration: window, Span: sceneFrames})
}

func neutralScene(idx, frame, sceneFrames int) SceneFrame {
	return SceneFrame{
		SceneIndex:   idx,
		FrameInScene: frame,
		SceneFrames:  sceneFrames,
		Image:        animation.Style{Opacity: animation.Opacity(1)},
		Text:         TextFrame{ChunkIndex: -1, Phase: PhaseHold, Style: animation.Style{Opacity: animation.Opacity(0)}},
	}
}
