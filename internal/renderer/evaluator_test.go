package renderer

import (
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/ivlev/scenevideo/internal/animation"
	"github.com/ivlev/scenevideo/internal/props"
)

const eps = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func textScene(text, in, out string) *props.Scene {
	return &props.Scene{Script: props.Script{
		Text:      text,
		Animation: props.ScriptAnimation{In: in, Out: out},
	}}
}

func TestTextWindow(t *testing.T) {
	tests := []struct {
		chunk, duration int
		want            float64
	}{
		{45, 30, 13.5},
		{300, 30, 20},
		{300, 10, 10},
		{2, 30, 0.6},
		{0, 30, 0},
		{100, 0, 20},
	}
	for _, tt := range tests {
		if got := textWindow(tt.chunk, tt.duration); !approx(got, tt.want) {
			t.Errorf("textWindow(%d, %d) = %v, expected %v", tt.chunk, tt.duration, got, tt.want)
		}
	}
}

func TestEntranceAndExitPhases(t *testing.T) {
	e := NewEvaluator(nil, 30)
	s := textScene("one two three four five six seven eight", animation.FadeIn, animation.FadeOut)

	tests := []struct {
		frame   int
		chunk   int
		phase   Phase
		opacity float64
	}{
		{0, 0, PhaseEntrance, 0},
		{6, 0, PhaseEntrance, 6 / 13.5},
		{13, 0, PhaseEntrance, 13 / 13.5},
		{14, 0, PhaseHold, 1},
		{31, 0, PhaseHold, 1},
		{32, 0, PhaseExit, 1 - 0.5/13.5},
		{38, 0, PhaseExit, 1 - 6.5/13.5},
		{44, 0, PhaseExit, 1 - 12.5/13.5},
		{45, 1, PhaseEntrance, 0},
	}

	for _, tt := range tests {
		sf := e.EvaluateScene(s, tt.frame, 0)
		if sf.SceneFrames != 90 {
			t.Fatalf("expected 90 scene frames, got %d", sf.SceneFrames)
		}
		if sf.Text.ChunkIndex != tt.chunk || sf.Text.Phase != tt.phase {
			t.Errorf("frame %d: chunk %d phase %s, expected chunk %d phase %s",
				tt.frame, sf.Text.ChunkIndex, sf.Text.Phase, tt.chunk, tt.phase)
		}
		if got := sf.Text.Style.OpacityOr(-1); !approx(got, tt.opacity) {
			t.Errorf("frame %d: opacity %v, expected %v", tt.frame, got, tt.opacity)
		}
	}
}

func TestEntranceExitExclusive(t *testing.T) {
	e := NewEvaluator(nil, 30)
	s := textScene("one two three four five six seven eight", animation.SlideUp, animation.SlideDown)

	for frame := 0; frame < 90; frame++ {
		sf := e.EvaluateScene(s, frame, 0)
		if n := len(sf.Text.Style.Transform); n > 1 {
			t.Fatalf("frame %d: %d transforms, entrance and exit must not blend", frame, n)
		}
	}

	sf := e.EvaluateScene(s, 40, 0)
	if sf.Text.Phase != PhaseExit {
		t.Fatalf("frame 40 should be in the exit phase, got %s", sf.Text.Phase)
	}
	if got := sf.Text.Style.Translate(animation.OpTranslateY, "px"); !approx(got, 8.5/13.5*30) {
		t.Errorf("expected slideDown offset %v, got %v", 8.5/13.5*30, got)
	}

	sf = e.EvaluateScene(s, 3, 0)
	if got := sf.Text.Style.Translate(animation.OpTranslateY, "px"); !approx(got, 30*(1-3/13.5)) {
		t.Errorf("expected slideUp offset %v, got %v", 30*(1-3/13.5), got)
	}
}

func TestTypingReveal(t *testing.T) {
	e := NewEvaluator(nil, 30)

	s := textScene("hello", animation.Typing, animation.None)
	tests := []struct {
		frame int
		want  string
	}{
		{0, ""},
		{3, "h"},
		{9, "hel"},
		{15, "hello"},
		{80, "hello"},
	}
	for _, tt := range tests {
		sf := e.EvaluateScene(s, tt.frame, 0)
		if sf.Text.Visible != tt.want {
			t.Errorf("frame %d: visible %q, expected %q", tt.frame, sf.Text.Visible, tt.want)
		}
		if sf.Text.Content != "hello" {
			t.Errorf("frame %d: content should stay whole, got %q", tt.frame, sf.Text.Content)
		}
		if sf.Text.Style.Decl["overflow"] != "hidden" {
			t.Errorf("frame %d: typing layout missing: %v", tt.frame, sf.Text.Style.Decl)
		}
	}
}

func TestTypingKeepsTags(t *testing.T) {
	e := NewEvaluator(nil, 30)
	s := textScene("<h>hi</h> there", animation.Typing, animation.None)

	sf := e.EvaluateScene(s, 6, 0)
	if sf.Text.Visible != "<h>hi</h>" {
		t.Fatalf("unexpected visible text %q", sf.Text.Visible)
	}
	if len(sf.Text.Spans) != 1 || !sf.Text.Spans[0].Highlight || sf.Text.Spans[0].Text != "hi" {
		t.Fatalf("unexpected spans %+v", sf.Text.Spans)
	}
	if sf.Text.Spans[0].Style.Decl["backgroundColor"] != "#ffeb3b" {
		t.Errorf("expected default yellow-box, got %v", sf.Text.Spans[0].Style.Decl)
	}

	sf = e.EvaluateScene(s, 0, 0)
	if len(sf.Text.Spans) != 0 {
		t.Errorf("nothing typed yet, got spans %+v", sf.Text.Spans)
	}
}

func TestHighlightChunks(t *testing.T) {
	e := NewEvaluator(nil, 30)

	tests := []struct {
		name    string
		text    string
		frame   int
		content string
		span    string
	}{
		{"single chunk", "plain <h>urgent</h> more", 20, "plain <h>urgent</h> more", "urgent"},
		{"trailing punctuation", "plain <h>urgent</h>, more", 20, "plain <h>urgent</h>, more", "urgent"},
		{"run at a group boundary", "a b c <h>d e</h> f", 20, "a b c <h>d e</h>", "d e"},
		{"run after a full group", "a b c d <h>e f g</h> h", 160, "<h>e f g</h> h", "e f g"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sf := e.EvaluateScene(textScene(tt.text, animation.FadeIn, animation.None), tt.frame, 300)
			if sf.Text.Content != tt.content {
				t.Fatalf("expected content %q, got %q", tt.content, sf.Text.Content)
			}
			var hl []string
			for _, sp := range sf.Text.Spans {
				if sp.Highlight {
					hl = append(hl, sp.Text)
				}
			}
			if len(hl) != 1 || hl[0] != tt.span {
				t.Errorf("expected highlighted span %q, got %q", tt.span, hl)
			}
		})
	}
}

func TestTypingBoundedByChunk(t *testing.T) {
	e := NewEvaluator(nil, 30)
	s := textScene("abcdefghijklmnopqrst", animation.Typing, animation.None)

	// 20 characters want 60 frames; a 30 frame scene allows 24.
	sf := e.EvaluateScene(s, 24, 30)
	if sf.Text.Visible != s.Script.Text {
		t.Errorf("reveal should finish at 80%% of the chunk, got %q", sf.Text.Visible)
	}
	sf = e.EvaluateScene(s, 12, 30)
	if sf.Text.Visible != "abcdefghij" {
		t.Errorf("expected half the text at frame 12, got %q", sf.Text.Visible)
	}
}

func TestWordByWordFade(t *testing.T) {
	e := NewEvaluator(nil, 30)
	s := textScene("a b c", animation.WordByWordFade, animation.FadeOut)

	tests := []struct {
		frame   int
		chunk   int
		phase   Phase
		opacity float64
	}{
		{5, 0, PhaseEntrance, 0.5},
		{15, 0, PhaseHold, 1},
		{25, 0, PhaseExit, 0.5},
		{35, 1, PhaseEntrance, 0.5},
		{85, 2, PhaseHold, 1},
	}
	for _, tt := range tests {
		sf := e.EvaluateScene(s, tt.frame, 0)
		if sf.Text.ChunkCount != 3 {
			t.Fatalf("expected one chunk per word, got %d", sf.Text.ChunkCount)
		}
		if sf.Text.ChunkIndex != tt.chunk || sf.Text.Phase != tt.phase {
			t.Errorf("frame %d: chunk %d phase %s, expected %d %s", tt.frame, sf.Text.ChunkIndex, sf.Text.Phase, tt.chunk, tt.phase)
		}
		if got := sf.Text.Style.OpacityOr(-1); !approx(got, tt.opacity) {
			t.Errorf("frame %d: opacity %v, expected %v", tt.frame, got, tt.opacity)
		}
	}
}

func TestImageStyle(t *testing.T) {
	e := NewEvaluator(nil, 30)
	s := &props.Scene{
		Image:  &props.Image{URL: "a.jpg", Animation: props.ImageAnimation{Effect: animation.ZoomIn, Filter: "sepia"}},
		Script: props.Script{Text: "x"},
	}

	sf := e.EvaluateScene(s, 45, 0)
	if got := sf.Image.Scale(); !approx(got, 1.075) {
		t.Errorf("expected scale 1.075 at frame 45, got %v", got)
	}
	if sf.Image.Filter != "sepia(100%)" {
		t.Errorf("expected sepia filter, got %q", sf.Image.Filter)
	}

	// image curves run on the scene clock, not the chunk clock
	s.Script.Text = "a b c d e f g h i j k l"
	sf = e.EvaluateScene(s, 60, 0)
	if got := sf.Image.Scale(); !approx(got, 1.1) {
		t.Errorf("expected scale 1.1 at frame 60, got %v", got)
	}
}

func TestTransitionWindow(t *testing.T) {
	e := NewEvaluator(nil, 30)
	s := textScene("x", animation.None, animation.None)
	s.Transition = &props.Transition{Effect: animation.Fade}

	tests := []struct {
		frame   int
		active  bool
		opacity float64
	}{
		{0, true, 0},
		{7, true, 7.0 / 15},
		{15, false, 0},
		{50, false, 0},
		{80, true, 1 - 5.0/15},
	}
	for _, tt := range tests {
		sf := e.EvaluateScene(s, tt.frame, 0)
		if sf.Transition.IsZero() == tt.active {
			t.Errorf("frame %d: transition active = %v, expected %v", tt.frame, !sf.Transition.IsZero(), tt.active)
			continue
		}
		if tt.active && !approx(sf.Transition.OpacityOr(-1), tt.opacity) {
			t.Errorf("frame %d: opacity %v, expected %v", tt.frame, sf.Transition.OpacityOr(-1), tt.opacity)
		}
	}

	s.Transition = &props.Transition{Effect: animation.None}
	if sf := e.EvaluateScene(s, 0, 0); !sf.Transition.IsZero() {
		t.Errorf("none transition should contribute nothing, got %v", sf.Transition)
	}
}

func TestUnknownNamesFailClosed(t *testing.T) {
	e := NewEvaluator(nil, 30)
	s := &props.Scene{
		Image:      &props.Image{URL: "a.jpg", Animation: props.ImageAnimation{Effect: "spin", Filter: "neon"}},
		Script:     props.Script{Text: "<h>bro</h>ken <h>markup", Animation: props.ScriptAnimation{In: "bounce", Out: "explode", Highlight: "sparkle"}},
		Transition: &props.Transition{Effect: "cube"},
	}

	for _, frame := range []int{-10, 0, 1, 30, 89, 90, 5000} {
		sf := e.EvaluateScene(s, frame, 0)
		if sf.Image.OpacityOr(-1) != 1 || len(sf.Image.Transform) != 0 || sf.Image.Filter != animation.None {
			t.Errorf("frame %d: unknown image names should be neutral, got %v", frame, sf.Image)
		}
		if !sf.Transition.IsZero() {
			t.Errorf("frame %d: unknown transition should contribute nothing, got %v", frame, sf.Transition)
		}
		if sf.Text.Style.Opacity == nil {
			t.Errorf("frame %d: text opacity must always be set", frame)
		}
		for _, sp := range sf.Text.Spans {
			if len(sp.Style.Decl) != 0 {
				t.Errorf("frame %d: unknown highlight should be unstyled, got %v", frame, sp.Style.Decl)
			}
		}
	}

	// unknown entrance falls back to fadeIn
	if sf := e.EvaluateScene(s, 0, 0); sf.Text.Style.OpacityOr(-1) != 0 {
		t.Errorf("expected fadeIn fallback to start transparent, got %v", sf.Text.Style)
	}

	// an unknown exit leaves the chunk fully visible until it changes
	exit := textScene("one two three four five six seven eight", animation.FadeIn, "bogus")
	for frame := 14; frame < 45; frame++ {
		sf := e.EvaluateScene(exit, frame, 90)
		if got := sf.Text.Style.OpacityOr(-1); got != 1 {
			t.Errorf("frame %d: expected opacity 1 with an unknown exit, got %v", frame, got)
		}
		if sf.Text.Phase == PhaseExit {
			t.Errorf("frame %d: unknown exit should not enter the exit phase", frame)
		}
	}
}

func TestEmptyText(t *testing.T) {
	e := NewEvaluator(nil, 30)
	sf := e.EvaluateScene(textScene("   ", animation.FadeIn, animation.None), 10, 0)
	if sf.Text.ChunkIndex != -1 || sf.Text.Style.OpacityOr(-1) != 0 || len(sf.Text.Spans) != 0 {
		t.Errorf("empty text should evaluate to an invisible text area, got %+v", sf.Text)
	}
}

func TestHighlightOverride(t *testing.T) {
	e := NewEvaluator(nil, 30)
	p := &props.VideoProps{
		TemplateStyle: &props.TemplateStyle{Highlight: &props.HighlightStyle{BackgroundColor: "#123456"}},
		Media:         []props.Scene{*textScene("<h type=\"glow\">hi</h>", animation.None, animation.None)},
	}

	fs := e.Evaluate(e.Prepare(p), 0)
	if len(fs.Text.Spans) != 1 {
		t.Fatalf("expected one span, got %+v", fs.Text.Spans)
	}
	decl := fs.Text.Spans[0].Style.Decl
	if decl["backgroundColor"] != "#123456" || decl["color"] != "#000000" {
		t.Errorf("theme highlight should replace the glow style, got %v", decl)
	}

	p.TemplateStyle = nil
	fs = e.Evaluate(e.Prepare(p), 0)
	if fs.Text.Spans[0].Style.Decl["textShadow"] == "" {
		t.Errorf("expected glow style without override, got %v", fs.Text.Spans[0].Style.Decl)
	}
}

func sampleProps() *props.VideoProps {
	d := 2.0
	return &props.VideoProps{Media: []props.Scene{
		*textScene("one two three four", animation.FadeIn, animation.FadeOut),
		{
			Script:        props.Script{Text: "five six [SEPT] seven eight", Animation: props.ScriptAnimation{In: animation.SlideUp}},
			AudioDuration: &d,
			Transition:    &props.Transition{Effect: animation.WipeUp},
		},
	}}
}

func TestEvaluateGlobalFrame(t *testing.T) {
	e := NewEvaluator(nil, 30)
	seq := e.Prepare(sampleProps())

	if seq.TotalFrames() != 150 {
		t.Fatalf("expected 150 frames, got %d", seq.TotalFrames())
	}

	fs := e.Evaluate(seq, 95)
	if fs.SceneIndex != 1 || fs.FrameInScene != 5 || fs.Frame != 95 {
		t.Errorf("unexpected location %+v", fs.SceneFrame)
	}
	if fs.Transition.ClipPath == nil {
		t.Errorf("wipe-up should clip during its entrance window")
	}

	fs = e.Evaluate(seq, 10000)
	if fs.SceneIndex != 1 || fs.Text.ChunkIndex != 1 || fs.Text.Content != "seven eight" {
		t.Errorf("frames past the end should hold the last chunk, got %+v", fs.Text)
	}

	empty := e.Prepare(&props.VideoProps{})
	if fs := e.Evaluate(empty, 0); fs.SceneIndex != -1 || fs.Text.Style.OpacityOr(-1) != 0 {
		t.Errorf("empty sequence should be neutral, got %+v", fs)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	e := NewEvaluator(nil, 30)
	seq := e.Prepare(sampleProps())

	want := make([]FrameState, seq.TotalFrames())
	for f := range want {
		want[f] = e.Evaluate(seq, f)
	}

	var wg sync.WaitGroup
	errs := make(chan int, len(want))
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for f := len(want) - 1 - w; f >= 0; f -= 4 {
				if !reflect.DeepEqual(e.Evaluate(seq, f), want[f]) {
					errs <- f
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for f := range errs {
		t.Errorf("frame %d evaluated differently on re-evaluation", f)
	}
}
