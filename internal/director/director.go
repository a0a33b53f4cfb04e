package director

import (
	"github.com/ivlev/scenevideo/internal/animation"
	"github.com/ivlev/scenevideo/internal/props"
	"github.com/ivlev/scenevideo/internal/textchunk"
	"github.com/ivlev/scenevideo/internal/timing"
)

const planVersion = "1.0"

// Director lays scenes out on the timeline and resolves their animation timing.
type Director struct {
	Registry *animation.Registry
	FPS      int
}

// NewDirector creates a Director with the built-in registry when reg is nil.
func NewDirector(reg *animation.Registry, fps int) *Director {
	if reg == nil {
		reg = animation.Default()
	}
	if fps <= 0 {
		fps = timing.DefaultFPS
	}
	return &Director{Registry: reg, FPS: fps}
}

// Timeline builds the scene timeline for p.
func (d *Director) Timeline(p *props.VideoProps) Timeline {
	return BuildTimeline(p.Media, d.FPS)
}

// TransitionWindow resolves the transition leg length of a scene; zero
// when the scene has no transition.
func (d *Director) TransitionWindow(s *props.Scene) int {
	if s.Transition == nil || s.Transition.Effect == "" || s.Transition.Effect == animation.None {
		return 0
	}
	r := timing.NewResolver(d.Registry, d.FPS)
	return r.Resolve(s.Transition.Duration, s.Transition.Effect, animation.CategoryTransition)
}

// GeneratePlan describes every scene of p with its offsets and chunks.
func (d *Director) GeneratePlan(p *props.VideoProps) *Plan {
	tl := d.Timeline(p)
	plan := &Plan{
		Version:     planVersion,
		FPS:         d.FPS,
		TotalFrames: tl.TotalFrames,
		Scenes:      make([]PlannedScene, 0, len(p.Media)),
	}

	for i := range p.Media {
		s := &p.Media[i]
		frames := tl.Durations[i]
		ps := PlannedScene{
			Index:     i,
			ID:        s.ID,
			Offset:    tl.Offsets[i],
			Frames:    frames,
			Seconds:   float64(frames) / float64(d.FPS),
			Effect:    animation.None,
			Filter:    animation.None,
			TextIn:    s.Script.Animation.In,
			TextOut:   s.Script.Animation.Out,
			Highlight: s.Script.Animation.Highlight,
			Voice:     s.Voice,
		}
		if s.Image != nil {
			ps.Image = s.Image.URL
			ps.Effect = s.Image.Animation.Effect
			ps.Filter = s.Image.Animation.Filter
		}
		if w := d.TransitionWindow(s); w > 0 {
			ps.Transition = &PlannedTransition{Effect: s.Transition.Effect, Window: w}
		}
		ps.Chunks = textchunk.Layout(s.Script.Text, frames, textchunk.ForAnimation(s.Script.Animation.In)).Chunks
		plan.Scenes = append(plan.Scenes, ps)
	}
	return plan
}
