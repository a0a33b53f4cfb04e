package director

import (
	"sort"

	"github.com/ivlev/scenevideo/internal/props"
	"github.com/ivlev/scenevideo/internal/timing"
)

// Timeline maps global frames onto scenes.
type Timeline struct {
	Offsets     []int `json:"offsets" yaml:"offsets"`
	Durations   []int `json:"durations" yaml:"durations"`
	TotalFrames int   `json:"totalFrames" yaml:"totalFrames"`
}

// FromDurations builds a timeline from per-scene frame counts. Counts
// below one are raised to one frame.
func FromDurations(durations []int) Timeline {
	tl := Timeline{
		Offsets:   make([]int, len(durations)),
		Durations: make([]int, len(durations)),
	}
	offset := 0
	for i, d := range durations {
		if d < 1 {
			d = 1
		}
		tl.Offsets[i] = offset
		tl.Durations[i] = d
		offset += d
	}
	tl.TotalFrames = offset
	return tl
}

// BuildTimeline resolves each scene's length from its audio duration.
func BuildTimeline(scenes []props.Scene, fps int) Timeline {
	durations := make([]int, len(scenes))
	for i := range scenes {
		durations[i] = timing.SceneFrames(scenes[i].AudioDuration, fps)
	}
	return FromDurations(durations)
}

// Len returns the number of scenes.
func (t Timeline) Len() int {
	return len(t.Offsets)
}

// Locate returns the scene shown at global and the frame inside it. Frames
// before zero clamp to the first scene's start, frames past the end stay
// in the last scene. An empty timeline returns (-1, 0).
func (t Timeline) Locate(global int) (int, int) {
	n := len(t.Offsets)
	if n == 0 {
		return -1, 0
	}
	if global < 0 {
		return 0, 0
	}
	// first offset greater than global, minus one
	i := sort.Search(n, func(i int) bool { return t.Offsets[i] > global }) - 1
	if i < 0 {
		i = 0
	}
	return i, global - t.Offsets[i]
}
