package director

import (
	"path/filepath"
	"testing"

	"github.com/ivlev/scenevideo/internal/props"
)

func audio(v float64) *float64 { return &v }

func TestTimelineContinuity(t *testing.T) {
	cases := [][]int{
		{90},
		{126, 90, 30},
		{1, 1, 1, 1},
		{0, 45, -3},
	}

	for _, durations := range cases {
		tl := FromDurations(durations)
		if tl.Offsets[0] != 0 {
			t.Errorf("%v: first offset %d", durations, tl.Offsets[0])
		}
		for i := 0; i+1 < tl.Len(); i++ {
			if tl.Offsets[i+1] != tl.Offsets[i]+tl.Durations[i] {
				t.Errorf("%v: offsets not continuous at %d: %v", durations, i, tl.Offsets)
			}
		}
		for i, off := range tl.Offsets {
			scene, local := tl.Locate(off)
			if scene != i || local != 0 {
				t.Errorf("%v: Locate(%d) = (%d, %d), expected (%d, 0)", durations, off, scene, local, i)
			}
		}
		last := tl.Len() - 1
		if tl.TotalFrames != tl.Offsets[last]+tl.Durations[last] {
			t.Errorf("%v: total %d", durations, tl.TotalFrames)
		}
	}
}

func TestLocate(t *testing.T) {
	tl := FromDurations([]int{126, 90})

	tests := []struct {
		frame, scene, local int
	}{
		{-5, 0, 0},
		{0, 0, 0},
		{125, 0, 125},
		{126, 1, 0},
		{215, 1, 89},
		{500, 1, 374},
	}

	for _, tt := range tests {
		scene, local := tl.Locate(tt.frame)
		if scene != tt.scene || local != tt.local {
			t.Errorf("Locate(%d) = (%d, %d), expected (%d, %d)", tt.frame, scene, local, tt.scene, tt.local)
		}
	}

	if scene, _ := (Timeline{}).Locate(3); scene != -1 {
		t.Errorf("empty timeline: expected -1, got %d", scene)
	}
}

func TestBuildTimelineFromAudio(t *testing.T) {
	scenes := []props.Scene{
		{AudioDuration: audio(4.2)},
		{},
	}
	tl := BuildTimeline(scenes, 30)
	if tl.Durations[0] != 126 || tl.Durations[1] != 90 {
		t.Errorf("unexpected durations %v", tl.Durations)
	}
	if tl.TotalFrames != 216 {
		t.Errorf("expected 216 total frames, got %d", tl.TotalFrames)
	}
}

func samplePlanProps() *props.VideoProps {
	p := &props.VideoProps{Media: []props.Scene{
		{
			ID:         "intro",
			Image:      &props.Image{URL: "a.jpg", Animation: props.ImageAnimation{Effect: "zoom-in"}},
			Script:     props.Script{Text: "alpha beta gamma delta [SEPT] epsilon zeta"},
			Transition: &props.Transition{Effect: "fade"},
		},
		{
			Script:        props.Script{Text: "a b c d e"},
			AudioDuration: audio(2),
			Transition:    &props.Transition{Effect: "wipe-up", Duration: 20},
		},
	}}
	props.ApplyDefaults(p)
	return p
}

func TestGeneratePlan(t *testing.T) {
	plan := NewDirector(nil, 30).GeneratePlan(samplePlanProps())

	if plan.Version != "1.0" || plan.TotalFrames != 150 {
		t.Errorf("unexpected plan header: %+v", plan)
	}
	if len(plan.Scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(plan.Scenes))
	}

	first := plan.Scenes[0]
	if first.Effect != "zoom-in" || len(first.Chunks) != 2 || first.Chunks[1].Start != 45 {
		t.Errorf("unexpected first scene: %+v", first)
	}
	if first.Transition == nil || first.Transition.Window != 15 {
		t.Errorf("expected default 15 frame window, got %+v", first.Transition)
	}

	second := plan.Scenes[1]
	if second.Offset != 90 || second.Frames != 60 || second.Seconds != 2 {
		t.Errorf("unexpected second scene timing: %+v", second)
	}
	if second.Transition == nil || second.Transition.Window != 20 {
		t.Errorf("expected explicit 20 frame window, got %+v", second.Transition)
	}
	if second.Effect != "none" {
		t.Errorf("scene without image should plan effect none, got %q", second.Effect)
	}
}

func TestPlanWriteRead(t *testing.T) {
	plan := NewDirector(nil, 30).GeneratePlan(samplePlanProps())

	path := filepath.Join(t.TempDir(), "plans", "plan.yaml")
	if err := WritePlan(plan, path); err != nil {
		t.Fatalf("WritePlan failed: %v", err)
	}

	loaded, err := ReadPlan(path)
	if err != nil {
		t.Fatalf("ReadPlan failed: %v", err)
	}
	if loaded.TotalFrames != plan.TotalFrames || len(loaded.Scenes) != len(plan.Scenes) {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
	if loaded.Scenes[0].Chunks[0].Content != "alpha beta gamma delta" {
		t.Errorf("unexpected chunk content %q", loaded.Scenes[0].Chunks[0].Content)
	}
}
