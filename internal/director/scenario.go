package director

import "github.com/ivlev/scenevideo/internal/textchunk"

// Plan is a frame-level breakdown of a render, written for inspection.
type Plan struct {
	Version     string         `yaml:"version"`
	FPS         int            `yaml:"fps"`
	TotalFrames int            `yaml:"totalFrames"`
	Scenes      []PlannedScene `yaml:"scenes"`
}

// PlannedScene is one scene with its resolved timing.
type PlannedScene struct {
	Index      int                `yaml:"index"`
	ID         string             `yaml:"id,omitempty"`
	Offset     int                `yaml:"offset"`
	Frames     int                `yaml:"frames"`
	Seconds    float64            `yaml:"seconds"`
	Image      string             `yaml:"image,omitempty"`
	Effect     string             `yaml:"effect"`
	Filter     string             `yaml:"filter"`
	TextIn     string             `yaml:"textIn"`
	TextOut    string             `yaml:"textOut"`
	Highlight  string             `yaml:"highlight"`
	Transition *PlannedTransition `yaml:"transition,omitempty"`
	Voice      string             `yaml:"voice,omitempty"`
	Chunks     []textchunk.Chunk  `yaml:"chunks"`
}

// PlannedTransition is a transition with its window resolved.
type PlannedTransition struct {
	Effect string `yaml:"effect"`
	Window int    `yaml:"window"`
}
