// Package textchunk splits narration into timed chunks and computes the
// visibility curve of the chunk on screen.
package textchunk

import (
	"regexp"
	"strings"

	"github.com/ivlev/scenevideo/internal/animation"
)

const (
	// Delimiter marks explicit chunk boundaries in script text.
	Delimiter = "[SEPT]"
	// DefaultGroupSize is the number of tokens per chunk without delimiters.
	DefaultGroupSize = 4
	// FadeFrames is the length of the fade at each chunk edge.
	FadeFrames = 10
)

// A token is a whitespace separated word together with any markup attached
// to it. A highlight run is one token even when it spans several words, so
// chunks never open a highlight they do not close.
var token = regexp.MustCompile(`(?s)(?:<h\b[^>]*>.*?</h>|<[^>]*>|[^\s<]+|<)+`)

// Options control how text is split.
type Options struct {
	GroupSize int    // tokens per chunk for the word-group strategy
	Delimiter string // explicit separator; Delimiter when empty
}

// ForAnimation returns the options used by a text entrance animation.
// word-by-word-fade reveals one token at a time.
func ForAnimation(in string) Options {
	if in == animation.WordByWordFade {
		return Options{GroupSize: 1}
	}
	return Options{GroupSize: DefaultGroupSize}
}

// Split returns the chunks of text in order. Text containing the delimiter
// is split on it; otherwise whitespace tokens are grouped.
func Split(text string, opts Options) []string {
	delim := opts.Delimiter
	if delim == "" {
		delim = Delimiter
	}
	if strings.Contains(text, delim) {
		var chunks []string
		for _, seg := range strings.Split(text, delim) {
			if seg = strings.TrimSpace(seg); seg != "" {
				chunks = append(chunks, seg)
			}
		}
		return chunks
	}

	size := opts.GroupSize
	if size <= 0 {
		size = DefaultGroupSize
	}
	trimmed := strings.TrimSpace(text)
	tokens := token.FindAllString(trimmed, -1)

	var chunks []string
	for i := 0; i < len(tokens); i += size {
		end := min(i+size, len(tokens))
		chunks = append(chunks, strings.Join(tokens[i:end], " "))
	}
	if len(chunks) == 0 && trimmed != "" {
		return []string{trimmed}
	}
	return chunks
}

// Chunk is a time slice of scene text.
type Chunk struct {
	Index   int    `json:"index" yaml:"index"`
	Content string `json:"content" yaml:"content"`
	Start   int    `json:"start" yaml:"start"` // first frame in scene
	End     int    `json:"end" yaml:"end"`     // exclusive; the last chunk runs to scene end
}

// Plan is the chunk layout of one scene.
type Plan struct {
	Chunks      []Chunk `json:"chunks" yaml:"chunks"`
	ChunkFrames int     `json:"chunkFrames" yaml:"chunkFrames"`
	SceneFrames int     `json:"sceneFrames" yaml:"sceneFrames"`
}

// Layout splits text and divides the scene evenly between the chunks.
func Layout(text string, sceneFrames int, opts Options) Plan {
	contents := Split(text, opts)
	p := Plan{SceneFrames: sceneFrames, ChunkFrames: 1}
	if len(contents) == 0 {
		return p
	}
	if cf := sceneFrames / len(contents); cf > 1 {
		p.ChunkFrames = cf
	}

	p.Chunks = make([]Chunk, len(contents))
	for i, c := range contents {
		start := i * p.ChunkFrames
		end := start + p.ChunkFrames
		if i == len(contents)-1 && end < sceneFrames {
			end = sceneFrames
		}
		p.Chunks[i] = Chunk{Index: i, Content: c, Start: start, End: end}
	}
	return p
}

// Index returns the chunk shown at frame. Frames past the last nominal end
// keep the final chunk; negative frames map to the first.
func (p Plan) Index(frame int) int {
	if len(p.Chunks) == 0 {
		return -1
	}
	if frame < 0 {
		frame = 0
	}
	return min(frame/p.ChunkFrames, len(p.Chunks)-1)
}

// Active returns the chunk at frame and the frame offset inside it.
func (p Plan) Active(frame int) (Chunk, int, bool) {
	idx := p.Index(frame)
	if idx < 0 {
		return Chunk{}, 0, false
	}
	c := p.Chunks[idx]
	if frame < 0 {
		frame = 0
	}
	return c, frame - c.Start, true
}

// IsLast reports whether idx is the final chunk.
func (p Plan) IsLast(idx int) bool {
	return idx == len(p.Chunks)-1
}

// Opacity of the chunk on screen at frame: a 10 frame fade in at every
// chunk start and a 10 frame fade out before every chunk end except the
// last. Chunks shorter than two fade windows never reach full opacity.
func (p Plan) Opacity(frame int) float64 {
	c, local, ok := p.Active(frame)
	if !ok {
		return 0
	}
	v := animation.Ramp(local, 0, FadeFrames, 0, 1)
	if !p.IsLast(c.Index) {
		out := animation.Ramp(local, p.ChunkFrames-FadeFrames, p.ChunkFrames, 1, 0)
		v = min(v, out)
	}
	return v
}
