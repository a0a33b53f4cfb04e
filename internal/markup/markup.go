// Package markup parses inline highlight tags in script text.
//
// Highlighted spans are written as <h>text</h> or <h type="glow">text</h>.
// Any other <...> run is treated as an opaque tag: it is kept intact when
// text is revealed progressively and never counted as a visible character.
package markup

import (
	"regexp"
	"strings"
)

var (
	highlightTag = regexp.MustCompile(`<h(?:\s+type\s*=\s*(?:"([^"]*)"|'([^']*)'))?\s*>|</h>`)
	revealToken  = regexp.MustCompile(`(?s)<[^>]+>|.`)
	anyTag       = regexp.MustCompile(`<[^>]+>`)
)

// Span is a run of text with a single treatment.
type Span struct {
	Text      string `json:"text" yaml:"text"`
	Highlight bool   `json:"highlight" yaml:"highlight"`
	Type      string `json:"type,omitempty" yaml:"type,omitempty"`
}

// Parse splits text into ordered plain and highlighted spans. A type
// attribute overrides defaultType. Text after an unclosed <h> is returned
// as plain; a stray </h> is dropped.
func Parse(text, defaultType string) []Span {
	var spans []Span
	open := -1 // index of the first span inside an open <h>
	typ := defaultType
	last := 0

	emit := func(s string) {
		if s == "" {
			return
		}
		if open >= 0 {
			spans = append(spans, Span{Text: s, Highlight: true, Type: typ})
			return
		}
		spans = append(spans, Span{Text: s})
	}

	for _, m := range highlightTag.FindAllStringSubmatchIndex(text, -1) {
		emit(text[last:m[0]])
		last = m[1]

		if text[m[0]:m[1]] == "</h>" {
			open = -1
			continue
		}
		if open < 0 {
			open = len(spans)
		}
		typ = defaultType
		for g := 2; g < len(m); g += 2 {
			if m[g] >= 0 && m[g+1] > m[g] {
				typ = text[m[g]:m[g+1]]
			}
		}
	}
	emit(text[last:])

	if open >= 0 {
		for i := open; i < len(spans); i++ {
			spans[i].Highlight = false
			spans[i].Type = ""
		}
	}
	return spans
}

// CharCount returns the number of visible characters, excluding tags.
func CharCount(text string) int {
	n := 0
	for _, tok := range revealToken.FindAllString(text, -1) {
		if !isTag(tok) {
			n++
		}
	}
	return n
}

// Reveal returns text with only the first visible characters shown. Every
// tag is kept so partially typed highlights still close.
func Reveal(text string, visible int) string {
	if visible < 0 {
		visible = 0
	}
	var b strings.Builder
	b.Grow(len(text))
	shown := 0
	for _, tok := range revealToken.FindAllString(text, -1) {
		if isTag(tok) {
			b.WriteString(tok)
			continue
		}
		if shown < visible {
			b.WriteString(tok)
			shown++
		}
	}
	return b.String()
}

// RevealProgress reveals floor(total*progress) characters, progress in [0, 1].
func RevealProgress(text string, progress float64) string {
	if progress < 0 {
		progress = 0
	} else if progress > 1 {
		progress = 1
	}
	return Reveal(text, int(float64(CharCount(text))*progress))
}

// Strip removes all tags.
func Strip(text string) string {
	return anyTag.ReplaceAllString(text, "")
}

func isTag(tok string) bool {
	return len(tok) > 1 && tok[0] == '<'
}
