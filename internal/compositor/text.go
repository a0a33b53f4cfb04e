package compositor

import (
	"image"
	"image/color"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/scenevideo/internal/animation"
	"github.com/ivlev/scenevideo/internal/markup"
	"github.com/ivlev/scenevideo/internal/renderer"
)

var lineBreak = regexp.MustCompile(`(?i)<br\s*/?>`)

// runStyle is the resolved look of one span.
type runStyle struct {
	face       font.Face
	color      color.NRGBA
	background color.NRGBA
	padX, padY float64
	radius     float64
	decoration string
	decoColor  color.NRGBA
	decoWidth  float64
	shadow     color.NRGBA
}

type run struct {
	text  string
	style *runStyle
}

// piece is a word placed on a line: [padL][text][padR][trailing space].
type piece struct {
	text       string
	style      *runStyle
	x          float64
	textWidth  float64
	padL, padR float64
	trail      float64
}

func (pc piece) width() float64 {
	return pc.padL + pc.textWidth + pc.padR + pc.trail
}

type line struct {
	pieces []piece
	width  float64
}

func (p *Painter) runs(spans []renderer.HighlightSpan) []run {
	base := runStyle{face: p.face(Medium, scriptTextSize), color: p.page.text}
	out := make([]run, 0, len(spans))
	for _, sp := range spans {
		text := markup.Strip(lineBreak.ReplaceAllString(sp.Text, "\n"))
		if text == "" {
			continue
		}
		st := base
		if sp.Highlight {
			st = p.spanStyle(sp.Style.Decl, base)
		}
		out = append(out, run{text: text, style: &st})
	}
	return out
}

// spanStyle maps the CSS declarations of a highlight onto base.
func (p *Painter) spanStyle(decl map[string]string, base runStyle) runStyle {
	st := base
	weight := Medium
	if w := decl["fontWeight"]; w == "bold" || w == "700" || w == "800" || w == "900" {
		weight = Bold
	}
	if decl["fontStyle"] == "italic" {
		weight = Italic
	}
	st.face = p.face(weight, scriptTextSize)

	st.color = colorOr(decl["color"], base.color)
	st.background = colorOr(decl["backgroundColor"], color.NRGBA{})
	if st.background.A > 0 {
		st.padY, st.padX = padding(decl["padding"], scriptTextSize)
		st.radius = length(decl["borderRadius"], scriptTextSize)
	}

	if deco := decl["textDecoration"]; strings.Contains(deco, "underline") || strings.Contains(deco, "line-through") {
		st.decoration = "underline"
		if strings.Contains(deco, "line-through") {
			st.decoration = "line-through"
		}
		st.decoColor = colorOr(decl["textDecorationColor"], st.color)
		st.decoWidth = max(length(decl["textDecorationThickness"], scriptTextSize), 2)
	}

	for _, tok := range strings.Fields(strings.ReplaceAll(decl["textShadow"], ",", " ")) {
		if c, ok := ParseColor(tok); ok {
			st.shadow = c
			break
		}
	}
	return st
}

// layoutLines breaks runs into lines no wider than maxWidth. Highlight
// padding is added at the ends of each run, as for inline boxes.
func layoutLines(runs []run, maxWidth float64) []line {
	var lines []line
	var cur line
	x := 0.0

	flush := func() {
		if n := len(cur.pieces); n > 0 {
			last := cur.pieces[n-1]
			cur.width = last.x + last.width() - last.trail
		}
		lines = append(lines, cur)
		cur = line{}
		x = 0
	}
	place := func(pc piece) {
		pc.x = x
		x += pc.width()
		cur.pieces = append(cur.pieces, pc)
	}

	for _, r := range runs {
		face := r.style.face
		first := true
		segments := strings.Split(r.text, "\n")
		for si, seg := range segments {
			if si > 0 {
				flush()
			}
			words := strings.SplitAfter(seg, " ")
			for wi, word := range words {
				trimmed := strings.TrimRight(word, " ")
				if trimmed == "" {
					if x > 0 && len(cur.pieces) > 0 {
						cur.pieces[len(cur.pieces)-1].trail += measureF(face, word)
						x += measureF(face, word)
					}
					continue
				}
				pc := piece{
					text:      trimmed,
					style:     r.style,
					textWidth: measureF(face, trimmed),
					trail:     measureF(face, word[len(trimmed):]),
				}
				if first {
					pc.padL = r.style.padX
					first = false
				}
				if si == len(segments)-1 && wi == lastWord(words) {
					pc.padR = r.style.padX
				}

				if x > 0 && x+pc.padL+pc.textWidth+pc.padR > maxWidth {
					flush()
				}
				if pc.padL+pc.textWidth+pc.padR <= maxWidth {
					place(pc)
					continue
				}
				parts := breakWord(face, trimmed, maxWidth-pc.padL-pc.padR)
				for i, part := range parts {
					sub := pc
					sub.text = part
					sub.textWidth = measureF(face, part)
					if i > 0 {
						sub.padL = 0
						flush()
					}
					if i < len(parts)-1 {
						sub.padR, sub.trail = 0, 0
					}
					place(sub)
				}
			}
		}
	}
	if len(cur.pieces) > 0 {
		flush()
	}
	return lines
}

func lastWord(words []string) int {
	for i := len(words) - 1; i >= 0; i-- {
		if strings.TrimRight(words[i], " ") != "" {
			return i
		}
	}
	return -1
}

// breakWord splits a word wider than maxWidth into parts that fit.
func breakWord(face font.Face, word string, maxWidth float64) []string {
	var parts []string
	start := 0
	for i := 0; i < len(word); {
		_, size := utf8.DecodeRuneInString(word[i:])
		if i > start && measureF(face, word[start:i+size]) > maxWidth {
			parts = append(parts, word[start:i])
			start = i
		}
		i += size
	}
	return append(parts, word[start:])
}

func (p *Painter) drawText(dst *image.RGBA, tf renderer.TextFrame) {
	opacity := tf.Style.OpacityOr(1)
	if tf.ChunkIndex < 0 || len(tf.Spans) == 0 || opacity <= 0 {
		return
	}
	runs := p.runs(tf.Spans)
	if len(runs) == 0 {
		return
	}

	inner := image.Rect(textRect.Min.X+textPadX, textRect.Min.Y+textPadY, textRect.Max.X-textPadX, textRect.Max.Y-textPadY)
	lines := layoutLines(runs, float64(inner.Dx()))

	lh := scriptTextSize * lineHeight
	total := lh * float64(len(lines))
	top := float64(inner.Min.Y)
	switch p.page.layout {
	case "text-top":
	case "text-bottom":
		top = float64(inner.Max.Y) - total
	default:
		top += (float64(inner.Dy()) - total) / 2
	}

	dx := tf.Style.Translate(animation.OpTranslateX, "px")
	dy := tf.Style.Translate(animation.OpTranslateY, "px")
	m := p.face(Medium, scriptTextSize).Metrics()
	asc, desc := toFloat(m.Ascent), toFloat(m.Descent)

	clip := dst.SubImage(textRect).(*image.RGBA)
	for i, ln := range lines {
		lineTop := top + lh*float64(i) + dy
		baseline := lineTop + (lh-(asc+desc))/2 + asc

		extra := float64(inner.Dx()) - ln.width
		offset, gap := float64(inner.Min.X), 0.0
		switch p.page.align {
		case "left":
		case "right":
			offset += extra
		case "justify":
			if gaps := len(ln.pieces) - 1; i < len(lines)-1 && gaps > 0 {
				gap = extra / float64(gaps)
			}
		default:
			offset += extra / 2
		}
		for j := range ln.pieces {
			ln.pieces[j].x += offset + dx + gap*float64(j)
		}

		drawBackgrounds(clip, ln.pieces, baseline, asc, desc, opacity)
		for _, pc := range ln.pieces {
			st := pc.style
			x := pc.x + pc.padL
			if st.shadow.A > 0 {
				sc := withOpacity(st.shadow, opacity)
				for _, o := range [][2]float64{{-2, -2}, {2, -2}, {-2, 2}, {2, 2}} {
					drawString(clip, st.face, sc, pc.text, toFixed(x+o[0]), toFixed(baseline+o[1]))
				}
			}
			drawString(clip, st.face, withOpacity(st.color, opacity), pc.text, toFixed(x), toFixed(baseline))

			if st.decoration != "" {
				y := baseline + 4
				if st.decoration == "line-through" {
					y = baseline - asc*0.3
				}
				w := pc.textWidth
				if pc.padR == 0 {
					w += pc.trail
				}
				r := image.Rect(int(x), int(y), int(x+w+0.5), int(y+st.decoWidth+0.5))
				fill(clip, r, withOpacity(st.decoColor, opacity), 0)
			}
		}
	}
}

// drawBackgrounds paints one box per run of consecutive pieces that share
// a highlighted style.
func drawBackgrounds(dst draw.Image, pieces []piece, baseline, asc, desc, opacity float64) {
	for i := 0; i < len(pieces); {
		st := pieces[i].style
		j := i
		for j+1 < len(pieces) && pieces[j+1].style == st {
			j++
		}
		if st.background.A > 0 {
			last := pieces[j]
			x0 := pieces[i].x
			x1 := last.x + last.width() - last.trail
			r := image.Rect(int(x0), int(baseline-asc-st.padY), int(x1+0.5), int(baseline+desc+st.padY+0.5))
			fill(dst, r, withOpacity(st.background, opacity), st.radius)
		}
		i = j + 1
	}
}

func drawString(dst draw.Image, face font.Face, c color.NRGBA, text string, x, y fixed.Int26_6) {
	if c.A == 0 || text == "" {
		return
	}
	d := font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: face, Dot: fixed.Point26_6{X: x, Y: y}}
	d.DrawString(text)
}

// ellipsize shortens s with a trailing ellipsis to fit maxWidth pixels.
func ellipsize(face font.Face, s string, maxWidth int) string {
	if measure(face, s) <= maxWidth {
		return s
	}
	runes := []rune(s)
	for n := len(runes) - 1; n > 0; n-- {
		if t := string(runes[:n]) + "…"; measure(face, t) <= maxWidth {
			return t
		}
	}
	return "…"
}

func centerBaseline(face font.Face, top, bottom int) fixed.Int26_6 {
	m := face.Metrics()
	return fixed.I(top) + (fixed.I(bottom-top)-(m.Ascent+m.Descent))/2 + m.Ascent
}

func measure(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

func measureF(face font.Face, s string) float64 {
	return toFloat(font.MeasureString(face, s))
}

func fixedX(v int) fixed.Int26_6 { return fixed.I(v) }

func fixedY(v int) fixed.Int26_6 { return fixed.I(v) }

func toFixed(v float64) fixed.Int26_6 { return fixed.Int26_6(v * 64) }

func toFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }
