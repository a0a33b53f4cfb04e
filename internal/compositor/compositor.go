// Package compositor rasterizes evaluated frame states onto the phone
// template.
package compositor

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/ivlev/scenevideo/internal/config"
	"github.com/ivlev/scenevideo/internal/props"
	"github.com/ivlev/scenevideo/internal/renderer"
	"github.com/ivlev/scenevideo/internal/system"
)

// Weight selects one of the loaded typefaces.
type Weight int

const (
	Regular Weight = iota
	Medium
	Bold
	Italic
)

// Compositor holds the parsed fonts shared by all painters. It is safe for
// concurrent use; painters are not.
type Compositor struct {
	Width, Height int
	// Scaler resizes the canvas when the output is not 1080x1920.
	Scaler draw.Interpolator

	fonts map[Weight]*opentype.Font
}

// New loads the Go fonts, or the font at fontPath for every weight. The
// Go fonts carry no Hangul glyphs, so Korean scripts need fontPath.
func New(width, height int, fontPath string) (*Compositor, error) {
	if width <= 0 || height <= 0 {
		width, height = config.CanvasWidth, config.CanvasHeight
	}
	c := &Compositor{Width: width, Height: height, Scaler: draw.ApproxBiLinear, fonts: make(map[Weight]*opentype.Font)}

	if fontPath != "" {
		f, err := LoadFont(fontPath)
		if err != nil {
			return nil, err
		}
		for _, w := range []Weight{Regular, Medium, Bold, Italic} {
			c.fonts[w] = f
		}
		return c, nil
	}

	builtin := map[Weight][]byte{
		Regular: goregular.TTF,
		Medium:  gomedium.TTF,
		Bold:    gobold.TTF,
		Italic:  goitalic.TTF,
	}
	for w, data := range builtin {
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse builtin font: %w", err)
		}
		c.fonts[w] = f
	}
	return c, nil
}

// LoadFont parses a TrueType/OpenType file or the first face of a
// collection.
func LoadFont(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	if f, err := opentype.Parse(data); err == nil {
		return f, nil
	}
	coll, err := opentype.ParseCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return coll.Font(0)
}

type faceKey struct {
	weight Weight
	size   float64
}

// page is the frame-independent look of one video.
type page struct {
	pageColor, background color.NRGBA
	header, headerText    color.NRGBA
	text, title, meta     color.NRGBA
	layout, align         string
	titleText             string
	postMeta              props.PostMeta
	showMeta              bool
}

// Painter draws the frames of one video. Each goroutine needs its own.
type Painter struct {
	c      *Compositor
	page   page
	faces  map[faceKey]font.Face
	canvas *image.RGBA
	layer  *image.RGBA
}

// NewPainter resolves the theme of p once.
func (c *Compositor) NewPainter(p *props.VideoProps) *Painter {
	theme := props.ResolveTheme(p.TemplateStyle)
	pg := page{
		pageColor:  colorOr(theme.PageColor, color.NRGBA{A: 0xff}),
		background: colorOr(theme.BackgroundColor, white),
		header:     colorOr(theme.HeaderColor, color.NRGBA{R: 0xa5, G: 0xd8, B: 0xf3, A: 0xff}),
		headerText: colorOr(theme.HeaderTextColor, color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}),
		text:       colorOr(theme.TextColor, color.NRGBA{R: 0x1a, G: 0x1a, B: 0x1a, A: 0xff}),
		title:      colorOr(theme.TitleColor, color.NRGBA{R: 0x1a, G: 0x1a, B: 0x1a, A: 0xff}),
		meta:       colorOr(theme.MetaColor, color.NRGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}),
		layout:     theme.Layout,
		align:      theme.TextAlign,
		titleText:  p.Title,
		postMeta:   p.Meta(),
		showMeta:   p.PostMeta != nil,
	}
	return &Painter{c: c, page: pg, faces: make(map[faceKey]font.Face)}
}

func (p *Painter) face(w Weight, size float64) font.Face {
	key := faceKey{w, size}
	if f, ok := p.faces[key]; ok {
		return f
	}
	var f font.Face = basicfont.Face7x13
	if src := p.c.fonts[w]; src != nil {
		if face, err := opentype.NewFace(src, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull}); err == nil {
			f = face
		}
	}
	p.faces[key] = f
	return f
}

// Paint draws fs with the scene image img (nil for none) into dst, which
// must have the compositor's output size.
func (p *Painter) Paint(dst *image.RGBA, fs renderer.FrameState, img image.Image) {
	canvasRect := image.Rect(0, 0, config.CanvasWidth, config.CanvasHeight)
	canvas := dst
	if dst.Bounds() != canvasRect {
		if p.canvas == nil {
			p.canvas = system.GetImage(canvasRect)
		}
		canvas = p.canvas
	}

	draw.Draw(canvas, canvasRect, image.NewUniform(p.page.background), image.Point{}, draw.Src)
	p.drawHeader(canvas)
	p.drawPostHeader(canvas)
	p.drawText(canvas, fs.Text)
	p.drawImage(canvas, fs.SceneFrame, img)

	if canvas != dst {
		p.scale(dst, canvas)
	}
}

// scale fits the canvas into dst, letterboxing with the page color.
func (p *Painter) scale(dst, canvas *image.RGBA) {
	b := dst.Bounds()
	draw.Draw(dst, b, image.NewUniform(p.page.pageColor), image.Point{}, draw.Src)

	cw, ch := canvas.Bounds().Dx(), canvas.Bounds().Dy()
	k := min(float64(b.Dx())/float64(cw), float64(b.Dy())/float64(ch))
	w, h := int(float64(cw)*k+0.5), int(float64(ch)*k+0.5)
	x, y := b.Min.X+(b.Dx()-w)/2, b.Min.Y+(b.Dy()-h)/2
	p.c.Scaler.Scale(dst, image.Rect(x, y, x+w, y+h), canvas, canvas.Bounds(), draw.Src, nil)
}

// Close releases the painter's buffers and faces.
func (p *Painter) Close() {
	for k, f := range p.faces {
		f.Close()
		delete(p.faces, k)
	}
	system.PutImage(p.canvas)
	system.PutImage(p.layer)
	p.canvas, p.layer = nil, nil
}

func (p *Painter) drawHeader(dst *image.RGBA) {
	fill(dst, image.Rect(0, 0, config.CanvasWidth, headerHeight), p.page.header, 0)

	back := p.face(Bold, headerBackSize)
	drawString(dst, back, p.page.headerText, "<", fixedX(headerPadX), centerBaseline(back, 0, headerHeight))

	title := p.face(Bold, headerTitleSize)
	w := measure(title, headerTitle)
	drawString(dst, title, p.page.headerText, headerTitle, fixedX((config.CanvasWidth-w)/2), centerBaseline(title, 0, headerHeight))

	px := config.CanvasWidth - headerPadX - profileSize
	py := (headerHeight - profileSize) / 2
	fill(dst, image.Rect(px, py, px+profileSize, py+profileSize), profileColor, profileSize/2)
	initial := p.face(Bold, profileTextSize)
	iw := measure(initial, "P")
	drawString(dst, initial, white, "P", fixedX(px+(profileSize-iw)/2), centerBaseline(initial, py, py+profileSize))
}

func (p *Painter) drawPostHeader(dst *image.RGBA) {
	left, right := contentPadX, config.CanvasWidth-contentPadX
	y := contentTop + 40

	if p.page.titleText != "" {
		title := p.face(Bold, postTitleSize)
		text := ellipsize(title, p.page.titleText, right-left)
		drawString(dst, title, p.page.title, text, fixedX(left), fixedY(y)+title.Metrics().Ascent)
		y += postTitleSize*13/10 + 20
	}

	if p.page.showMeta {
		meta := p.face(Regular, metaTextSize)
		base := fixedY(y) + meta.Metrics().Ascent
		byline := p.page.postMeta.Author + "  |  " + p.page.postMeta.Time
		drawString(dst, meta, p.page.meta, byline, fixedX(left), base)
		views := viewsLabel + " " + p.page.postMeta.ViewCount
		drawString(dst, meta, p.page.meta, views, fixedX(right-measure(meta, views)), base)
	}

	by := contentTop + postHeaderH - borderWidth
	fill(dst, image.Rect(left, by, right, by+borderWidth), borderColor, 0)
}
