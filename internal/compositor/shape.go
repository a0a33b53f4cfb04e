package compositor

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// roundRect is an alpha mask covering r with rounded corners.
type roundRect struct {
	r      image.Rectangle
	radius float64
	alpha  uint8
}

func (m roundRect) ColorModel() color.Model { return color.AlphaModel }

func (m roundRect) Bounds() image.Rectangle { return m.r }

func (m roundRect) At(x, y int) color.Color {
	if !image.Pt(x, y).In(m.r) {
		return color.Alpha{}
	}
	rad := math.Min(m.radius, float64(min(m.r.Dx(), m.r.Dy()))/2)
	if rad <= 0 {
		return color.Alpha{A: m.alpha}
	}
	px, py := float64(x)+0.5, float64(y)+0.5
	cx := math.Min(math.Max(px, float64(m.r.Min.X)+rad), float64(m.r.Max.X)-rad)
	cy := math.Min(math.Max(py, float64(m.r.Min.Y)+rad), float64(m.r.Max.Y)-rad)
	d := math.Hypot(px-cx, py-cy)
	cov := clamp01(rad - d + 0.5)
	return color.Alpha{A: uint8(float64(m.alpha)*cov + 0.5)}
}

// fill paints r with c, optionally rounded.
func fill(dst draw.Image, r image.Rectangle, c color.NRGBA, radius float64) {
	if r.Empty() || c.A == 0 {
		return
	}
	src := image.NewUniform(c)
	if radius <= 0 {
		draw.Draw(dst, r, src, image.Point{}, draw.Over)
		return
	}
	draw.DrawMask(dst, r, src, image.Point{}, roundRect{r: r, radius: radius, alpha: 0xff}, r.Min, draw.Over)
}

// composite draws the part r of a rounded area from src at sp with a
// uniform alpha. Only the corner bands go through the per-pixel mask.
func composite(dst draw.Image, area, r image.Rectangle, src image.Image, sp image.Point, radius int, alpha uint8) {
	clipped := r.Intersect(area)
	if clipped.Empty() || alpha == 0 {
		return
	}
	sp = sp.Add(clipped.Min.Sub(r.Min))
	r = clipped
	bands := []image.Rectangle{
		image.Rect(area.Min.X, area.Min.Y, area.Max.X, area.Min.Y+radius),
		image.Rect(area.Min.X, area.Min.Y+radius, area.Max.X, area.Max.Y-radius),
		image.Rect(area.Min.X, area.Max.Y-radius, area.Max.X, area.Max.Y),
	}
	rounded := roundRect{r: area, radius: float64(radius), alpha: alpha}
	uniform := image.NewUniform(color.Alpha{A: alpha})

	for i, band := range bands {
		band = band.Intersect(r)
		if band.Empty() {
			continue
		}
		bsp := sp.Add(band.Min.Sub(r.Min))
		if i == 1 || radius <= 0 {
			draw.DrawMask(dst, band, src, bsp, uniform, image.Point{}, draw.Over)
			continue
		}
		draw.DrawMask(dst, band, src, bsp, rounded, band.Min, draw.Over)
	}
}
