package compositor

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/ivlev/scenevideo/internal/animation"
	"github.com/ivlev/scenevideo/internal/effects"
	"github.com/ivlev/scenevideo/internal/renderer"
	"github.com/ivlev/scenevideo/internal/system"
)

// drawImage renders the scene image into the image area: cover fit, the
// image effect transform, the filter, then the scene transition.
func (p *Painter) drawImage(dst *image.RGBA, sf renderer.SceneFrame, img image.Image) {
	if p.layer == nil {
		p.layer = system.GetImage(image.Rect(0, 0, imageSize, imageSize))
	}
	layer := p.layer
	draw.Draw(layer, layer.Bounds(), image.NewUniform(placeholderColor), image.Point{}, draw.Src)

	if img != nil && !img.Bounds().Empty() {
		draw.ApproxBiLinear.Transform(layer, coverTransform(img.Bounds(), sf.Image), img, img.Bounds(), draw.Over, nil)
	}
	effects.Apply(layer, sf.Image.Filter)

	tr := sf.Transition
	alpha := clamp01(sf.Image.OpacityOr(1) * tr.OpacityOr(1))
	shift := tr.Translate(animation.OpTranslateX, "%")/100*imageSize + tr.Translate(animation.OpTranslateX, "px")
	box := imageRect.Add(image.Pt(int(math.Round(shift)), 0))
	if in := tr.ClipPath; in != nil {
		box = inset(box, *in)
	}

	// the source point follows the shifted box so the layer moves with it
	sp := box.Min.Sub(imageRect.Min.Add(image.Pt(int(math.Round(shift)), 0)))
	composite(dst, imageRect, box, layer, sp, imageRadius, uint8(alpha*255+0.5))
}

// coverTransform maps the source bounds onto the square image area like
// object-fit: cover, then applies the style's scale and translation about
// the area center.
func coverTransform(src image.Rectangle, st animation.Style) f64.Aff3 {
	w, h := float64(src.Dx()), float64(src.Dy())
	k := math.Max(imageSize/w, imageSize/h) * st.Scale()
	tx := st.Translate(animation.OpTranslateX, "px")
	ty := st.Translate(animation.OpTranslateY, "px")
	cx := float64(src.Min.X) + w/2
	cy := float64(src.Min.Y) + h/2
	return f64.Aff3{
		k, 0, imageSize/2 + tx - k*cx,
		0, k, imageSize/2 + ty - k*cy,
	}
}

// inset shrinks r by percentages of its size, like clip-path: inset().
func inset(r image.Rectangle, in animation.Inset) image.Rectangle {
	w, h := float64(r.Dx()), float64(r.Dy())
	out := image.Rect(
		r.Min.X+int(math.Round(w*in.Left/100)),
		r.Min.Y+int(math.Round(h*in.Top/100)),
		r.Max.X-int(math.Round(w*in.Right/100)),
		r.Max.Y-int(math.Round(h*in.Bottom/100)),
	)
	if out.Empty() {
		return image.Rectangle{}
	}
	return out
}
