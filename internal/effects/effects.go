// Package effects applies the image filters of a scene to raster frames.
package effects

import (
	"image"
	"math"
	"strconv"
	"strings"
)

// Effect modifies an RGBA image in place.
type Effect interface {
	Apply(img *image.RGBA)
}

// Grayscale desaturates by Amount in [0, 1] using Rec. 709 luma.
type Grayscale struct {
	Amount float64
}

func (e Grayscale) Apply(img *image.RGBA) {
	a := clamp01(e.Amount)
	if a == 0 {
		return
	}
	eachPixel(img, func(p []uint8) {
		r, g, b := float64(p[0]), float64(p[1]), float64(p[2])
		y := 0.2126*r + 0.7152*g + 0.0722*b
		p[0] = mix(r, y, a, p[3])
		p[1] = mix(g, y, a, p[3])
		p[2] = mix(b, y, a, p[3])
	})
}

// Sepia tones by Amount in [0, 1].
type Sepia struct {
	Amount float64
}

func (e Sepia) Apply(img *image.RGBA) {
	a := clamp01(e.Amount)
	if a == 0 {
		return
	}
	eachPixel(img, func(p []uint8) {
		r, g, b := float64(p[0]), float64(p[1]), float64(p[2])
		sr := 0.393*r + 0.769*g + 0.189*b
		sg := 0.349*r + 0.686*g + 0.168*b
		sb := 0.272*r + 0.534*g + 0.131*b
		p[0] = mix(r, sr, a, p[3])
		p[1] = mix(g, sg, a, p[3])
		p[2] = mix(b, sb, a, p[3])
	})
}

// BoxBlur averages every pixel over a (2*Radius+1) square, in two
// separable passes. Edges repeat the border pixel.
type BoxBlur struct {
	Radius int
}

func (e BoxBlur) Apply(img *image.RGBA) {
	r := e.Radius
	b := img.Bounds()
	if r <= 0 || b.Empty() {
		return
	}
	w, h := b.Dx(), b.Dy()
	n := max(w, h)
	line := make([]uint8, n*4)

	for y := 0; y < h; y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		blurLine(img.Pix[off:off+w*4], 4, w, r, line)
	}
	for x := 0; x < w; x++ {
		off := img.PixOffset(b.Min.X+x, b.Min.Y)
		blurLine(img.Pix[off:], img.Stride, h, r, line)
	}
}

// blurLine blurs n pixels spaced stride bytes apart using a running sum.
func blurLine(pix []uint8, stride, n, r int, tmp []uint8) {
	at := func(i int) []uint8 {
		i = min(max(i, 0), n-1)
		return pix[i*stride : i*stride+4]
	}

	var sum [4]int
	for i := -r; i <= r; i++ {
		p := at(i)
		for c := 0; c < 4; c++ {
			sum[c] += int(p[c])
		}
	}
	size := 2*r + 1
	for i := 0; i < n; i++ {
		for c := 0; c < 4; c++ {
			tmp[i*4+c] = uint8((sum[c] + size/2) / size)
		}
		out, in := at(i-r), at(i+r+1)
		for c := 0; c < 4; c++ {
			sum[c] += int(in[c]) - int(out[c])
		}
	}
	for i := 0; i < n; i++ {
		copy(pix[i*stride:i*stride+4], tmp[i*4:i*4+4])
	}
}

// Opacity scales every channel of the premultiplied image by Alpha.
type Opacity struct {
	Alpha float64
}

func (e Opacity) Apply(img *image.RGBA) {
	a := clamp01(e.Alpha)
	if a == 1 {
		return
	}
	eachPixel(img, func(p []uint8) {
		for c := 0; c < 4; c++ {
			p[c] = uint8(math.Round(float64(p[c]) * a))
		}
	})
}

// Chain applies effects in order.
type Chain []Effect

func (c Chain) Apply(img *image.RGBA) {
	for _, e := range c {
		e.Apply(img)
	}
}

// Parse turns a CSS filter value such as "grayscale(100%)" or
// "sepia(60%) blur(5px)" into an effect. Unknown functions are skipped,
// so "none" or an empty value yields an empty chain.
func Parse(filter string) Chain {
	var chain Chain
	for _, fn := range strings.Fields(filter) {
		name, arg, ok := strings.Cut(fn, "(")
		if !ok {
			continue
		}
		arg = strings.TrimSuffix(arg, ")")
		switch name {
		case "grayscale":
			chain = append(chain, Grayscale{Amount: amount(arg)})
		case "sepia":
			chain = append(chain, Sepia{Amount: amount(arg)})
		case "blur":
			if px, err := strconv.ParseFloat(strings.TrimSuffix(arg, "px"), 64); err == nil && px > 0 {
				chain = append(chain, BoxBlur{Radius: int(math.Round(px))})
			}
		case "opacity":
			chain = append(chain, Opacity{Alpha: amount(arg)})
		}
	}
	return chain
}

// Apply runs the CSS filter value on img.
func Apply(img *image.RGBA, filter string) {
	Parse(filter).Apply(img)
}

// amount reads "100%", "0.6" or an empty argument (full strength).
func amount(arg string) float64 {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return 1
	}
	if pct, ok := strings.CutSuffix(arg, "%"); ok {
		v, err := strconv.ParseFloat(pct, 64)
		if err != nil {
			return 1
		}
		return clamp01(v / 100)
	}
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 1
	}
	return clamp01(v)
}

func eachPixel(img *image.RGBA, fn func(p []uint8)) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		row := img.Pix[off : off+b.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			fn(row[i : i+4 : i+4])
		}
	}
}

// mix blends a premultiplied channel toward target, never above alpha.
func mix(from, target, amount float64, alpha uint8) uint8 {
	v := from + (target-from)*amount
	return uint8(math.Round(math.Min(math.Max(v, 0), float64(alpha))))
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}
