package animation

import "golang.org/x/exp/constraints"

// Interpolate maps x through the piecewise linear curve defined by the
// input and output points. Values before the first input point hold the
// first output, values past the last input point hold the last output.
// Input points must be non-decreasing; zero-width segments are skipped.
func Interpolate(x float64, in, out []float64) float64 {
	n := len(in)
	if n == 0 || len(out) != n {
		return 0
	}
	if n == 1 || x <= in[0] {
		return out[0]
	}
	if x >= in[n-1] {
		return out[n-1]
	}

	for i := 0; i < n-1; i++ {
		if x > in[i+1] {
			continue
		}
		span := in[i+1] - in[i]
		if span <= 0 {
			continue
		}
		t := (x - in[i]) / span
		return Lerp(out[i], out[i+1], t)
	}
	return out[n-1]
}

// Ramp is the two-point form of Interpolate over [from, to].
func Ramp(frame, from, to int, start, end float64) float64 {
	return Interpolate(float64(frame), []float64{float64(from), float64(to)}, []float64{start, end})
}

// Lerp performs linear interpolation between a and b.
func Lerp[T constraints.Float](a, b, t T) T {
	return a + (b-a)*t
}

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
