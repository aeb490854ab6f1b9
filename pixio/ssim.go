package pixio

import "math"

const (
	ssimC1 = (0.01 * 255) * (0.01 * 255)
	ssimC2 = (0.03 * 255) * (0.03 * 255)
)

// gaussianKernel1D returns a normalized 1-D Gaussian kernel of the given
// size and standard deviation.
func gaussianKernel1D(sigma float64, size int) []float64 {
	k := make([]float64, size)
	center := float64(size / 2)
	var sum float64
	for i := range k {
		d := float64(i) - center
		k[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

func convolveRowsValid(img [][]float64, k []float64) [][]float64 {
	h := len(img)
	if h == 0 {
		return nil
	}
	w := len(img[0])
	ksize := len(k)
	outW := w - ksize + 1
	if outW <= 0 {
		return nil
	}
	out := make([][]float64, h)
	for y := 0; y < h; y++ {
		row := make([]float64, outW)
		for x := 0; x < outW; x++ {
			var sum float64
			for i := 0; i < ksize; i++ {
				sum += img[y][x+i] * k[i]
			}
			row[x] = sum
		}
		out[y] = row
	}
	return out
}

func convolveColsValid(img [][]float64, k []float64) [][]float64 {
	h := len(img)
	if h == 0 {
		return nil
	}
	w := len(img[0])
	ksize := len(k)
	outH := h - ksize + 1
	if outH <= 0 {
		return nil
	}
	out := make([][]float64, outH)
	for y := 0; y < outH; y++ {
		row := make([]float64, w)
		for x := 0; x < w; x++ {
			var sum float64
			for i := 0; i < ksize; i++ {
				sum += img[y+i][x] * k[i]
			}
			row[x] = sum
		}
		out[y] = row
	}
	return out
}

func gaussianBlurValid(img [][]float64, k []float64) [][]float64 {
	return convolveColsValid(convolveRowsValid(img, k), k)
}

func elementwiseMul(a, b [][]float64) [][]float64 {
	out := make([][]float64, len(a))
	for y := range a {
		row := make([]float64, len(a[y]))
		for x := range a[y] {
			row[x] = a[y][x] * b[y][x]
		}
		out[y] = row
	}
	return out
}

// SSIM computes the structural similarity index between two equal-sized
// planes using an 11x11 Gaussian window (sigma=1.5), returning the mean of
// the local SSIM map clamped to [0, 1] (spec.md section 4.1). Images
// smaller than the window fall back to a single global window.
func SSIM(a, b [][]float64) float64 {
	const winSize = 11
	if len(a) < winSize || len(a[0]) < winSize {
		return globalSSIM(a, b)
	}

	k := gaussianKernel1D(1.5, winSize)
	muA := gaussianBlurValid(a, k)
	muB := gaussianBlurValid(b, k)
	eAA := gaussianBlurValid(elementwiseMul(a, a), k)
	eBB := gaussianBlurValid(elementwiseMul(b, b), k)
	eAB := gaussianBlurValid(elementwiseMul(a, b), k)

	var sum float64
	var n int
	for y := range muA {
		for x := range muA[y] {
			mx, my := muA[y][x], muB[y][x]
			varX := eAA[y][x] - mx*mx
			varY := eBB[y][x] - my*my
			covXY := eAB[y][x] - mx*my
			num := (2*mx*my + ssimC1) * (2*covXY + ssimC2)
			den := (mx*mx + my*my + ssimC1) * (varX + varY + ssimC2)
			if den != 0 {
				sum += num / den
			} else {
				sum += 1
			}
			n++
		}
	}
	if n == 0 {
		return 1.0
	}
	return clamp01(sum / float64(n))
}

// globalSSIM treats the whole plane as a single window, for images smaller
// than the Gaussian window.
func globalSSIM(a, b [][]float64) float64 {
	var sumA, sumB float64
	var n int
	for y := range a {
		for x := range a[y] {
			sumA += a[y][x]
			sumB += b[y][x]
			n++
		}
	}
	if n == 0 {
		return 1.0
	}
	muA, muB := sumA/float64(n), sumB/float64(n)

	var varA, varB, cov float64
	for y := range a {
		for x := range a[y] {
			da := a[y][x] - muA
			db := b[y][x] - muB
			varA += da * da
			varB += db * db
			cov += da * db
		}
	}
	varA /= float64(n)
	varB /= float64(n)
	cov /= float64(n)

	num := (2*muA*muB + ssimC1) * (2*cov + ssimC2)
	den := (muA*muA + muB*muB + ssimC1) * (varA + varB + ssimC2)
	if den == 0 {
		return 1.0
	}
	return clamp01(num / den)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
