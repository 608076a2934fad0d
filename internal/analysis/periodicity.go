package analysis

import (
	"image"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	// periodicityWindow is the edge length of the spectrum's center region
	// compared against the global mean.
	periodicityWindow = 40
	logEps            = 1e-6
)

// PeriodicityScore measures how much spectral energy sits away from the
// zero-frequency neighborhood. Synthetic or grid-like textures concentrate
// energy in off-center frequency bands, producing a larger gap between the
// global log-magnitude mean and the center-window mean. Natural images score
// low; the score is unbounded.
func PeriodicityScore(gray *image.Gray) float64 {
	w := gray.Bounds().Dx()
	h := gray.Bounds().Dy()
	if w == 0 || h == 0 {
		return 0.0
	}

	spectrum := fft2(gray, w, h)

	// Log magnitude; the sum is shift-invariant so the global mean is
	// computed directly on the unshifted spectrum.
	var global float64
	for _, v := range spectrum {
		global += math.Log(cmplx.Abs(v) + logEps)
	}
	global /= float64(len(spectrum))

	// Center window of the shifted spectrum, mapped back to unshifted
	// indices. Bounds are clamped for degenerate frame sizes.
	cy, cx := h/2, w/2
	half := periodicityWindow / 2
	r0, r1 := maxInt(0, cy-half), minInt(h, cy+half)
	c0, c1 := maxInt(0, cx-half), minInt(w, cx+half)
	if r0 >= r1 || c0 >= c1 {
		return 0.0
	}
	var center float64
	for r := r0; r < r1; r++ {
		srcR := (r + h - h/2) % h
		for c := c0; c < c1; c++ {
			srcC := (c + w - w/2) % w
			center += math.Log(cmplx.Abs(spectrum[srcR*w+srcC]) + logEps)
		}
	}
	center /= float64((r1 - r0) * (c1 - c0))

	return global - center
}

// fft2 computes the 2-D discrete Fourier transform of the intensity grid by
// row-column decomposition.
func fft2(gray *image.Gray, w, h int) []complex128 {
	data := make([]complex128, w*h)
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		for x := 0; x < w; x++ {
			data[y*w+x] = complex(float64(row[x]), 0)
		}
	}

	rowFFT := fourier.NewCmplxFFT(w)
	rowOut := make([]complex128, w)
	for y := 0; y < h; y++ {
		rowFFT.Coefficients(rowOut, data[y*w:(y+1)*w])
		copy(data[y*w:(y+1)*w], rowOut)
	}

	colFFT := fourier.NewCmplxFFT(h)
	colIn := make([]complex128, h)
	colOut := make([]complex128, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			colIn[y] = data[y*w+x]
		}
		colFFT.Coefficients(colOut, colIn)
		for y := 0; y < h; y++ {
			data[y*w+x] = colOut[y]
		}
	}
	return data
}
