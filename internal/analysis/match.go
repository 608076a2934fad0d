package analysis

import (
	"image"
	"math"
)

// floatGrid is a row-major float64 raster used by the correlation-based
// detectors.
type floatGrid struct {
	w, h int
	pix  []float64
}

func newFloatGrid(w, h int) *floatGrid {
	return &floatGrid{w: w, h: h, pix: make([]float64, w*h)}
}

func gridFromGray(gray *image.Gray) *floatGrid {
	w := gray.Bounds().Dx()
	h := gray.Bounds().Dy()
	g := newFloatGrid(w, h)
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		for x := 0; x < w; x++ {
			g.pix[y*w+x] = float64(row[x])
		}
	}
	return g
}

func (g *floatGrid) at(y, x int) float64 { return g.pix[y*g.w+x] }

// sub copies the h×w region with origin (y, x) into a new grid.
// The region must lie fully inside g.
func (g *floatGrid) sub(y, x, h, w int) *floatGrid {
	out := newFloatGrid(w, h)
	for r := 0; r < h; r++ {
		copy(out.pix[r*w:(r+1)*w], g.pix[(y+r)*g.w+x:(y+r)*g.w+x+w])
	}
	return out
}

// normalize rescales the grid in place to zero mean and unit variance.
// eps guards against division by zero on constant inputs.
func (g *floatGrid) normalize(eps float64) {
	n := float64(len(g.pix))
	if n == 0 {
		return
	}
	var sum float64
	for _, v := range g.pix {
		sum += v
	}
	mean := sum / n
	var sq float64
	for _, v := range g.pix {
		d := v - mean
		sq += d * d
	}
	std := math.Sqrt(sq / n)
	for i := range g.pix {
		g.pix[i] = (g.pix[i] - mean) / (std + eps)
	}
}

func (g *floatGrid) max() float64 {
	if len(g.pix) == 0 {
		return 0
	}
	best := g.pix[0]
	for _, v := range g.pix[1:] {
		if v > best {
			best = v
		}
	}
	return best
}

// matchTemplate slides tpl over img and computes the normalized correlation
// coefficient at every position, equivalent to OpenCV's TM_CCOEFF_NORMED.
// Both the template and each image window are compared mean-free, so the
// response is invariant to local brightness and contrast. The returned grid
// has dimensions (img.h-tpl.h+1) × (img.w-tpl.w+1); it is empty when the
// template does not fit.
func matchTemplate(img, tpl *floatGrid) *floatGrid {
	respH := img.h - tpl.h + 1
	respW := img.w - tpl.w + 1
	if respH <= 0 || respW <= 0 {
		return newFloatGrid(0, 0)
	}

	n := float64(tpl.h * tpl.w)
	var tplSum float64
	for _, v := range tpl.pix {
		tplSum += v
	}
	tplMean := tplSum / n
	tzm := make([]float64, len(tpl.pix))
	var tplSq float64
	for i, v := range tpl.pix {
		d := v - tplMean
		tzm[i] = d
		tplSq += d * d
	}

	// Integral images give each window's sum and sum of squares in O(1),
	// leaving only the cross term to the inner loop.
	sum, sumSq := integralImages(img)

	resp := newFloatGrid(respW, respH)
	const denomEps = 1e-12
	for y := 0; y < respH; y++ {
		for x := 0; x < respW; x++ {
			var cross float64
			for ty := 0; ty < tpl.h; ty++ {
				irow := img.pix[(y+ty)*img.w+x : (y+ty)*img.w+x+tpl.w]
				trow := tzm[ty*tpl.w : (ty+1)*tpl.w]
				for tx, tv := range trow {
					cross += irow[tx] * tv
				}
			}
			wSum := windowSum(sum, img.w, y, x, tpl.h, tpl.w)
			wSumSq := windowSum(sumSq, img.w, y, x, tpl.h, tpl.w)
			wVarN := wSumSq - wSum*wSum/n
			if wVarN < 0 {
				wVarN = 0
			}
			denom := math.Sqrt(wVarN * tplSq)
			if denom < denomEps {
				resp.pix[y*respW+x] = 0
				continue
			}
			// Template is zero-mean, so the window mean cancels out of
			// the cross term.
			resp.pix[y*respW+x] = cross / denom
		}
	}
	return resp
}

// integralImages returns (w+1)×(h+1) summed-area tables of values and
// squared values, with a zero first row and column.
func integralImages(g *floatGrid) ([]float64, []float64) {
	w1 := g.w + 1
	sum := make([]float64, w1*(g.h+1))
	sumSq := make([]float64, w1*(g.h+1))
	for y := 0; y < g.h; y++ {
		var rowSum, rowSq float64
		for x := 0; x < g.w; x++ {
			v := g.pix[y*g.w+x]
			rowSum += v
			rowSq += v * v
			sum[(y+1)*w1+x+1] = sum[y*w1+x+1] + rowSum
			sumSq[(y+1)*w1+x+1] = sumSq[y*w1+x+1] + rowSq
		}
	}
	return sum, sumSq
}

func windowSum(table []float64, imgW, y, x, h, w int) float64 {
	w1 := imgW + 1
	return table[(y+h)*w1+x+w] - table[y*w1+x+w] - table[(y+h)*w1+x] + table[y*w1+x]
}
