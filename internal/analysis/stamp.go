package analysis

import "image"

const (
	// stampSize is the fixed edge length the reference stamp is scaled to
	// before matching.
	stampSize = 48
	// cornerSize is the edge length of the corner regions searched for the
	// stamp.
	cornerSize = 96
	// stampThreshold is the minimum correlation accepted as a stamp hit.
	// Tunable; chosen empirically against watermarked demo sets.
	stampThreshold = 0.85
)

// HasVisibleStamp reports whether the reference stamp appears in the
// top-left or top-right corner of the image. A missing or unreadable stamp
// asset, or an image smaller than the corner regions, yields false rather
// than an error.
func HasVisibleStamp(gray *image.Gray, stampPath string) bool {
	stamp := LoadGray(stampPath)
	if stamp == nil {
		return false
	}
	tpl := gridFromGray(resizeGray(stamp, stampSize, stampSize))

	w := gray.Bounds().Dx()
	h := gray.Bounds().Dy()
	if w < cornerSize || h < cornerSize {
		return false
	}

	topLeft := gridFromGray(cropGray(gray, image.Rect(0, 0, cornerSize, cornerSize)))
	topRight := gridFromGray(cropGray(gray, image.Rect(w-cornerSize, 0, w, cornerSize)))

	best := matchTemplate(topLeft, tpl).max()
	if tr := matchTemplate(topRight, tpl).max(); tr > best {
		best = tr
	}
	return best > stampThreshold
}
