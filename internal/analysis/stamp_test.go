package analysis

import (
	"image"
	"path/filepath"
	"testing"
)

// stampPattern is a varied 48×48 texture; constant stamps would have zero
// variance and never correlate.
func stampPattern() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, stampSize, stampSize))
	for y := 0; y < stampSize; y++ {
		for x := 0; x < stampSize; x++ {
			v := uint8((x*5 + y*11) % 256)
			if (x/6+y/6)%2 == 0 {
				v = 255 - v
			}
			img.Pix[y*img.Stride+x] = v
		}
	}
	return img
}

func blitGray(dst *image.Gray, src *image.Gray, offX, offY int) {
	for y := 0; y < src.Bounds().Dy(); y++ {
		copy(
			dst.Pix[(offY+y)*dst.Stride+offX:(offY+y)*dst.Stride+offX+src.Bounds().Dx()],
			src.Pix[y*src.Stride:y*src.Stride+src.Bounds().Dx()],
		)
	}
}

func TestHasVisibleStampTopLeft(t *testing.T) {
	dir := t.TempDir()
	stamp := stampPattern()
	stampPath := writePNG(t, dir, "stamp.png", stamp)

	img := noiseGray(240, 200, 17)
	blitGray(img, stamp, 8, 8)

	if !HasVisibleStamp(img, stampPath) {
		t.Fatal("expected stamp in top-left corner to be detected")
	}
}

func TestHasVisibleStampTopRight(t *testing.T) {
	dir := t.TempDir()
	stamp := stampPattern()
	stampPath := writePNG(t, dir, "stamp.png", stamp)

	img := noiseGray(240, 200, 17)
	blitGray(img, stamp, 240-stampSize-8, 8)

	if !HasVisibleStamp(img, stampPath) {
		t.Fatal("expected stamp in top-right corner to be detected")
	}
}

func TestHasVisibleStampIgnoresCenterPlacement(t *testing.T) {
	dir := t.TempDir()
	stamp := stampPattern()
	stampPath := writePNG(t, dir, "stamp.png", stamp)

	// Outside both 96×96 corner regions.
	img := noiseGray(300, 300, 17)
	blitGray(img, stamp, 120, 120)

	if HasVisibleStamp(img, stampPath) {
		t.Fatal("stamp placed mid-frame must not count as a corner stamp")
	}
}

func TestHasVisibleStampAbsent(t *testing.T) {
	dir := t.TempDir()
	stampPath := writePNG(t, dir, "stamp.png", stampPattern())

	if HasVisibleStamp(noiseGray(240, 200, 99), stampPath) {
		t.Fatal("noise image without the stamp should not match")
	}
}

func TestHasVisibleStampMissingAsset(t *testing.T) {
	if HasVisibleStamp(noiseGray(240, 200, 17), filepath.Join(t.TempDir(), "missing.png")) {
		t.Fatal("missing stamp asset must yield false, not an error")
	}
}

func TestHasVisibleStampSmallImage(t *testing.T) {
	dir := t.TempDir()
	stampPath := writePNG(t, dir, "stamp.png", stampPattern())

	if HasVisibleStamp(noiseGray(80, 80, 17), stampPath) {
		t.Fatal("images smaller than the corner regions must yield false")
	}
}
