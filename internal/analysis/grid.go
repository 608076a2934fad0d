package analysis

import (
	"image"
	"os"

	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// LoadGray decodes the image at path into an 8-bit grayscale grid.
// It returns nil on any failure; an unreadable file is a normal,
// reportable outcome rather than an error.
func LoadGray(path string) *image.Gray {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil
	}
	return toGray(img)
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)
	return gray
}

// shrinkToFit downscales gray so its longer side is at most maxSide.
// Images already within bounds are returned unchanged; this never enlarges.
func shrinkToFit(gray *image.Gray, maxSide int) *image.Gray {
	w := gray.Bounds().Dx()
	h := gray.Bounds().Dy()
	longer := w
	if h > longer {
		longer = h
	}
	if longer <= maxSide {
		return gray
	}
	scale := float64(maxSide) / float64(longer)
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	return resizeGray(gray, dw, dh)
}

func resizeGray(gray *image.Gray, w, h int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), gray, gray.Bounds(), draw.Src, nil)
	return dst
}

// cropGray extracts the given region as an independent grid.
func cropGray(gray *image.Gray, r image.Rectangle) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), gray, r.Min, draw.Src)
	return dst
}
