package ocr

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Vertical band kept by Preprocess, as fractions of the image height.
const (
	BandTop    = 0.2
	BandBottom = 0.8
)

// Preprocess opens the image at path and crops it to the middle band where the
// measurement overlay is printed: rows [0.2·H, 0.8·H), full width.
func Preprocess(path string) (*image.NRGBA, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	return CropBand(img), nil
}

// CropBand crops img to the measurement band.
func CropBand(img image.Image) *image.NRGBA {
	b := img.Bounds()
	h := b.Dy()
	top := int(float64(h) * BandTop)
	bottom := int(float64(h) * BandBottom)
	return imaging.Crop(img, image.Rect(b.Min.X, b.Min.Y+top, b.Max.X, b.Min.Y+bottom))
}
