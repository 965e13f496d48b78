package ocr

import (
	"context"
	"image"
)

// Fragment is one piece of recognized text with its bounding geometry.
type Fragment struct {
	Text       string
	Box        image.Rectangle
	Confidence float64 // 0..1, 0 when the engine does not report it
}

// Recognizer turns a bitmap into text fragments in reading order.
// Any OCR engine satisfying this contract is substitutable.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) ([]Fragment, error)
}

// RecognizerFunc adapts a function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, img image.Image) ([]Fragment, error)

func (f RecognizerFunc) Recognize(ctx context.Context, img image.Image) ([]Fragment, error) {
	return f(ctx, img)
}

// Texts returns the fragment texts in order.
func Texts(frags []Fragment) []string {
	out := make([]string, len(frags))
	for i, f := range frags {
		out[i] = f.Text
	}
	return out
}
