package extract

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/joseph-ayodele/dist1-extractor/internal/ocr"
)

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "1-cup.png")
	if err := imaging.Save(imaging.New(w, h, image.White), path); err != nil {
		t.Fatalf("save png: %v", err)
	}
	return path
}

func TestExtractorUsesCroppedBand(t *testing.T) {
	path := writePNG(t, 200, 100)
	var gotBounds image.Rectangle
	rec := ocr.RecognizerFunc(func(_ context.Context, img image.Image) ([]ocr.Fragment, error) {
		gotBounds = img.Bounds()
		return frags("Dist1:", "56.7um"), nil
	})

	res := NewExtractor(rec, nil).Extract(context.Background(), path)
	if res.Value != 56.7 || res.Tier != TierAdjacent {
		t.Fatalf("expected 56.7 adjacent, got %+v", res)
	}
	if gotBounds.Dx() != 200 || gotBounds.Dy() != 60 {
		t.Fatalf("recognizer should see the 200x60 band, got %v", gotBounds)
	}
}

func TestExtractorFailuresYieldZero(t *testing.T) {
	okPath := writePNG(t, 10, 10)
	calledOnMissing := false
	cases := []struct {
		name string
		path string
		rec  ocr.RecognizerFunc
	}{
		{
			name: "missing file",
			path: filepath.Join(t.TempDir(), "absent.png"),
			rec: func(context.Context, image.Image) ([]ocr.Fragment, error) {
				calledOnMissing = true
				return frags("Dist1: 5um"), nil
			},
		},
		{
			name: "ocr error",
			path: okPath,
			rec: func(context.Context, image.Image) ([]ocr.Fragment, error) {
				return frags("Dist1: 5um"), errors.New("engine crashed")
			},
		},
		{
			name: "ocr panic",
			path: okPath,
			rec: func(context.Context, image.Image) ([]ocr.Fragment, error) {
				panic("segfault in engine")
			},
		},
		{
			name: "no text",
			path: okPath,
			rec: func(context.Context, image.Image) ([]ocr.Fragment, error) {
				return nil, nil
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := NewExtractor(tc.rec, nil).Extract(context.Background(), tc.path)
			if res.Value != 0 || res.Tier != TierNone || res.Found() {
				t.Fatalf("expected zero result, got %+v", res)
			}
		})
	}
	if calledOnMissing {
		t.Fatalf("recognizer must not run for unreadable images")
	}
}
