package extract

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"

	"github.com/joseph-ayodele/dist1-extractor/internal/ocr"
)

// Extractor reads the dist1 value out of one microscope image: crop to the
// measurement band, recognize, then run the matcher cascade.
type Extractor struct {
	recognizer ocr.Recognizer
	matchers   []Matcher
	preprocess func(path string) (image.Image, error)
	logger     *slog.Logger
}

var _ ValueExtractor = (*Extractor)(nil)

// NewExtractor builds an Extractor using the default cascade.
func NewExtractor(recognizer ocr.Recognizer, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		recognizer: recognizer,
		matchers:   DefaultMatchers(),
		preprocess: preprocessFile,
		logger:     logger,
	}
}

// Extract never fails. An unreadable image, an OCR error, a panic inside the
// engine or no matching text all yield a zero Result with TierNone.
func (e *Extractor) Extract(ctx context.Context, path string) (res Result) {
	log := e.logger.With("file", filepath.Base(path))
	res = Result{Tier: TierNone}

	defer func() {
		if r := recover(); r != nil {
			log.Error("extraction panicked", "panic", fmt.Sprint(r))
			res = Result{Tier: TierNone}
		}
	}()

	img, err := e.preprocess(path)
	if err != nil {
		log.Debug("preprocess failed", "error", err)
		return res
	}
	frags, err := e.recognizer.Recognize(ctx, img)
	if err != nil {
		log.Debug("ocr failed", "error", err)
		return res
	}

	res = Cascade(e.matchers, frags)
	if res.Found() {
		log.Debug("dist1 value found", "value", res.Value, "tier", res.Tier, "fragments", len(frags))
	} else {
		log.Info("no dist1 value found", "fragments", len(frags), "texts", ocr.Texts(frags))
	}
	return res
}

func preprocessFile(path string) (image.Image, error) {
	return ocr.Preprocess(path)
}
