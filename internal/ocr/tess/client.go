// Package tess is the in-process Tesseract engine, backed by gosseract.
// It lives apart from package ocr so that only binaries choosing this engine link cgo.
package tess

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/joseph-ayodele/dist1-extractor/internal/ocr"
)

type Config struct {
	Lang        string // default "eng"
	TessdataDir string
	PSM         int // 0 leaves tesseract's default
}

// Client wraps a single gosseract client. gosseract clients are not safe for
// concurrent use, so calls are serialized.
type Client struct {
	mu     sync.Mutex
	client *gosseract.Client
	logger *slog.Logger
}

var _ ocr.Recognizer = (*Client)(nil)

func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	c := gosseract.NewClient()
	if cfg.TessdataDir != "" {
		if err := c.SetTessdataPrefix(cfg.TessdataDir); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := c.SetLanguage(cfg.Lang); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("set language: %w", err)
	}
	if cfg.PSM > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(cfg.PSM)); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("set psm: %w", err)
		}
	}
	logger.Debug("tesseract client ready", "lang", cfg.Lang, "psm", cfg.PSM, "version", c.Version())
	return &Client{client: c, logger: logger}, nil
}

// Recognize returns one fragment per recognized text line.
func (c *Client) Recognize(_ context.Context, img image.Image) ([]ocr.Fragment, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	boxes, err := c.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("get boxes: %w", err)
	}

	out := make([]ocr.Fragment, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		out = append(out, ocr.Fragment{
			Text:       text,
			Box:        b.Box,
			Confidence: b.Confidence / 100.0,
		})
	}
	return out, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client.Close()
}
