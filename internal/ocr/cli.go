package ocr

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

// CLIConfig configures the tesseract binary engine.
type CLIConfig struct {
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	Lang        string // default "eng"
	TessdataDir string
	PSM         int // e.g., 6 is good for uniform block of text; 0 leaves tesseract's default
}

// CLIRecognizer runs the tesseract binary in TSV mode and groups recognized
// words into line fragments.
type CLIRecognizer struct {
	cfg    CLIConfig
	runner Runner
	logger *slog.Logger
}

func NewCLIRecognizer(cfg CLIConfig, logger *slog.Logger) *CLIRecognizer {
	return NewCLIRecognizerWithRunner(cfg, execRunner{}, logger)
}

// NewCLIRecognizerWithRunner builds a recognizer on a custom Runner.
func NewCLIRecognizerWithRunner(cfg CLIConfig, r Runner, logger *slog.Logger) *CLIRecognizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	return &CLIRecognizer{cfg: cfg, runner: r, logger: logger}
}

func (c *CLIRecognizer) Recognize(ctx context.Context, img image.Image) ([]Fragment, error) {
	tmpDir, err := os.MkdirTemp("", "dist1-ocr-*")
	if err != nil {
		return nil, err
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			c.logger.Warn("failed to remove temp dir", "dir", path, "error", err)
		}
	}(tmpDir)

	in := filepath.Join(tmpDir, "band.png")
	if err := imaging.Save(img, in); err != nil {
		return nil, fmt.Errorf("write temp image: %w", err)
	}

	// tesseract <file> stdout -l <lang> [--psm N] [--tessdata-dir D] tsv
	args := []string{in, "stdout", "-l", c.cfg.Lang}
	if c.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(c.cfg.PSM))
	}
	if c.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", c.cfg.TessdataDir)
	}
	args = append(args, "tsv")

	out, errb, err := c.runner.Run(ctx, c.cfg.Tesseract, c.logger, args...)
	if err != nil {
		return nil, fmt.Errorf("tesseract TSV: %w: %s", err, truncate(string(errb), 512))
	}
	return ParseTSV(string(out)), nil
}

type lineKey struct{ page, block, par, line int }

type lineAcc struct {
	words   []string
	box     image.Rectangle
	confSum float64
	confN   int
}

// ParseTSV groups the word rows of tesseract TSV output into one fragment per
// text line, in first-seen order.
func ParseTSV(tsv string) []Fragment {
	var order []lineKey
	lines := map[lineKey]*lineAcc{}

	for i, ln := range strings.Split(tsv, "\n") {
		ln = strings.TrimRight(ln, "\r")
		if i == 0 || ln == "" {
			continue
		} // skip header
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		// level 5 = word
		if cols[0] != "5" {
			continue
		}
		text := strings.TrimSpace(strings.Join(cols[11:], "\t"))
		if text == "" {
			continue
		}
		ints := make([]int, 10)
		ok := true
		for j := 1; j <= 9; j++ {
			v, err := strconv.Atoi(cols[j])
			if err != nil {
				ok = false
				break
			}
			ints[j] = v
		}
		if !ok {
			continue
		}
		key := lineKey{page: ints[1], block: ints[2], par: ints[3], line: ints[4]}
		box := image.Rect(ints[6], ints[7], ints[6]+ints[8], ints[7]+ints[9])

		acc, seen := lines[key]
		if !seen {
			acc = &lineAcc{box: box}
			lines[key] = acc
			order = append(order, key)
		} else {
			acc.box = acc.box.Union(box)
		}
		acc.words = append(acc.words, text)
		if conf, err := strconv.ParseFloat(cols[10], 64); err == nil && conf >= 0 {
			acc.confSum += conf
			acc.confN++
		}
	}

	out := make([]Fragment, 0, len(order))
	for _, k := range order {
		acc := lines[k]
		var conf float64
		if acc.confN > 0 {
			conf = acc.confSum / float64(acc.confN) / 100.0
		}
		out = append(out, Fragment{
			Text:       strings.Join(acc.words, " "),
			Box:        acc.box,
			Confidence: conf,
		})
	}
	return out
}
