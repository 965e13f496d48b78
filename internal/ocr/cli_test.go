package ocr

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"os"
	"testing"

	"github.com/disintegration/imaging"
)

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t640\t288\t-1\t\n" +
	"4\t1\t1\t1\t1\t0\t10\t20\t200\t30\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t10\t20\t80\t30\t96.5\tDist1:\n" +
	"5\t1\t1\t1\t1\t2\t100\t22\t110\t28\t91.5\t12.34um\n" +
	"5\t1\t1\t1\t2\t1\t10\t60\t50\t30\t-1\t \n" +
	"5\t1\t2\t1\t1\t1\t300\t200\t60\t25\t88\tscale\r\n"

func TestParseTSVGroupsWordsIntoLines(t *testing.T) {
	frags := ParseTSV(sampleTSV)
	if len(frags) != 2 {
		t.Fatalf("expected 2 fragments, got %d: %+v", len(frags), frags)
	}
	if frags[0].Text != "Dist1: 12.34um" {
		t.Fatalf("unexpected first line %q", frags[0].Text)
	}
	if want := image.Rect(10, 20, 210, 50); frags[0].Box != want {
		t.Fatalf("expected box %v, got %v", want, frags[0].Box)
	}
	if frags[0].Confidence < 0.939 || frags[0].Confidence > 0.941 {
		t.Fatalf("expected mean confidence 0.94, got %f", frags[0].Confidence)
	}
	if frags[1].Text != "scale" {
		t.Fatalf("unexpected second line %q", frags[1].Text)
	}
}

func TestTexts(t *testing.T) {
	got := Texts(ParseTSV(sampleTSV))
	if len(got) != 2 || got[0] != "Dist1: 12.34um" || got[1] != "scale" {
		t.Fatalf("unexpected texts %q", got)
	}
	if got := Texts(nil); len(got) != 0 {
		t.Fatalf("expected no texts, got %q", got)
	}
}

func TestParseTSVEmpty(t *testing.T) {
	if frags := ParseTSV(""); len(frags) != 0 {
		t.Fatalf("expected no fragments, got %+v", frags)
	}
	if frags := ParseTSV("level\tpage_num\n"); len(frags) != 0 {
		t.Fatalf("expected no fragments from header only, got %+v", frags)
	}
}

type stubRunner struct {
	name   string
	args   []string
	stdout string
	err    error
	sawPNG bool
}

func (s *stubRunner) Run(_ context.Context, name string, _ *slog.Logger, args ...string) ([]byte, []byte, error) {
	s.name = name
	s.args = args
	if len(args) > 0 {
		if _, err := os.Stat(args[0]); err == nil {
			s.sawPNG = true
		}
	}
	return []byte(s.stdout), []byte("boom"), s.err
}

func TestCLIRecognizerArgsAndParse(t *testing.T) {
	r := &stubRunner{stdout: sampleTSV}
	rec := NewCLIRecognizerWithRunner(CLIConfig{Lang: "eng", PSM: 6, TessdataDir: "/td"}, r, nil)

	frags, err := rec.Recognize(context.Background(), imaging.New(40, 20, image.White))
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if r.name != "tesseract" {
		t.Fatalf("expected default binary, got %q", r.name)
	}
	if !r.sawPNG {
		t.Fatalf("temp image was not written before the command ran")
	}
	want := []string{"stdout", "-l", "eng", "--psm", "6", "--tessdata-dir", "/td", "tsv"}
	if len(r.args) != len(want)+1 {
		t.Fatalf("unexpected args %v", r.args)
	}
	for i, w := range want {
		if r.args[i+1] != w {
			t.Fatalf("arg %d: expected %q, got %q (all %v)", i+1, w, r.args[i+1], r.args)
		}
	}
	if len(frags) != 2 || frags[0].Text != "Dist1: 12.34um" {
		t.Fatalf("unexpected fragments %+v", frags)
	}
	if _, err := os.Stat(r.args[0]); !os.IsNotExist(err) {
		t.Fatalf("expected temp image to be removed, stat err=%v", err)
	}
}

func TestCLIRecognizerError(t *testing.T) {
	r := &stubRunner{err: errors.New("exit status 1")}
	rec := NewCLIRecognizerWithRunner(CLIConfig{}, r, nil)
	if _, err := rec.Recognize(context.Background(), imaging.New(10, 10, image.Black)); err == nil {
		t.Fatalf("expected error from failing runner")
	}
	for _, a := range r.args {
		if a == "--psm" || a == "--tessdata-dir" {
			t.Fatalf("unset options must not be passed, got %v", r.args)
		}
	}
}
