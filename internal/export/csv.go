package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joseph-ayodele/dist1-extractor/constants"
	"github.com/joseph-ayodele/dist1-extractor/internal/entity"
	"github.com/joseph-ayodele/dist1-extractor/internal/measure"
)

const (
	noteNoValue = "no value found"
	markMax     = "x"
)

var csvHeader = []string{"file name", "value", "highest_value", "note"}

// WriteCSV writes <folder>/ocr_result.csv and returns its path.
func (w *Writer) WriteCSV(folder string, cups, plungers []entity.Measurement) (string, error) {
	data, err := RenderCSV(cups, plungers)
	if err != nil {
		return "", err
	}
	path := filepath.Join(folder, constants.CSVName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", constants.CSVName, err)
	}
	w.logger.Info("csv written", "path", path, "cups", len(cups), "plungers", len(plungers))
	return path, nil
}

// RenderCSV builds the CSV report. The output depends only on the records.
func RenderCSV(cups, plungers []entity.Measurement) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.UseCRLF = true

	rows := [][]string{csvHeader}
	for _, m := range cups {
		rows = append(rows, []string{m.FileName, formatValue(m.Value), "", note(m.Value)})
	}
	rows = append(rows, []string{"", "", "", ""})

	for _, g := range groups(plungers) {
		max, _ := measure.GroupMax(plungers, g)
		for _, m := range measure.ByGroup(plungers, g) {
			mark := ""
			if max > 0 && m.Value == max {
				mark = markMax
			}
			rows = append(rows, []string{m.FileName, formatValue(m.Value), mark, note(m.Value)})
		}
	}

	if err := cw.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return buf.Bytes(), nil
}

func formatValue(v float64) string {
	return fmt.Sprintf("%.4fum", v)
}

func note(v float64) string {
	if v == 0 {
		return noteNoValue
	}
	return ""
}

// groups returns the distinct group numbers present, ascending.
func groups(recs []entity.Measurement) []int {
	seen := map[int]bool{}
	var out []int
	for _, r := range recs {
		if !seen[r.Group] {
			seen[r.Group] = true
			out = append(out, r.Group)
		}
	}
	sort.Ints(out)
	return out
}
