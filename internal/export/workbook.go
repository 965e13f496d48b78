package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/dist1-extractor/constants"
	"github.com/joseph-ayodele/dist1-extractor/internal/common"
	"github.com/joseph-ayodele/dist1-extractor/internal/entity"
	"github.com/joseph-ayodele/dist1-extractor/internal/measure"
)

// Writer produces the two report artifacts of a run.
type Writer struct {
	logger *slog.Logger
}

func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger}
}

// WriteWorkbook updates the c2025 template at path in place. For each index the
// cup value goes to W, and X gets the plunger group maximum or 0.00 when the
// group is empty. Every failure comes back as a SPREADSHEET_ERROR.
func (w *Writer) WriteWorkbook(path string, cups, plungers []entity.Measurement) (err error) {
	start := time.Now()
	if len(cups) < constants.CupCount {
		return common.SpreadsheetError(fmt.Sprintf("expected %d cup records, got %d", constants.CupCount, len(cups)), nil)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return common.SpreadsheetError("cannot open workbook "+path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = common.SpreadsheetError("cannot close workbook "+path, cerr)
		}
	}()

	sheet := constants.SheetName
	if idx, ierr := f.GetSheetIndex(sheet); ierr != nil || idx == -1 {
		return common.SpreadsheetError(fmt.Sprintf("sheet %q not found in %s", sheet, path), ierr)
	}

	set := func(col string, row int, v float64) error {
		cell, err := excelize.JoinCellName(col, row)
		if err != nil {
			return common.SpreadsheetError(fmt.Sprintf("bad cell %s%d", col, row), err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return common.SpreadsheetError("cannot set cell "+cell, err)
		}
		return nil
	}

	for idx := 0; idx < constants.CupCount; idx++ {
		row := constants.WorkbookRow(idx)
		if err := set(constants.CupColumn, row, cups[idx].Value); err != nil {
			return err
		}
		if err := set(constants.PlungerColumn, row, 0.00); err != nil {
			return err
		}
	}
	for idx := 0; idx < constants.GroupCount; idx++ {
		max, ok := measure.GroupMax(plungers, idx+1)
		if !ok {
			continue
		}
		if err := set(constants.PlungerColumn, constants.WorkbookRow(idx), max); err != nil {
			return err
		}
	}

	if err := f.Save(); err != nil {
		return common.SpreadsheetError("cannot save workbook "+path, err)
	}

	w.logger.Info("workbook written",
		"path", path,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
