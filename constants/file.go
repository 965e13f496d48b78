package constants

import (
	"fmt"
	"strings"
)

// Input folder layout. All names are relative to the folder a run is started on.
const (
	CupDir       = "cup"
	PlungerDir   = "plunger"
	WorkbookName = "c2025.xlsx"
	CSVName      = "ocr_result.csv"
)

// SheetName is the data sheet of the c2025 workbook template.
const SheetName = "ﾃﾞｰﾀ"

// CupCount and GroupCount are fixed by the workbook template.
const (
	CupCount   = 7
	GroupCount = 7
)

// Workbook coordinates: row = FirstRow + RowStride*index.
const (
	CupColumn     = "W"
	PlungerColumn = "X"
	FirstRow      = 23
	RowStride     = 4
)

// ImageExt is the only image extension the naming convention uses.
const ImageExt = "png"

// CupFileName returns the expected file name for cup index i (1-based).
func CupFileName(i int) string {
	return fmt.Sprintf("%d-cup.%s", i, ImageExt)
}

// PlungerGlob returns the glob pattern matching every replicate image of a plunger group.
func PlungerGlob(group int) string {
	return fmt.Sprintf("%d-plunger-*.%s", group, ImageExt)
}

// WorkbookRow returns the template row for index idx (0-based).
func WorkbookRow(idx int) int {
	return FirstRow + RowStride*idx
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
