package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/dist1-extractor/constants"
)

// AllowedExt checks if a file extension is the image extension the folder layout uses.
func AllowedExt(ext string) bool {
	return constants.NormalizeExt(ext) == constants.ImageExt
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}
