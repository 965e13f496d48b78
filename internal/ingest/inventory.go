package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/dist1-extractor/constants"
)

// Inventory summarizes what a run folder holds before a run starts.
type Inventory struct {
	Folder        string
	HasCupDir     bool
	HasPlungerDir bool
	HasWorkbook   bool
	CupImages     int
	PlungerImages int
	Ignored       int // visible files the naming convention does not pick up
}

// Ready reports whether every prerequisite of a run is present.
func (inv Inventory) Ready() bool {
	return inv.HasCupDir && inv.HasPlungerDir && inv.HasWorkbook
}

// TakeInventory counts the images the pipeline will read. Only the top level of
// cup/ and plunger/ is scanned, as the pipeline does.
func TakeInventory(folder string) (Inventory, error) {
	inv := Inventory{Folder: folder}
	fi, err := os.Stat(folder)
	if err != nil {
		return inv, err
	}
	if !fi.IsDir() {
		return inv, errors.New(folder + " is not a directory")
	}
	if wb, err := os.Stat(filepath.Join(folder, constants.WorkbookName)); err == nil && !wb.IsDir() {
		inv.HasWorkbook = true
	}

	cupNames := map[string]bool{}
	for i := 1; i <= constants.CupCount; i++ {
		cupNames[constants.CupFileName(i)] = true
	}

	scan := func(dir string, match func(name string) bool) (found bool, n int, err error) {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			return false, 0, nil
		}
		if err != nil {
			return false, 0, err
		}
		for _, e := range entries {
			if e.IsDir() || IsHidden(e.Name()) {
				continue
			}
			if match(e.Name()) {
				n++
			} else {
				inv.Ignored++
			}
		}
		return true, n, nil
	}

	if inv.HasCupDir, inv.CupImages, err = scan(filepath.Join(folder, constants.CupDir), func(name string) bool {
		return cupNames[name]
	}); err != nil {
		return inv, err
	}
	if inv.HasPlungerDir, inv.PlungerImages, err = scan(filepath.Join(folder, constants.PlungerDir), isPlungerImage); err != nil {
		return inv, err
	}
	return inv, nil
}

func isPlungerImage(name string) bool {
	for g := 1; g <= constants.GroupCount; g++ {
		if ok, _ := filepath.Match(constants.PlungerGlob(g), name); ok {
			return true
		}
	}
	return false
}

// MissingPrerequisites lists the absent prerequisite names in pipeline order.
func (inv Inventory) MissingPrerequisites() []string {
	var out []string
	if !inv.HasCupDir {
		out = append(out, constants.CupDir)
	}
	if !inv.HasPlungerDir {
		out = append(out, constants.PlungerDir)
	}
	if !inv.HasWorkbook {
		out = append(out, constants.WorkbookName)
	}
	return out
}

// String renders a one-line summary for logs.
func (inv Inventory) String() string {
	var b strings.Builder
	b.WriteString(filepath.Base(inv.Folder))
	b.WriteString(": ")
	b.WriteString(fmt.Sprintf("%d cup, %d plunger images", inv.CupImages, inv.PlungerImages))
	if m := inv.MissingPrerequisites(); len(m) > 0 {
		b.WriteString("; missing " + strings.Join(m, ", "))
	}
	return b.String()
}
