// Package source finds event export files and loads their result tables.
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/okian/discleague/internal/domain/model"
)

// ErrBadFileName is reported for export files without a recognizable date.
var ErrBadFileName = errors.New("file name carries no event date")

var (
	// event_07-06-2025.xlsx
	keyPattern = regexp.MustCompile(`event_(\d{2}-\d{2}-\d{4})`)
	// kampen-on-den-gyldne-midrange-1-8-eg4lmf-2025-07-06.xlsx
	isoPattern = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)

	supportedExt = map[string]bool{".xlsx": true, ".xlsm": true, ".csv": true}
)

// ExportFile is an export whose file name resolved to an event date.
type ExportFile struct {
	Date model.Date
	Path string
}

// Rejected is a file in the exports folder that could not be matched.
type Rejected struct {
	Path string
	Err  error
}

// FileName returns the canonical export file name for date and extension.
func FileName(date model.Date, ext string) string {
	return "event_" + date.Key() + ext
}

// DateFromName extracts the event date embedded in an export file name.
func DateFromName(name string) (model.Date, error) {
	base := filepath.Base(name)
	if m := keyPattern.FindStringSubmatch(base); m != nil {
		return model.ParseDate(m[1])
	}
	if m := isoPattern.FindStringSubmatch(base); m != nil {
		return model.ParseDate(m[1])
	}
	return model.Date{}, fmt.Errorf("%w: %s", ErrBadFileName, base)
}

// Discover lists the export files in dir sorted by name. Spreadsheet lock
// files, hidden files and the tool's own leaderboard output are ignored;
// other supported files without a date in their name are rejected. Failing
// to read dir at all is returned as an error.
func Discover(dir string) ([]ExportFile, []Rejected, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("list exports in %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var (
		files    []ExportFile
		rejected []Rejected
	)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || ignored(name) || !supportedExt[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		path := filepath.Join(dir, name)
		date, err := DateFromName(name)
		if err != nil {
			rejected = append(rejected, Rejected{Path: path, Err: err})
			continue
		}
		files = append(files, ExportFile{Date: date, Path: path})
	}
	return files, rejected, nil
}

func ignored(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") || strings.HasPrefix(lower, "leaderboard")
}
