package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RakanEX/finance-db-pyscript/internal/id"
	"github.com/RakanEX/finance-db-pyscript/internal/model"
)

// processedDir is the archive subdirectory of the import directory.
const processedDir = "processed"

// FileInfo describes an export waiting in the import directory.
type FileInfo struct {
	Name    string        // path relative to the import directory
	Path    string        // absolute or root-relative path
	Size    int64
	Variant model.Variant // from the subdirectory name, empty for top-level files
}

// Job returns the work item for f, falling back to def when the file does
// not sit in a variant subdirectory.
func (f FileInfo) Job(def model.Variant) Job {
	v := f.Variant
	if v == "" {
		v = def
	}
	return Job{Path: f.Path, Variant: v}
}

// IsExport reports whether name has an extension the report reader accepts.
func IsExport(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx", ".xlsm":
		return true
	}
	return false
}

// Scan returns the exports in <root>/<dir>/ and in its variant
// subdirectories (<dir>/income-monthly/ and so on), top-level files first.
// The processed archive and unknown subdirectories are ignored.
func Scan(root, dir string) ([]FileInfo, error) {
	base := filepath.Join(root, dir)
	files, subdirs, err := scanDir(base, "", "")
	if err != nil {
		return nil, err
	}

	for _, sub := range subdirs {
		if sub == processedDir {
			continue
		}
		v, err := model.ParseVariant(sub)
		if err != nil {
			continue
		}
		more, _, err := scanDir(filepath.Join(base, sub), sub, v)
		if err != nil {
			return nil, err
		}
		files = append(files, more...)
	}
	return files, nil
}

func scanDir(dir, rel string, v model.Variant) ([]FileInfo, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("reading import dir: %w", err)
	}

	var (
		files   []FileInfo
		subdirs []string
	)
	for _, e := range entries {
		if e.IsDir() {
			subdirs = append(subdirs, e.Name())
			continue
		}
		if strings.HasPrefix(e.Name(), ".") || !IsExport(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name:    filepath.Join(rel, e.Name()),
			Path:    filepath.Join(dir, e.Name()),
			Size:    info.Size(),
			Variant: v,
		})
	}
	return files, subdirs, nil
}

// MarkProcessed moves <root>/<dir>/<name> into <root>/<dir>/processed/,
// keeping its relative path. An existing archive of the same name is kept
// and the new file gets the run suffix. It returns the archive path.
func MarkProcessed(root, dir, name, runID string) (string, error) {
	src := filepath.Join(root, dir, name)
	dst := filepath.Join(root, dir, processedDir, name)

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("creating processed dir: %w", err)
	}

	if _, err := os.Stat(dst); err == nil {
		dst = filepath.Join(filepath.Dir(dst), id.Suffixed(filepath.Base(name), runID))
	}
	if err := os.Rename(src, dst); err != nil {
		return "", fmt.Errorf("moving %s to processed: %w", name, err)
	}
	return dst, nil
}
