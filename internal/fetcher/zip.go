package fetcher

import (
	"archive/zip"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// maxExtractBytes caps an extracted input file.
const maxExtractBytes = 256 << 20

// ExtractInput extracts the one input file from a ZIP archive into destDir
// and returns its path. Directories, hidden files and macOS resource forks
// are ignored; accept, when non-nil, further filters entries by name.
func ExtractInput(zipPath, destDir string, accept func(name string) bool) (string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", eris.Wrap(err, "zip: open archive")
	}
	defer r.Close() //nolint:errcheck

	var files []*zip.File
	for _, f := range r.File {
		if f.FileInfo().IsDir() || ignoredEntry(f.Name) {
			continue
		}
		if accept != nil && !accept(f.Name) {
			continue
		}
		files = append(files, f)
	}

	switch len(files) {
	case 0:
		return "", eris.New("zip: no input file in archive")
	case 1:
		return extractZIPEntry(files[0], destDir)
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return "", eris.Errorf("zip: expected one input file, got %d (%s)", len(files), strings.Join(names, ", "))
}

func ignoredEntry(name string) bool {
	if strings.HasPrefix(name, "__MACOSX/") {
		return true
	}
	return strings.HasPrefix(path.Base(name), ".")
}

// extractZIPEntry writes f under destDir and returns the written path.
func extractZIPEntry(f *zip.File, destDir string) (string, error) {
	destPath := filepath.Join(destDir, f.Name)
	if !strings.HasPrefix(filepath.Clean(destPath), filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", eris.Errorf("zip: illegal path %q", f.Name)
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o750); err != nil {
		return "", eris.Wrap(err, "zip: create parent directory")
	}

	rc, err := f.Open()
	if err != nil {
		return "", eris.Wrap(err, "zip: open entry")
	}
	defer rc.Close() //nolint:errcheck

	if _, err := writeFile(destPath, io.LimitReader(rc, maxExtractBytes)); err != nil {
		return "", eris.Wrap(err, "zip: extract entry")
	}
	return destPath, nil
}
