package util

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nvr-ai/go-detect/images"
	"github.com/pkg/errors"
)

// ImageFile is an image found in an input directory.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Name is the base name of the image file.
	Name string
	// Frame is the frame number parsed from a "frame-N" name, or -1.
	Frame int
}

// ListImageFiles returns the image files directly inside dir.
//
// Files named "frame-N.ext" are ordered by frame number ahead of all other files, which are
// ordered by name.
//
// Arguments:
//   - dir: Directory path containing image files.
//
// Returns:
//   - []ImageFile: The image files found, in processing order.
//   - error: Error if the directory cannot be read.
func ListImageFiles(dir string) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read image directory %s", dir)
	}

	var files []ImageFile
	for _, entry := range entries {
		if entry.IsDir() || !images.IsImageFile(entry.Name()) {
			continue
		}
		files = append(files, ImageFile{
			Path:  filepath.Join(dir, entry.Name()),
			Name:  entry.Name(),
			Frame: frameNumber(entry.Name()),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		switch {
		case a.Frame >= 0 && b.Frame >= 0:
			return a.Frame < b.Frame
		case a.Frame >= 0:
			return true
		case b.Frame >= 0:
			return false
		}
		return a.Name < b.Name
	})

	return files, nil
}

func frameNumber(name string) int {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if !strings.HasPrefix(stem, "frame-") {
		return -1
	}
	n, err := strconv.Atoi(strings.TrimPrefix(stem, "frame-"))
	if err != nil || n < 0 {
		return -1
	}
	return n
}
