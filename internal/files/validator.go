package files

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// MaxImageSize caps profile photos at 5 MB, matching the backend limit.
const MaxImageSize = 5 * 1024 * 1024

// ImageInfo holds information about a validated profile image
type ImageInfo struct {
	// Path is the absolute path to the image
	Path string

	// Name is the filename (without directory)
	Name string

	// Size is the file size in bytes
	Size int64

	// Type is the MIME type (e.g., "image/jpeg")
	Type string
}

// ValidateImage checks that a path points at a readable image suitable
// for a profile photo upload.
func ValidateImage(path string) (*ImageInfo, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get absolute path: %w", path, err)
	}

	stat, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: file does not exist", path)
		}
		return nil, fmt.Errorf("%s: failed to stat file: %w", path, err)
	}

	if stat.IsDir() {
		return nil, fmt.Errorf("%s: is a directory", path)
	}
	if stat.Size() == 0 {
		return nil, fmt.Errorf("%s: file is empty", path)
	}
	if stat.Size() > MaxImageSize {
		return nil, fmt.Errorf("%s: exceeds the %d MB limit", path, MaxImageSize/(1024*1024))
	}

	mimeType := mime.TypeByExtension(filepath.Ext(absPath))
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("%s: not an image (detected %q)", path, mimeType)
	}

	// Check if file is readable
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("%s: cannot open file (check permissions): %w", path, err)
	}
	file.Close()

	return &ImageInfo{
		Path: absPath,
		Name: filepath.Base(absPath),
		Size: stat.Size(),
		Type: mimeType,
	}, nil
}
