package carrier

import (
	"fmt"
	"os"
	"strings"
)

// WriteScratchFile writes the decoded label image to a new temporary file
// named after the image format and returns its path. The caller owns the
// file and removes it when done.
func (l PackageLabel) WriteScratchFile() (string, error) {
	ext := strings.ToLower(l.ImageFormat)
	if ext == "" {
		ext = "bin"
	}
	f, err := os.CreateTemp("", fmt.Sprintf("label-%s-*.%s", l.TrackingNumber, ext))
	if err != nil {
		return "", fmt.Errorf("create label scratch file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(l.Image); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write label scratch file: %w", err)
	}
	return f.Name(), nil
}
