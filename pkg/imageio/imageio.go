// Package imageio reads and writes the image containers used to hand data
// across the process boundary. The container is selected purely by filename
// suffix; anything else is rejected before a byte is read.
package imageio

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"

	"github.com/astrokit/crpipe/pkg/cerr"
)

// SupportedExtensions lists the container suffixes the loader accepts.
var SupportedExtensions = []string{".png", ".tif", ".tiff"}

// Supported reports whether path's suffix names a known container.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Load decodes the image at path. A missing file is an output-missing
// error (the tool reported success but left nothing behind); an unknown
// suffix or an undecodable file is a format error.
func Load(path string) (image.Image, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !Supported(path) {
		return nil, cerr.Newf(cerr.CodeFormat, "unrecognized image extension %q in %s", ext, path)
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cerr.Newf(cerr.CodeOutputMissing, "expected output file %s does not exist", path)
		}
		return nil, cerr.New(cerr.CodeOutputMissing, err)
	}
	defer f.Close()

	var img image.Image
	switch ext {
	case ".png":
		img, err = png.Decode(f)
	case ".tif", ".tiff":
		img, err = tiff.Decode(f)
	}
	if err != nil {
		return nil, cerr.Newf(cerr.CodeFormat, "decoding %s: %v", path, err)
	}
	return img, nil
}

// Save encodes img to path, choosing the encoder from the suffix. TIFF
// output is deflate-compressed, which the correction tools read fine and
// keeps multi-megapixel frames reasonable on disk.
func Save(img image.Image, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !Supported(path) {
		return cerr.Newf(cerr.CodeFormat, "unrecognized image extension %q in %s", ext, path)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	switch ext {
	case ".png":
		err = png.Encode(f, img)
	case ".tif", ".tiff":
		err = tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}
