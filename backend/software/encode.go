// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package software

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ErrUnknownFormat is returned for an output extension with no encoder.
var ErrUnknownFormat = errors.New("software: unknown image format")

// Supported reports whether format names an encoder known to Encode.
func Supported(format string) bool {
	switch strings.ToLower(format) {
	case "png", "bmp", "tif", "tiff":
		return true
	}
	return false
}

// Encode writes img to w in the named format: "png", "bmp" or "tiff".
func Encode(w io.Writer, format string, img image.Image) error {
	switch strings.ToLower(format) {
	case "png":
		return png.Encode(w, img)
	case "bmp":
		return bmp.Encode(w, img)
	case "tif", "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Save writes img to path, choosing the encoder from the file extension.
func Save(path string, img image.Image) (err error) {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	if format == "" {
		return fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, path)
	}
	if !Supported(format) {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Encode(f, format, img)
}
