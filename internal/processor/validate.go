package processor

import (
	"bytes"
	"fmt"

	"menulens/internal/menu"
)

const (
	// MinImageSizeBytes rejects uploads too small to be a real photo.
	MinImageSizeBytes = 100

	// MaxImageSizeBytes caps uploads at 50MB.
	MaxImageSizeBytes = 50 * 1024 * 1024
)

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	riffMagic = []byte("RIFF")
	webpMagic = []byte("WEBP")
)

// ValidateImage checks that the upload is a plausible menu photo: within size
// bounds and carrying a JPEG, PNG or WebP signature. It returns a sentinel
// from the menu package so callers can classify the failure.
func ValidateImage(imageData []byte) error {
	const op = "ValidateImage"

	if len(imageData) < MinImageSizeBytes {
		return menu.WrapError(op, menu.ErrImageTooSmall,
			fmt.Sprintf("image is %d bytes, minimum is %d", len(imageData), MinImageSizeBytes))
	}
	if len(imageData) > MaxImageSizeBytes {
		return menu.WrapError(op, menu.ErrImageTooLarge,
			fmt.Sprintf("image is %d bytes, maximum is %d", len(imageData), MaxImageSizeBytes))
	}
	if !hasSupportedSignature(imageData) {
		return menu.WrapError(op, menu.ErrUnsupportedFormat,
			"image must be JPEG, PNG or WebP")
	}
	return nil
}

func hasSupportedSignature(data []byte) bool {
	if bytes.HasPrefix(data, jpegMagic) {
		return true
	}
	if bytes.HasPrefix(data, pngMagic) {
		return true
	}
	// WebP: RIFF container with a WEBP fourcc at offset 8.
	if len(data) >= 12 && bytes.HasPrefix(data, riffMagic) && bytes.Equal(data[8:12], webpMagic) {
		return true
	}
	return false
}
