package processor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"menulens/internal/menu"
)

// testJPEG builds a minimal byte slice that passes image validation.
func testJPEG(size int) []byte {
	data := make([]byte, size)
	copy(data, []byte{0xFF, 0xD8, 0xFF})
	return data
}

func TestValidateImageAcceptsFormats(t *testing.T) {
	jpeg := testJPEG(200)
	assert.NoError(t, ValidateImage(jpeg))

	png := make([]byte, 200)
	copy(png, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
	assert.NoError(t, ValidateImage(png))

	webp := make([]byte, 200)
	copy(webp, []byte("RIFF"))
	copy(webp[8:], []byte("WEBP"))
	assert.NoError(t, ValidateImage(webp))
}

func TestValidateImageTooSmall(t *testing.T) {
	err := ValidateImage(testJPEG(MinImageSizeBytes - 1))

	assert.ErrorIs(t, err, menu.ErrImageTooSmall)
}

func TestValidateImageTooLarge(t *testing.T) {
	err := ValidateImage(testJPEG(MaxImageSizeBytes + 1))

	assert.ErrorIs(t, err, menu.ErrImageTooLarge)
}

func TestValidateImageUnsupportedFormat(t *testing.T) {
	data := bytes.Repeat([]byte("not an image "), 20)

	err := ValidateImage(data)

	assert.ErrorIs(t, err, menu.ErrUnsupportedFormat)
}

func TestValidateImageRIFFWithoutWebP(t *testing.T) {
	// An AVI file is a RIFF container too; only WEBP passes.
	data := make([]byte, 200)
	copy(data, []byte("RIFF"))
	copy(data[8:], []byte("AVI "))

	err := ValidateImage(data)

	assert.ErrorIs(t, err, menu.ErrUnsupportedFormat)
}
