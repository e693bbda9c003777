// Package images - Image decoding for the detection pipeline.
package images

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ImageFormat represents supported image formats
type ImageFormat string

// ImageFormat constants
const (
	// FormatUnknown is returned when the encoding is not recognized.
	FormatUnknown ImageFormat = ""
	// FormatJPEG is the JPEG image format.
	FormatJPEG ImageFormat = "jpeg"
	// FormatPNG is the PNG image format.
	FormatPNG ImageFormat = "png"
	// FormatBMP is the BMP image format.
	FormatBMP ImageFormat = "bmp"
	// FormatWebP is the WebP image format.
	FormatWebP ImageFormat = "webp"
)

// DetectFormat sniffs the encoding of an image from its leading magic bytes.
//
// Arguments:
//   - data: The encoded image.
//
// Returns:
//   - ImageFormat: The detected format, or FormatUnknown.
func DetectFormat(data []byte) ImageFormat {
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return FormatJPEG
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return FormatPNG
	case bytes.HasPrefix(data, []byte("BM")):
		return FormatBMP
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return FormatWebP
	default:
		return FormatUnknown
	}
}

// IsImageFile reports whether the file name carries an extension Decode can handle.
func IsImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".bmp", ".webp":
		return true
	default:
		return false
	}
}

// Decode decodes an encoded image into a 3-channel BGR Mat.
//
// OpenCV handles JPEG, PNG and BMP directly. WebP goes through the native webp decoder since
// OpenCV builds frequently ship without it.
//
// Arguments:
//   - data: The encoded image.
//
// Returns:
//   - gocv.Mat: The decoded BGR image. The caller owns it and must Close it.
//   - error: An error if the data cannot be decoded.
func Decode(data []byte) (gocv.Mat, error) {
	if DetectFormat(data) == FormatWebP {
		img, err := webp.Decode(bytes.NewReader(data))
		if err != nil {
			return gocv.NewMat(), errors.Wrap(err, "decode webp")
		}
		mat, err := gocv.ImageToMatRGB(img)
		if err != nil {
			return gocv.NewMat(), errors.Wrap(err, "convert webp image to mat")
		}
		return mat, nil
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "decode image")
	}
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), errors.New("decode image: unsupported or corrupt data")
	}
	return mat, nil
}

// Load reads and decodes the image file at path.
func Load(path string) (gocv.Mat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return gocv.NewMat(), errors.Wrapf(err, "read image %s", path)
	}
	mat, err := Decode(data)
	if err != nil {
		return gocv.NewMat(), errors.Wrapf(err, "load image %s", path)
	}
	return mat, nil
}
