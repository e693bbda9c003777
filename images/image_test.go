package images

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// TestDetectFormat validates magic byte sniffing.
func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want ImageFormat
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}, FormatJPEG},
		{"png", []byte("\x89PNG\r\n\x1a\n...."), FormatPNG},
		{"bmp", []byte("BM\x00\x00"), FormatBMP},
		{"webp", []byte("RIFF\x10\x00\x00\x00WEBPVP8 "), FormatWebP},
		{"riff but not webp", []byte("RIFF\x10\x00\x00\x00WAVEfmt "), FormatUnknown},
		{"empty", nil, FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.data))
		})
	}
}

// TestIsImageFile validates extension filtering used when walking image directories.
func TestIsImageFile(t *testing.T) {
	assert.True(t, IsImageFile("frame-001.JPG"))
	assert.True(t, IsImageFile("a/b/c.webp"))
	assert.False(t, IsImageFile("model.yml"))
	assert.False(t, IsImageFile("noext"))
}

// TestDecodePNG validates that decoded images come back as 3-channel BGR.
func TestDecodePNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solidImage(8, 4, color.RGBA{R: 200, G: 100, B: 50, A: 255})))

	mat, err := Decode(buf.Bytes())
	require.NoError(t, err)
	defer mat.Close()

	assert.Equal(t, 4, mat.Rows())
	assert.Equal(t, 8, mat.Cols())
	assert.Equal(t, 3, mat.Channels())

	px := mat.GetVecbAt(0, 0)
	assert.Equal(t, []uint8{50, 100, 200}, []uint8{px[0], px[1], px[2]})
}

// TestDecodeWebP validates the webp decoding path.
func TestDecodeWebP(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, webp.Encode(&buf, solidImage(6, 6, color.RGBA{R: 10, G: 20, B: 30, A: 255}), &webp.Options{Lossless: true}))
	require.Equal(t, FormatWebP, DetectFormat(buf.Bytes()))

	mat, err := Decode(buf.Bytes())
	require.NoError(t, err)
	defer mat.Close()

	assert.Equal(t, 6, mat.Rows())
	assert.Equal(t, 6, mat.Cols())
	assert.Equal(t, 3, mat.Channels())
}

// TestDecodeGarbage validates that undecodable input is an error, not an empty image.
func TestDecodeGarbage(t *testing.T) {
	mat, err := Decode([]byte("definitely not an image"))
	defer mat.Close()
	assert.Error(t, err)
}

// TestComputeMatChecksum validates that the checksum tracks pixel content.
func TestComputeMatChecksum(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solidImage(4, 4, color.RGBA{R: 1, G: 2, B: 3, A: 255})))
	mat, err := Decode(buf.Bytes())
	require.NoError(t, err)
	defer mat.Close()

	clone := mat.Clone()
	defer clone.Close()
	assert.Equal(t, ComputeMatChecksum(mat), ComputeMatChecksum(clone))

	clone.SetUCharAt(0, 0, 255)
	assert.NotEqual(t, ComputeMatChecksum(mat), ComputeMatChecksum(clone))
}
