package images

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// AspectRatio represents a camera aspect ratio by name (e.g., "16:9").
type AspectRatio string

// Common camera aspect ratios.
const (
	AspectRatio169 AspectRatio = "16:9"
	AspectRatio43  AspectRatio = "4:3"
	AspectRatio54  AspectRatio = "5:4"
	AspectRatio32  AspectRatio = "3:2"
)

// Pixels describes the exact dimensions of a resolution.
type Pixels struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Resolution is a named camera resolution.
type Resolution struct {
	Name        string      `json:"name"`
	Alias       string      `json:"alias"`
	AspectRatio AspectRatio `json:"aspectRatio"`
	Pixels      Pixels      `json:"pixels"`
}

// MegaPixels returns the pixel count in millions, rounded to two decimal places.
func (r Resolution) MegaPixels() float64 {
	if r.Pixels.Width <= 0 || r.Pixels.Height <= 0 {
		return 0.0
	}
	mp := float64(r.Pixels.Width*r.Pixels.Height) / 1_000_000.0
	return math.Round(mp*100) / 100
}

// String returns a human-readable summary of the resolution.
func (r Resolution) String() string {
	return fmt.Sprintf("%s (%dx%d, %.2fMP)", r.Name, r.Pixels.Width, r.Pixels.Height, r.MegaPixels())
}

// CameraResolutions lists common surveillance camera resolutions, smallest first.
var CameraResolutions = []Resolution{
	{Name: "nHD", Alias: "360p", AspectRatio: AspectRatio169, Pixels: Pixels{Width: 640, Height: 360}},
	{Name: "VGA", Alias: "vga", AspectRatio: AspectRatio43, Pixels: Pixels{Width: 640, Height: 480}},
	{Name: "qHD 540p", Alias: "540p", AspectRatio: AspectRatio169, Pixels: Pixels{Width: 960, Height: 540}},
	{Name: "HD 720p", Alias: "720p", AspectRatio: AspectRatio169, Pixels: Pixels{Width: 1280, Height: 720}},
	{Name: "1MP (5:4)", Alias: "1mp", AspectRatio: AspectRatio54, Pixels: Pixels{Width: 1280, Height: 1024}},
	{Name: "Full HD 1080p", Alias: "1080p", AspectRatio: AspectRatio169, Pixels: Pixels{Width: 1920, Height: 1080}},
	{Name: "QHD 1440p", Alias: "1440p", AspectRatio: AspectRatio169, Pixels: Pixels{Width: 2560, Height: 1440}},
	{Name: "6MP (3:2)", Alias: "6mp", AspectRatio: AspectRatio32, Pixels: Pixels{Width: 3072, Height: 2048}},
	{Name: "4K UHD", Alias: "4k", AspectRatio: AspectRatio169, Pixels: Pixels{Width: 3840, Height: 2160}},
}

// ParseResolution resolves a resolution alias such as "720p", or explicit "WIDTHxHEIGHT" dimensions.
//
// Arguments:
//   - s: The alias or dimensions.
//
// Returns:
//   - Resolution: The matching resolution.
//   - error: An error if s is neither a known alias nor valid dimensions.
func ParseResolution(s string) (Resolution, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, r := range CameraResolutions {
		if r.Alias == key {
			return r, nil
		}
	}

	w, h, ok := strings.Cut(key, "x")
	if !ok {
		return Resolution{}, errors.Errorf("unknown resolution %q", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return Resolution{}, errors.Errorf("invalid width in resolution %q", s)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return Resolution{}, errors.Errorf("invalid height in resolution %q", s)
	}
	return Resolution{Name: key, Alias: key, Pixels: Pixels{Width: width, Height: height}}, nil
}

// HighestResolutionWithin returns the largest camera resolution that fits inside width x height.
func HighestResolutionWithin(width, height int) (Resolution, bool) {
	var highest Resolution
	var found bool
	for _, r := range CameraResolutions {
		if r.Pixels.Width <= width && r.Pixels.Height <= height {
			if !found || r.MegaPixels() > highest.MegaPixels() {
				highest = r
				found = true
			}
		}
	}
	return highest, found
}
