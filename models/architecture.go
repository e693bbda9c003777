// Package models - Detection model configuration and architecture families.
package models

import "strings"

// Architecture identifies the family a detection model belongs to.
//
// The family decides two things downstream: whether the resize transform keeps the aspect ratio
// and whether the decoder maps normalized box coordinates back to pixels.
type Architecture int

const (
	// ArchUnknown is assigned when the model name matches no known family.
	ArchUnknown Architecture = iota
	// ArchYOLO is the YOLO family.
	ArchYOLO
	// ArchRCNN is the R-CNN family (Faster, Mask, Cascade).
	ArchRCNN
	// ArchRetinaNet is the RetinaNet family.
	ArchRetinaNet
	// ArchSSD is the single shot detector family. SSD models take a fixed square input and emit
	// normalized coordinates.
	ArchSSD
)

// architectureMatchers lists the substrings probed by ResolveArchitecture, in priority order.
var architectureMatchers = []struct {
	token string
	arch  Architecture
}{
	{"YOLO", ArchYOLO},
	{"RCNN", ArchRCNN},
	{"RetinaNet", ArchRetinaNet},
	{"SSD", ArchSSD},
}

// ResolveArchitecture maps a model name to its architecture family.
//
// The match is a case-sensitive substring scan in the order YOLO, RCNN, RetinaNet, SSD; the first
// hit wins, so "YOLOv3_SSDLite" resolves to ArchYOLO.
//
// Arguments:
//   - name: The model name as declared in the configuration document.
//
// Returns:
//   - Architecture: The resolved family, or ArchUnknown when nothing matches.
func ResolveArchitecture(name string) Architecture {
	for _, m := range architectureMatchers {
		if strings.Contains(name, m.token) {
			return m.arch
		}
	}
	return ArchUnknown
}

// String returns the canonical family name.
func (a Architecture) String() string {
	switch a {
	case ArchYOLO:
		return "YOLO"
	case ArchRCNN:
		return "RCNN"
	case ArchRetinaNet:
		return "RetinaNet"
	case ArchSSD:
		return "SSD"
	default:
		return "UNKNOWN"
	}
}

// IsSSD reports whether the architecture is the SSD family.
func (a Architecture) IsSSD() bool {
	return a == ArchSSD
}
