package images

import (
	"crypto/sha256"
	"fmt"

	"gocv.io/x/gocv"
)

// ComputeMatChecksum generates a deterministic checksum over the size, type and pixels of a Mat.
//
// It is used to verify that pipeline stages leave their input images untouched.
//
// Arguments:
// - mat: The Mat to compute checksum for.
//
// Returns:
// - A hex-encoded checksum string, or "empty" for an empty Mat.
func ComputeMatChecksum(mat gocv.Mat) string {
	if mat.Empty() {
		return "empty"
	}

	hash := sha256.New()
	fmt.Fprintf(hash, "%dx%dx%d:%d;", mat.Rows(), mat.Cols(), mat.Channels(), mat.Type())
	hash.Write(mat.ToBytes())
	return fmt.Sprintf("%x", hash.Sum(nil))
}
