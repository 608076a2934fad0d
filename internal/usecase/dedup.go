package usecase

import (
	"bytes"
	"fmt"
	"image"
	"math/bits"
	"strconv"

	"github.com/corona10/goimagehash"
)

// nearDuplicateThreshold is the maximum Hamming distance between two dHash
// values below which images are considered perceptually identical.
const nearDuplicateThreshold = 10

// differenceHash computes a 64-bit perceptual hash of the image, returned as
// a fixed-width hex string. Hashing failures degrade to an empty string; the
// near-duplicate report then simply skips the entry.
func differenceHash(imageBytes []byte) string {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return ""
	}
	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%016x", hash.GetHash())
}

// hammingDistanceHex compares two hex-encoded 64-bit hashes. The second
// return value is false when either hash is absent or malformed.
func hammingDistanceHex(a, b string) (int, bool) {
	if a == "" || b == "" {
		return 0, false
	}
	av, err := strconv.ParseUint(a, 16, 64)
	if err != nil {
		return 0, false
	}
	bv, err := strconv.ParseUint(b, 16, 64)
	if err != nil {
		return 0, false
	}
	return bits.OnesCount64(av ^ bv), true
}
