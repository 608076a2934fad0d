package analysis

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
)

// rawExtensions are the file extensions treated as device-native capture
// formats.
var rawExtensions = map[string]bool{
	".tif":  true,
	".tiff": true,
}

// Camera-identity EXIF tags: Make (271), Model (272), DateTime (306).
var cameraTagIDs = []uint16{271, 272, 306}

// provenanceMarkers are tokens of content-credential and AI-provenance
// standards, matched case-insensitively against the file header.
var provenanceMarkers = [][]byte{
	[]byte("c2pa"),
	[]byte("xmpmeta"),
	[]byte("contentcredentials"),
	[]byte("aiprovenance"),
}

// markerScanLimit bounds how much of the file is scanned for markers.
const markerScanLimit = 256 * 1024

// HasRawExtension reports whether the file extension denotes a raw,
// device-native format.
func HasRawExtension(path string) bool {
	return rawExtensions[strings.ToLower(filepath.Ext(path))]
}

// HasCameraEXIF reports whether embedded metadata carries any of the
// camera-identity tags. Absent or corrupt metadata yields false; no read
// failure escapes.
func HasCameraEXIF(path string) bool {
	rawExif, err := exif.SearchFileAndExtractExif(path)
	if err != nil {
		return false
	}
	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		for _, id := range cameraTagIDs {
			if entry.TagId == id {
				return true
			}
		}
	}
	return false
}

// HasMetadataMark reports whether the first 256 KB of the file contains a
// known provenance marker token. Read failures yield false.
func HasMetadataMark(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	chunk, err := io.ReadAll(io.LimitReader(f, markerScanLimit))
	if err != nil {
		return false
	}
	chunk = bytes.ToLower(chunk)
	for _, marker := range provenanceMarkers {
		if bytes.Contains(chunk, marker) {
			return true
		}
	}
	return false
}
