package downloader

import "bytes"

// DetectExt inspects the payload's leading bytes to determine its type.
// Returns the suggested extension (without dot), or "" if unknown.
func DetectExt(data []byte) string {
	// WEBP needs at least 12 bytes: "RIFF" + 4 bytes size + "WEBP"
	if len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP" {
		return "webp"
	}

	// MP4 family: 4-byte box size then "ftyp"
	if len(data) >= 8 && string(data[4:8]) == "ftyp" {
		return "mp4"
	}

	// PNG: 89 50 4E 47 0D 0A 1A 0A
	if len(data) >= 8 && bytes.Equal(data[0:8], []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}) {
		return "png"
	}

	// GIF: GIF87a or GIF89a
	if len(data) >= 6 && (string(data[0:6]) == "GIF87a" || string(data[0:6]) == "GIF89a") {
		return "gif"
	}

	// JPEG: FF D8 FF
	if len(data) >= 3 && bytes.Equal(data[0:3], []byte{0xFF, 0xD8, 0xFF}) {
		return "jpg"
	}

	return ""
}
