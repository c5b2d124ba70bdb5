package thumbgen

import "strings"

// Canonical MIME types accepted by the pipeline.
const (
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
	MimeWebP = "image/webp"
)

// ResolveMime derives a canonical image MIME type from a filename and an
// optional declared type hint. Extension wins over the hint; anything
// unrecognized defaults to JPEG.
func ResolveMime(filename, typeHint string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".png"):
		return MimePNG
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return MimeJPEG
	case strings.HasSuffix(lower, ".webp"):
		return MimeWebP
	}

	hint := strings.ToLower(typeHint)
	switch {
	case strings.Contains(hint, "png"):
		return MimePNG
	case strings.Contains(hint, "jpg"), strings.Contains(hint, "jpeg"):
		return MimeJPEG
	case strings.Contains(hint, "webp"):
		return MimeWebP
	}

	return MimeJPEG
}

// IsAllowedMime reports whether the resolved MIME is in the accepted set.
func IsAllowedMime(mime string) bool {
	switch mime {
	case MimePNG, MimeJPEG, MimeWebP:
		return true
	}
	return false
}

// unsupportedImageFormats are image subtypes the product explicitly refuses.
// ResolveMime would otherwise default them to JPEG, hiding the mismatch.
var unsupportedImageFormats = []string{"gif", "bmp", "tiff", "svg", "avif", "heic", "heif", "ico"}

// declaredUnsupportedFormat returns the offending subtype when the filename
// extension or declared type names an image format outside the accepted set.
func declaredUnsupportedFormat(filename, typeHint string) string {
	lowerName := strings.ToLower(filename)
	lowerHint := strings.ToLower(typeHint)
	for _, format := range unsupportedImageFormats {
		if strings.HasSuffix(lowerName, "."+format) || strings.Contains(lowerHint, format) {
			return format
		}
	}
	return ""
}
