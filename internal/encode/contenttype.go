package encode

import (
	"mime"
	"strings"
)

const (
	ContentTypePNG    = "image/png"
	ContentTypeJPEG   = "image/jpeg"
	ContentTypeTIFF   = "image/tiff"
	ContentTypeJSON   = "application/json"
	ContentTypeBinary = "application/octet-stream"
)

// ContentType returns the Content-Type header for tiles in format f.
// png and jpeg variants map directly, grids are JSON, and anything else is
// looked up by the base token as a file extension.
func ContentType(f Format) string {
	base := strings.ToLower(f.Base())
	switch {
	case f.IsGrid():
		return ContentTypeJSON
	case f.Kind == KindTIFF:
		// Not in Go's builtin table; the host mime.types may lack it too.
		return ContentTypeTIFF
	case strings.Contains(base, "png"):
		return ContentTypePNG
	case strings.Contains(base, "jpeg"), strings.Contains(base, "jpg"):
		return ContentTypeJPEG
	}
	if t := mime.TypeByExtension("." + base); t != "" {
		return t
	}
	return ContentTypeBinary
}

// FileExtension returns the file extension, with leading dot, for tiles
// written to disk in format f.
func FileExtension(f Format) string {
	if f.IsGrid() {
		return ".json"
	}
	if enc, err := NewEncoder(f); err == nil {
		return enc.FileExtension()
	}
	return "." + strings.ToLower(f.Base())
}
