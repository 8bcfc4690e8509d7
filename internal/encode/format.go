package encode

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the encoder family behind a format token.
type Kind int

const (
	KindUnknown Kind = iota
	KindPNG
	KindJPEG
	KindWebP
	KindTIFF
	KindUTF
)

func (k Kind) String() string {
	switch k {
	case KindPNG:
		return "png"
	case KindJPEG:
		return "jpeg"
	case KindWebP:
		return "webp"
	case KindTIFF:
		return "tiff"
	case KindUTF:
		return "utf"
	default:
		return "unknown"
	}
}

// Format is a parsed tile format token. Tokens follow the renderer's own
// syntax: a base name, an optional quality suffix for jpeg ("jpeg80"), and
// colon-separated options ("png8:m=h", "webp:quality=70").
type Format struct {
	Token    string
	Kind     Kind
	Quality  int
	Paletted bool
	Params   map[string]string
}

// DefaultQuality is used for lossy formats when the token does not set one.
const DefaultQuality = 85

// ParseFormat parses a format token such as "png", "png8:m=h", "jpeg80",
// "webp:quality=70" or "utf".
func ParseFormat(token string) (Format, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Format{}, fmt.Errorf("empty tile format")
	}
	f := Format{Token: token, Params: map[string]string{}}
	parts := strings.Split(token, ":")
	base := strings.ToLower(parts[0])
	for _, p := range parts[1:] {
		k, v, _ := strings.Cut(p, "=")
		f.Params[k] = v
	}

	switch {
	case base == "utf":
		f.Kind = KindUTF
	case strings.HasPrefix(base, "png"):
		f.Kind = KindPNG
		switch strings.TrimPrefix(base, "png") {
		case "", "24", "32":
		case "8", "256":
			f.Paletted = true
		default:
			return Format{}, fmt.Errorf("unsupported png variant %q", token)
		}
	case strings.HasPrefix(base, "jpeg"), strings.HasPrefix(base, "jpg"):
		f.Kind = KindJPEG
		digits := strings.TrimLeft(base, "jpeg")
		if digits != "" {
			q, err := strconv.Atoi(digits)
			if err != nil {
				return Format{}, fmt.Errorf("invalid jpeg quality in %q", token)
			}
			f.Quality = q
		}
	case base == "webp":
		f.Kind = KindWebP
	case base == "tiff", base == "tif":
		f.Kind = KindTIFF
	default:
		return Format{}, fmt.Errorf("unsupported tile format: %q (supported: png, png8, jpeg, webp, tiff, utf)", token)
	}

	if q, ok := f.Params["quality"]; ok {
		n, err := strconv.Atoi(q)
		if err != nil {
			return Format{}, fmt.Errorf("invalid quality in %q", token)
		}
		f.Quality = n
	}
	if f.Quality < 0 || f.Quality > 100 {
		return Format{}, fmt.Errorf("quality out of range 0-100 in %q", token)
	}
	return f, nil
}

// MustParseFormat is ParseFormat for constant tokens; it panics on error.
func MustParseFormat(token string) Format {
	f, err := ParseFormat(token)
	if err != nil {
		panic(err)
	}
	return f
}

// String returns the token exactly as given; it prefixes tile keys and
// solid-tile fingerprints.
func (f Format) String() string { return f.Token }

// Base returns the token without options, e.g. "png8" for "png8:m=h".
func (f Format) Base() string {
	base, _, _ := strings.Cut(f.Token, ":")
	return base
}

// IsGrid reports whether the format renders a feature grid instead of an image.
func (f Format) IsGrid() bool { return f.Kind == KindUTF }
