package encode

import "testing"

func TestParseFormat(t *testing.T) {
	tests := []struct {
		token    string
		kind     Kind
		quality  int
		paletted bool
		base     string
		wantErr  bool
	}{
		{"png", KindPNG, 0, false, "png", false},
		{"png32", KindPNG, 0, false, "png32", false},
		{"png8:m=h", KindPNG, 0, true, "png8", false},
		{"png256", KindPNG, 0, true, "png256", false},
		{"jpeg", KindJPEG, 0, false, "jpeg", false},
		{"jpeg80", KindJPEG, 80, false, "jpeg80", false},
		{"jpg70", KindJPEG, 70, false, "jpg70", false},
		{"webp:quality=60", KindWebP, 60, false, "webp", false},
		{"tiff", KindTIFF, 0, false, "tiff", false},
		{"utf", KindUTF, 0, false, "utf", false},
		{"", KindUnknown, 0, false, "", true},
		{"bmp", KindUnknown, 0, false, "", true},
		{"png7", KindUnknown, 0, false, "", true},
		{"jpegxx", KindUnknown, 0, false, "", true},
		{"jpeg101", KindUnknown, 0, false, "", true},
		{"webp:quality=abc", KindUnknown, 0, false, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			f, err := ParseFormat(tt.token)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseFormat(%q) expected error, got %+v", tt.token, f)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFormat(%q): %v", tt.token, err)
			}
			if f.Kind != tt.kind || f.Quality != tt.quality || f.Paletted != tt.paletted {
				t.Errorf("ParseFormat(%q) = kind %v q %d pal %v, want kind %v q %d pal %v",
					tt.token, f.Kind, f.Quality, f.Paletted, tt.kind, tt.quality, tt.paletted)
			}
			if f.Base() != tt.base {
				t.Errorf("Base() = %q, want %q", f.Base(), tt.base)
			}
			if f.String() != tt.token {
				t.Errorf("String() = %q, want the original token %q", f.String(), tt.token)
			}
		})
	}
}

func TestContentType(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"png", "image/png"},
		{"png8:m=h", "image/png"},
		{"jpeg80", "image/jpeg"},
		{"jpg", "image/jpeg"},
		{"utf", "application/json"},
		{"webp", "image/webp"},
		{"tiff", "image/tiff"},
		{"tif", "image/tiff"},
	}
	for _, tt := range tests {
		if got := ContentType(MustParseFormat(tt.token)); got != tt.want {
			t.Errorf("ContentType(%q) = %q, want %q", tt.token, got, tt.want)
		}
	}
}

func TestContentType_UnknownFallsBackToBinary(t *testing.T) {
	// Not produced by ParseFormat, but headers must still be well-formed.
	f := Format{Token: "x-no-such-ext", Kind: KindUnknown}
	if got := ContentType(f); got != ContentTypeBinary {
		t.Errorf("ContentType = %q, want %q", got, ContentTypeBinary)
	}
}

func TestFileExtension(t *testing.T) {
	tests := map[string]string{
		"png8":   ".png",
		"jpeg80": ".jpg",
		"webp":   ".webp",
		"tiff":   ".tif",
		"utf":    ".json",
	}
	for token, want := range tests {
		if got := FileExtension(MustParseFormat(token)); got != want {
			t.Errorf("FileExtension(%q) = %q, want %q", token, got, want)
		}
	}
}
