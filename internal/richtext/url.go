package richtext

import (
	"net/url"
	"strings"
)

// allowedSchemes are the URL schemes that may appear in href/src attributes.
// An empty scheme covers relative and protocol-relative URLs.
var allowedSchemes = map[string]bool{
	"":       true,
	"http":   true,
	"https":  true,
	"mailto": true,
	"tel":    true,
}

// dataImagePrefixes are the inline image payloads accepted for <img src>.
var dataImagePrefixes = []string{
	"data:image/png;",
	"data:image/jpeg;",
	"data:image/gif;",
	"data:image/webp;",
}

// SafeURL returns the trimmed URL and true if it can be emitted as a link target.
// Script-capable schemes (javascript:, vbscript:, data:) are rejected.
func SafeURL(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", false
	}
	if !allowedSchemes[strings.ToLower(u.Scheme)] {
		return "", false
	}
	return s, true
}

// SafeMediaURL is SafeURL for image and video sources. It additionally accepts
// base64 raster images pasted into the editor.
func SafeMediaURL(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	lower := strings.ToLower(s)
	for _, p := range dataImagePrefixes {
		if strings.HasPrefix(lower, p) {
			return s, true
		}
	}
	if strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
		return "", false
	}
	return SafeURL(s)
}
