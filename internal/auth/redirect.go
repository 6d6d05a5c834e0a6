// AngelaMos | 2026
// redirect.go

package auth

import (
	"net/url"
	"strings"
	"unicode"
)

// SafeRedirect returns raw when it is a same-origin path and fallback
// otherwise. "//host" and "/\host" are rejected because browsers treat
// both as protocol-relative URLs.
func SafeRedirect(raw, fallback string) string {
	if fallback == "" {
		fallback = "/"
	}

	if raw == "" || len(raw) > 2048 {
		return fallback
	}

	if !strings.HasPrefix(raw, "/") {
		return fallback
	}

	if len(raw) > 1 && (raw[1] == '/' || raw[1] == '\\') {
		return fallback
	}

	if strings.ContainsRune(raw, '\\') {
		return fallback
	}

	for _, r := range raw {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return fallback
		}
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return fallback
	}

	return raw
}
