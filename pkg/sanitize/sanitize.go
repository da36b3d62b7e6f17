// Package sanitize makes untrusted upstream strings safe to embed in HTML.
package sanitize

import (
	"html"
	"net/url"
	"strings"
)

// Text trims s and escapes &, <, >, " and ' to HTML entities.
// Already escaped input is escaped again.
func Text(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return html.EscapeString(s)
}

// URL returns s unchanged if it is an absolute https URL with a host, empty string otherwise.
// Empty result means "drop this field".
func URL(s string) string {
	// url.Parse lowercases the scheme, so check the literal prefix first
	if !strings.HasPrefix(s, "https://") || strings.TrimSpace(s) != s {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	if u.Scheme != "https" || u.Host == "" || u.Opaque != "" {
		return ""
	}
	return s
}
