// Package sanitize provides text sanitization utilities to prevent XSS attacks.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	ugcPolicy    = bluemonday.UGCPolicy()
)

// StripHTML removes all HTML from a string, making it safe for text-only display.
func StripHTML(s string) string {
	result := strictPolicy.Sanitize(s)
	// StrictPolicy escapes entities; store the plain text.
	result = html.UnescapeString(result)
	// Re-strip after entity decode to catch encoded tags
	result = strictPolicy.Sanitize(result)
	return strings.TrimSpace(html.UnescapeString(result))
}

// Text sanitizes a string for safe text storage. Use for user-provided text
// fields like notes, descriptions and action items.
func Text(s string) string {
	return StripHTML(s)
}

// TextPtr is a helper for optional string pointers
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	return &result
}

// RichText keeps safe formatting markup. Used for landing page and blog
// content that is rendered as HTML.
func RichText(s string) string {
	return strings.TrimSpace(ugcPolicy.Sanitize(s))
}
