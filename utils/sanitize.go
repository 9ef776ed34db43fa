package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	sanitizer = bluemonday.UGCPolicy()
	stripper  = bluemonday.StrictPolicy()
)

// Sanitize cleans HTML content to prevent XSS attacks. Post bodies go through it when rendered.
func Sanitize(input string) string {
	return strings.TrimSpace(sanitizer.Sanitize(input))
}

// StripTags removes all markup and returns plain text. Used for titles, comments and profile fields;
// templates escape it on output.
func StripTags(input string) string {
	return strings.TrimSpace(html.UnescapeString(stripper.Sanitize(input)))
}
