// AngelaMos | 2026
// sanitize.go

package core

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richTextPolicy  = bluemonday.UGCPolicy()
	plainTextPolicy = bluemonday.StrictPolicy()
)

// SanitizeRichText keeps user formatting but drops scripts, handlers and
// unsafe URLs. Used for event descriptions and profile bios.
func SanitizeRichText(s string) string {
	return strings.TrimSpace(richTextPolicy.Sanitize(s))
}

// SanitizePlainText strips every tag.
func SanitizePlainText(s string) string {
	return strings.TrimSpace(plainTextPolicy.Sanitize(s))
}
