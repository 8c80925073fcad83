package inkframe

import (
	"strings"
	"time"
	"unicode"
)

// SanitizeFilename reduces a diagram title to a filesystem-safe token:
// letters, digits, dashes and underscores, with runs of anything else
// collapsed to a single dash.
func SanitizeFilename(title string) string {
	var sb strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range strings.TrimSpace(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-':
			sb.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				sb.WriteRune('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(sb.String(), "-")
}

// filenameBase derives the artifact filename stem from the diagram title, or
// a timestamped fallback when no usable title exists.
func filenameBase(title, fallback string, now time.Time) string {
	if base := SanitizeFilename(title); base != "" {
		return base
	}
	return fallback + "-" + now.Format("2006-01-02-150405")
}
