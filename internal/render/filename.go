package render

import (
	"strings"
	"time"
	"unicode"
)

const (
	docxExt        = ".docx"
	fallbackPrefix = "job_vacancy_"
	fallbackLayout = "20060102_150405"
)

// Sanitize keeps letters, digits, whitespace and hyphens, then collapses
// whitespace runs into single underscores.
func Sanitize(s string) string {
	kept := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '-' {
			return r
		}
		return -1
	}, s)
	return strings.Join(strings.Fields(kept), "_")
}

// FileName derives a document name from the identifying values. If any of
// them is missing or sanitizes to nothing, the name falls back to the
// submission time. Equal inputs give equal names.
func FileName(parts []string, at time.Time) string {
	if len(parts) == 0 {
		return fallbackName(at)
	}
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		s := Sanitize(p)
		if s == "" {
			return fallbackName(at)
		}
		clean = append(clean, s)
	}
	return strings.Join(clean, "_") + docxExt
}

func fallbackName(at time.Time) string {
	return fallbackPrefix + at.Format(fallbackLayout) + docxExt
}
