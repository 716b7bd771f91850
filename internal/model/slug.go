package model

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const slugTitleMaxLen = 40

// Slugify builds a URL-safe slug from a title and an owner name. The title
// part is truncated to keep slugs readable.
func Slugify(title, owner string) string {
	s := slugifyPart(title)
	if len(s) > slugTitleMaxLen {
		s = s[:slugTitleMaxLen]
		s = strings.TrimRight(s, "-")
	}
	if o := slugifyPart(owner); o != "" {
		s = s + "-" + o
	}
	return s
}

// WithUniqueSuffix appends a short random suffix to a slug. Used by the
// bounded retry loop when a slug collides on insert.
func WithUniqueSuffix(slug string) string {
	return slug + "-" + uuid.NewString()[:4]
}

func slugifyPart(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	lastDash := true // trim leading dashes
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
