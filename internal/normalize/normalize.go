// Package normalize folds free-form names, class identifiers and schedules
// into comparable keys.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// particles stay lowercase in proper-cased names unless they open the name.
var particles = map[string]bool{
	"da": true, "de": true, "do": true, "das": true, "dos": true, "e": true,
}

// Fold trims, lowercases, strips diacritics and collapses internal
// whitespace. Fold(Fold(s)) == Fold(s).
func Fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ProperCase title-cases every word of s, keeping linking particles in
// lowercase when they are not the first word.
func ProperCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		lower := strings.ToLower(w)
		if i > 0 && particles[lower] {
			words[i] = lower
			continue
		}
		words[i] = capitalize(lower)
	}
	return strings.Join(words, " ")
}

func capitalize(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if size == 0 {
		return w
	}
	return string(unicode.ToTitle(r)) + w[size:]
}

// Digits keeps only the ASCII digits of s.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Schedule reduces a free-form time string to an HHMM code: "8:00" -> "0800",
// "08h00" -> "0800", "" when s holds no digits.
func Schedule(s string) string {
	d := Digits(s)
	switch {
	case d == "":
		return ""
	case len(d) == 3:
		return "0" + d
	case len(d) > 4:
		return d[:4]
	}
	return d
}

// ClockTime renders a schedule as HH:MM, or "" when it has fewer than four
// digits.
func ClockTime(s string) string {
	d := Schedule(s)
	if len(d) < 4 {
		return ""
	}
	return d[:2] + ":" + d[2:4]
}
