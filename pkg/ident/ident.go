// Package ident derives stable employee identifiers from photo filenames.
// Photographers deliver files named in whatever scheme they like, so the
// extraction runs a fixed chain of heuristics and falls back to the raw
// name when none of them produce a usable identifier.
package ident

import (
	"regexp"
	"strings"
)

// separators tried when splitting a filename into an identifier part and a
// descriptive part. The spaced hyphen comes before the bare hyphen so
// identifiers that themselves contain a hyphen are not split apart.
var separators = []string{" - ", "_", ".", " ", "-"}

var (
	badgeExact = regexp.MustCompile(`(?i)^MTI\d+$`)
	badgeAny   = regexp.MustCompile(`(?i)MTI\d+`)
	digitsOnly = regexp.MustCompile(`^[0-9]+$`)
	alnumOnly  = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	digitRun   = regexp.MustCompile(`[0-9]+`)
)

// strategy attempts to derive an identifier from a name; ok reports whether
// it produced one.
type strategy func(name string) (id string, ok bool)

// strategies are tried in order, first hit wins.
var strategies = []strategy{
	splitOnSeparator,
	wholeName,
	embeddedBadgeNumber,
	firstDigitRun,
}

// Extract derives an employee identifier from a filename stripped of its
// extension. It never fails: when every strategy comes up empty the original
// name is returned unchanged.
func Extract(name string) string {
	for _, s := range strategies {
		if id, ok := s(name); ok {
			return id
		}
	}
	return name
}

// Valid reports whether a candidate passes the identifier rules: a badge
// number (MTI followed by digits), a pure digit string of at least three
// characters, or an alphanumeric string of at least three characters that
// contains at least one digit.
func Valid(candidate string) bool {
	switch {
	case badgeExact.MatchString(candidate):
		return true
	case len(candidate) >= 3 && digitsOnly.MatchString(candidate):
		return true
	case len(candidate) >= 3 && alnumOnly.MatchString(candidate) &&
		strings.ContainsAny(candidate, "0123456789"):
		return true
	}
	return false
}

func splitOnSeparator(name string) (string, bool) {
	for _, sep := range separators {
		idx := strings.Index(name, sep)
		if idx < 0 {
			continue
		}
		candidate := strings.TrimSpace(name[:idx])
		if Valid(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func wholeName(name string) (string, bool) {
	trimmed := strings.TrimSpace(name)
	if Valid(trimmed) {
		return trimmed, true
	}
	return "", false
}

func embeddedBadgeNumber(name string) (string, bool) {
	if m := badgeAny.FindString(name); m != "" {
		return m, true
	}
	return "", false
}

func firstDigitRun(name string) (string, bool) {
	if m := digitRun.FindString(name); m != "" {
		return m, true
	}
	return "", false
}
