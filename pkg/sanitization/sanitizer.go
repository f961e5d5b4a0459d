package sanitization

import (
	"regexp"
	"strings"
)

type (
	// Sanitizer applies an ordered list of rewrite rules and then truncates the result to maxLength.
	// A maxLength of 0 means unlimited.
	Sanitizer struct {
		rules     []Rule
		maxLength int
		post      []Rule
	}

	Rule struct {
		Pattern     *regexp.Regexp
		Replacement string
	}
)

// MaxNameLength is the upper bound shared by every provider-visible name.
const MaxNameLength = 63

// NameSanitizer is the generic first stage of every kind's name derivation.
var NameSanitizer = NewSanitizer(
	[]Rule{
		{
			Pattern:     regexp.MustCompile(`[^a-zA-Z0-9-]`),
			Replacement: "-",
		},
	},
	MaxNameLength,
	// trimming happens after truncation so the cut never re-exposes a hyphen
	Rule{
		Pattern:     regexp.MustCompile(`^-+|-+$`),
		Replacement: "",
	},
)

func (s *Sanitizer) Apply(input string) string {
	output := input
	for _, rule := range s.rules {
		output = rule.Pattern.ReplaceAllString(output, rule.Replacement)
	}
	output = Truncate(output, s.maxLength)
	for _, rule := range s.post {
		output = rule.Pattern.ReplaceAllString(output, rule.Replacement)
	}
	return output
}

func (s *Sanitizer) MaxLength() int {
	return s.maxLength
}

// NewSanitizer creates a Sanitizer. The optional post rules run after truncation.
func NewSanitizer(rules []Rule, maxLength int, post ...Rule) *Sanitizer {
	return &Sanitizer{rules: rules, maxLength: maxLength, post: post}
}

// Sanitize normalizes an arbitrary identifier into a provider-legal name: every character
// outside [A-Za-z0-9-] becomes '-', the result is cut to 63 characters and stripped of
// leading and trailing hyphens. It never fails.
func Sanitize(raw string) string {
	return NameSanitizer.Apply(raw)
}

// Truncate cuts s to at most n bytes. A non-positive n leaves s unchanged.
func Truncate(s string, n int) string {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}

// Limit sanitizes raw and cuts it to n characters without leaving a trailing hyphen.
func Limit(raw string, n int) string {
	return strings.TrimRight(Truncate(Sanitize(raw), n), "-")
}
