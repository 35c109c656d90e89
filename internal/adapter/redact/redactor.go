// Package redact masks sensitive substrings in log text before persistence.
package redact

import "regexp"

// Marker is the literal every matched span is replaced with.
const Marker = "[REDACTED]"

// Rules are applied in order, each operating on the output of the previous
// one. The order is load-bearing: full phone numbers are taken before the
// short form so "555.123.4567" is consumed whole, and spans already replaced
// by the marker cannot be re-matched by a later rule.
var rules = []*regexp.Regexp{
	// Full phone numbers: +1-555-123-4567, (555) 123-4567, 555.123.4567
	regexp.MustCompile(`\+?1?[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`),
	// Short phone numbers: 555-0199
	regexp.MustCompile(`\d{3}[-.\s]\d{4}`),
	// IPv4-shaped addresses, purely syntactic (no octet range check)
	regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`),
	// Email addresses
	regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
	// SSN-shaped patterns: 123-45-6789
	regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
}

// Redact replaces phone numbers, IPv4-shaped addresses, email addresses and
// SSN-shaped patterns with Marker. Text with no matches is returned
// unchanged.
func Redact(text string) string {
	redacted := text
	for _, rule := range rules {
		redacted = rule.ReplaceAllString(redacted, Marker)
	}
	return redacted
}
