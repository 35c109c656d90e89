package redact

import (
	"strings"
	"testing"
)

func TestRedact(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "Short phone number",
			input: "User 555-0199 accessed the system",
			want:  "User [REDACTED] accessed the system",
		},
		{
			name:  "Full phone with country code",
			input: "Call +1-555-123-4567 now",
			want:  "Call [REDACTED] now",
		},
		{
			name:  "Full phone with parenthesized area code",
			input: "Call (555) 123-4567 now",
			want:  "Call [REDACTED] now",
		},
		{
			name:  "Full phone with dots",
			input: "Call 555.123.4567 now",
			want:  "Call [REDACTED] now",
		},
		{
			name:  "IPv4 address",
			input: "Request from 203.0.113.42 rejected",
			want:  "Request from [REDACTED] rejected",
		},
		{
			name:  "IPv4 without octet range validation",
			input: "Bad address 999.999.999.999 seen",
			want:  "Bad address [REDACTED] seen",
		},
		{
			name:  "Email address",
			input: "Contact admin@test.com for help",
			want:  "Contact [REDACTED] for help",
		},
		{
			name:  "SSN pattern",
			input: "SSN 123-45-6789 on file",
			want:  "SSN [REDACTED] on file",
		},
		{
			name:  "No sensitive data is identity",
			input: "An ordinary log line with nothing to hide",
			want:  "An ordinary log line with nothing to hide",
		},
		{
			name:  "Empty text",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Redact(tt.input)
			if got != tt.want {
				t.Errorf("Redact(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRedact_MultiplePatternClasses(t *testing.T) {
	input := "User 555-0199 from 203.0.113.42 emailed admin@test.com"
	got := Redact(input)

	if n := strings.Count(got, Marker); n != 3 {
		t.Errorf("expected exactly 3 markers, got %d in %q", n, got)
	}
	for _, sensitive := range []string{"555-0199", "203.0.113.42", "admin@test.com"} {
		if strings.Contains(got, sensitive) {
			t.Errorf("output still contains %q: %q", sensitive, got)
		}
	}
}

func TestRedact_Idempotent(t *testing.T) {
	inputs := []string{
		"Call +1-555-123-4567 now",
		"Request from 203.0.113.42 rejected",
		"Contact admin@test.com for help",
		"SSN 123-45-6789 on file",
		"User 555-0199 from 203.0.113.42 emailed admin@test.com",
	}

	for _, input := range inputs {
		once := Redact(input)
		twice := Redact(once)
		if once != twice {
			t.Errorf("redaction is not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestRedact_IdentityOnCleanText(t *testing.T) {
	clean := []string{
		"no numbers here at all",
		"version v2 released",
		"order total was 42 units",
	}
	for _, text := range clean {
		if got := Redact(text); got != text {
			t.Errorf("Redact(%q) = %q, want unchanged", text, got)
		}
	}
}
