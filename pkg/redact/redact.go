package redact

import (
	"regexp"
	"strings"
	"sync/atomic"
)

var enabled atomic.Bool

var (
	emailRe   = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
	phoneRe   = regexp.MustCompile(`\b\+\d[\d\s\-]{7,}\d\b`)
	accountRe = regexp.MustCompile(`\b\d{10}\b`)
)

// SetEnabled toggles PII redaction.
func SetEnabled(v bool) {
	enabled.Store(v)
}

// Enabled returns true when redaction is active.
func Enabled() bool {
	return enabled.Load()
}

// Text redacts emails, phone numbers and account numbers when enabled.
// Account numbers keep their last four digits for traceability.
func Text(in string) string {
	if !enabled.Load() || strings.TrimSpace(in) == "" {
		return in
	}
	out := emailRe.ReplaceAllString(in, "[REDACTED_EMAIL]")
	out = accountRe.ReplaceAllStringFunc(out, maskAccount)
	out = phoneRe.ReplaceAllString(out, "[REDACTED_PHONE]")
	return out
}

// Account masks a bare account number regardless of the global toggle.
func Account(acc string) string {
	if !enabled.Load() {
		return acc
	}
	if len(acc) < 4 {
		return acc
	}
	return maskAccount(acc)
}

func maskAccount(acc string) string {
	return "******" + acc[len(acc)-4:]
}
