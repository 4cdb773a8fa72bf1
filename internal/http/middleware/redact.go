package middleware

import (
	"net/http"
	"regexp"
	"strings"
)

// SecretHeader carries the webhook shared secret.
const SecretHeader = "X-Secret-Key"

const redacted = "[REDACTED]"

// UUIDs are replaced before phone numbers so the loose phone pattern never
// eats the digit groups of an ID.
var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// redactor scrubs log fields. Headers in mask have their value replaced; every
// other value has identifiers replaced by typed placeholders.
type redactor struct {
	mask map[string]struct{}
}

func newRedactor(extra ...string) redactor {
	r := redactor{mask: map[string]struct{}{
		"authorization":               {},
		"cookie":                      {},
		"set-cookie":                  {},
		strings.ToLower(SecretHeader): {},
	}}
	for _, h := range extra {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			r.mask[h] = struct{}{}
		}
	}
	return r
}

func (redactor) text(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

func (r redactor) headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, ok := r.mask[strings.ToLower(k)]; ok {
			out[k] = redacted
			continue
		}
		out[k] = r.text(strings.Join(vv, ", "))
	}
	return out
}
