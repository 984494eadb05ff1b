package security

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"sync/atomic"
)

// RedactPlaceholder replaces every redacted value.
const RedactPlaceholder = "***REDACTED***"

// secretKeyPattern matches configuration keys whose values are secrets.
var secretKeyPattern = regexp.MustCompile(`(?i)(secret|token|password|key)`)

// redactRules is an immutable snapshot. Literals are kept longest first so
// a secret containing another one is replaced whole.
type redactRules struct {
	patterns []*regexp.Regexp
	literals []string
}

// Redactor masks Graph API tokens and configured secrets in log output and
// printed configuration. Rules may be added at any time; readers never lock.
type Redactor struct {
	rules atomic.Pointer[redactRules]
}

// NewRedactor returns a Redactor loaded with DefaultPatterns.
func NewRedactor() *Redactor {
	r := &Redactor{}
	r.rules.Store(&redactRules{patterns: DefaultPatterns()})
	return r
}

// AddPattern registers an extra pattern.
func (r *Redactor) AddPattern(p *regexp.Regexp) {
	r.update(func(next *redactRules) {
		next.patterns = append(next.patterns, p)
	})
}

// AddLiteral registers a secret value, such as a page token read from
// config. Empty and duplicate values are ignored.
func (r *Redactor) AddLiteral(secret string) {
	if secret == "" {
		return
	}
	r.update(func(next *redactRules) {
		if slices.Contains(next.literals, secret) {
			return
		}
		next.literals = append(next.literals, secret)
		slices.SortStableFunc(next.literals, func(a, b string) int {
			return cmp.Compare(len(b), len(a))
		})
	})
}

func (r *Redactor) update(fn func(*redactRules)) {
	for {
		cur := r.rules.Load()
		next := &redactRules{
			patterns: slices.Clone(cur.patterns),
			literals: slices.Clone(cur.literals),
		}
		fn(next)
		if r.rules.CompareAndSwap(cur, next) {
			return
		}
	}
}

// Redact masks literals first, then patterns.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}
	rules := r.rules.Load()
	for _, lit := range rules.literals {
		s = strings.ReplaceAll(s, lit, RedactPlaceholder)
	}
	for _, p := range rules.patterns {
		s = p.ReplaceAllString(s, RedactPlaceholder)
	}
	return s
}

// RedactMap masks m in place. Non-empty string values under secret-looking
// keys are replaced whole; every other string goes through Redact. Nested
// maps and lists are walked.
func (r *Redactor) RedactMap(m map[string]any) {
	for k, v := range m {
		if s, ok := v.(string); ok && s != "" && secretKeyPattern.MatchString(k) {
			m[k] = RedactPlaceholder
			continue
		}
		m[k] = r.redactValue(v)
	}
}

func (r *Redactor) redactValue(v any) any {
	switch val := v.(type) {
	case string:
		return r.Redact(val)
	case map[string]any:
		r.RedactMap(val)
	case []any:
		for i := range val {
			val[i] = r.redactValue(val[i])
		}
	}
	return v
}

// DefaultPatterns matches Graph API access tokens, bare or as a query
// parameter, and bearer credentials.
func DefaultPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		regexp.MustCompile(`EAA[A-Za-z0-9]{20,}`),
		regexp.MustCompile(`access_token=[^&\s"]+`),
		regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9\-._~+/]{16,}=*`),
	}
}
