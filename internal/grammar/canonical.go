package grammar

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Delimiter wraps every canonical rule name.
const Delimiter = "*"

// toUpper upper-cases s. A cases.Caser may hold state, so one is built per call.
func toUpper(s string) string {
	return cases.Upper(language.Und).String(s)
}

// Canonical converts a user-facing rule name to its canonical form.
//
// Surrounding whitespace and delimiters are stripped before upper-casing, so
// Canonical is idempotent: Canonical(Canonical(x)) == Canonical(x).
// Returns ErrEmptyRuleName if nothing remains.
func Canonical(name string) (string, error) {
	bare := strings.Trim(strings.TrimSpace(name), Delimiter)
	bare = strings.TrimSpace(bare)
	if bare == "" {
		return "", ErrEmptyRuleName
	}
	return Delimiter + toUpper(norm.NFC.String(bare)) + Delimiter, nil
}

// IsCanonical reports whether token has the shape of a canonical name:
// delimiter-wrapped with a non-empty upper-case body.
//
// Shape alone does not make a token a rule; only names present in a Store are
// substituted during expansion.
func IsCanonical(token string) bool {
	if len(token) < 3 || !strings.HasPrefix(token, Delimiter) || !strings.HasSuffix(token, Delimiter) {
		return false
	}
	body := token[1 : len(token)-1]
	if strings.Contains(body, Delimiter) || strings.TrimSpace(body) != body {
		return false
	}
	return toUpper(body) == body
}
