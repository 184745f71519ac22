package schema

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lower = cases.Lower(language.Und)

// Resolve maps a finder name segment to a declared field (or the primary
// key). A segment may be spelled as the field itself ("first_name"), in
// camel case ("firstName", "FirstName") or as an exported Go identifier
// ("FirstName" for a field declared as "firstName").
func (s *Schema) Resolve(segment string) (string, bool) {
	if segment == "" {
		return "", false
	}
	for _, candidate := range candidates(segment) {
		if candidate == PrimaryKey || s.Has(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func candidates(segment string) []string {
	return []string{
		segment,
		LowerFirst(segment),
		Snake(segment),
		lower.String(segment),
	}
}

// LowerFirst lower-cases the first rune of s.
func LowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return lower.String(string(r)) + s[size:]
}

// Snake converts CamelCase to snake_case. Runs of capitals are treated as
// one word, so "HTTPCode" becomes "http_code" and "ID" becomes "id".
func Snake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prev != '_' && (unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower)) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(r)
	}
	return lower.String(b.String())
}

// Camel converts snake_case to CamelCase ("first_name" → "FirstName").
func Camel(s string) string {
	var b strings.Builder
	for _, part := range strings.Split(s, "_") {
		if part == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(part[size:])
	}
	return b.String()
}
