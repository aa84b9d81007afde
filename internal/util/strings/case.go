package strings

import (
	"strings"
	"unicode"
)

// ToSnakeCase converts CamelCase to snake_case
// Handles acronyms properly (HTTPRequest -> http_request)
func ToSnakeCase(s string) string {
	return toDelimited(s, '_')
}

// ToKebabCase converts CamelCase, snake_case and space separated words to
// lower-case words joined by dashes (XLIFFUpload -> xliff-upload). Runes
// other than ASCII letters and digits act as word separators.
func ToKebabCase(s string) string {
	return toDelimited(s, '-')
}

func toDelimited(s string, delim rune) string {
	var result strings.Builder
	runes := []rune(s)
	pending := false

	for i, r := range runes {
		if !isWordRune(r) {
			pending = result.Len() > 0
			continue
		}

		if unicode.IsUpper(r) && i > 0 && result.Len() > 0 {
			prev := runes[i-1]
			// boundary before an upper-case letter that follows a lower-case
			// letter or digit, or that starts a word after an acronym
			if unicode.IsLower(prev) || unicode.IsDigit(prev) ||
				(unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])) {
				pending = true
			}
		}

		if pending {
			result.WriteRune(delim)
			pending = false
		}
		result.WriteRune(unicode.ToLower(r))
	}
	return result.String()
}

func isWordRune(r rune) bool {
	return r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
}
