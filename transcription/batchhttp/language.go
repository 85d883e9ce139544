package batchhttp

import (
	"strings"

	"golang.org/x/text/language"
)

// fallbackLanguage is used when a tag has no usable primary subtag.
const fallbackLanguage = "de"

var languageCodes = map[string]string{
	"de-de": "de",
	"de-at": "de",
	"de-ch": "de",
	"en-us": "en",
	"en-gb": "en",
	"fr-fr": "fr",
	"es-es": "es",
	"it-it": "it",
	"nl-nl": "nl",
}

// LanguageCode maps an IETF tag such as "de-DE" to the engine's short code.
// Unknown tags fall back to their primary subtag, then to "de".
func LanguageCode(tag string) string {
	tag = strings.TrimSpace(tag)
	if code, ok := languageCodes[strings.ToLower(strings.ReplaceAll(tag, "_", "-"))]; ok {
		return code
	}
	if t, err := language.Parse(tag); err == nil {
		if base, conf := t.Base(); conf != language.No {
			return base.String()
		}
	}

	parts := strings.FieldsFunc(tag, func(r rune) bool { return r == '-' || r == '_' })
	if len(parts) > 0 && isAlpha(parts[0]) && len(parts[0]) >= 2 && len(parts[0]) <= 3 {
		return strings.ToLower(parts[0])
	}
	return fallbackLanguage
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
