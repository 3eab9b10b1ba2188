package registry

import "strings"

// Built-in language tags. Hosts extend the set through Config.Languages.
const (
	LanguageCSharp      = "csharp"
	LanguageVisualBasic = "visualbasic"
	LanguageFSharp      = "fsharp"
)

// defaultLanguages returns the built-in recognized set.
func defaultLanguages() map[string]struct{} {
	return map[string]struct{}{
		LanguageCSharp:      {},
		LanguageVisualBasic: {},
		LanguageFSharp:      {},
	}
}

// normalizeLanguage canonicalizes a tag for lookup.
func normalizeLanguage(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
