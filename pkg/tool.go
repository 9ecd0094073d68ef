package pkg

import "strings"

// Contains check source have target
func Contains[T comparable](slice []T, val T) bool {
	for _, v := range slice {
		if v == val {
			return true
		}
	}
	return false
}

// NormalizeLanguage lower-case and trim a language code ("  FR " -> "fr")
func NormalizeLanguage(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}

// NormalizeLanguages normalize and de-duplicate, keeping order
func NormalizeLanguages(langs []string) []string {
	out := make([]string, 0, len(langs))
	for _, l := range langs {
		l = NormalizeLanguage(l)
		if l == "" || Contains(out, l) {
			continue
		}
		out = append(out, l)
	}
	return out
}
