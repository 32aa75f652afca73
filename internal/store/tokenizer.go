package store

import (
	"regexp"
	"strings"
	"unicode"
)

// identRegex matches identifier-like runs; underscores survive the
// first pass so snake_case can be split explicitly.
var identRegex = regexp.MustCompile(`[a-zA-Z0-9_]+`)

// TokenizeCode splits text into lowercased search tokens with
// code-aware rules for camelCase, PascalCase, and snake_case.
// Tokens shorter than two characters are dropped.
func TokenizeCode(text string) []string {
	var tokens []string
	for _, word := range identRegex.FindAllString(text, -1) {
		for _, part := range SplitCodeToken(word) {
			part = strings.ToLower(part)
			if len(part) >= 2 {
				tokens = append(tokens, part)
			}
		}
	}
	return tokens
}

// SplitCodeToken splits an identifier on underscores, then on case
// boundaries within each piece.
func SplitCodeToken(token string) []string {
	if !strings.Contains(token, "_") {
		return SplitCamelCase(token)
	}
	var result []string
	for _, part := range strings.Split(token, "_") {
		if part != "" {
			result = append(result, SplitCamelCase(part)...)
		}
	}
	return result
}

// SplitCamelCase splits on lower-to-upper transitions and at the end
// of acronym runs, so "getUserById" gives [get User By Id] and
// "HTTPHandler" gives [HTTP Handler].
func SplitCamelCase(s string) []string {
	runes := []rune(s)
	if len(runes) == 0 {
		return []string{}
	}

	var result []string
	start := 0
	for i := 1; i < len(runes); i++ {
		if !unicode.IsUpper(runes[i]) {
			continue
		}
		atWordStart := unicode.IsLower(runes[i-1]) ||
			(i+1 < len(runes) && unicode.IsLower(runes[i+1]))
		if atWordStart && i > start {
			result = append(result, string(runes[start:i]))
			start = i
		}
	}
	return append(result, string(runes[start:]))
}

// BuildStopWordMap lowercases stop words into a lookup set.
func BuildStopWordMap(stopWords []string) map[string]struct{} {
	m := make(map[string]struct{}, len(stopWords))
	for _, word := range stopWords {
		m[strings.ToLower(word)] = struct{}{}
	}
	return m
}
