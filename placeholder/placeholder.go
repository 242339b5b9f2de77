// Package placeholder protects template placeholders across AI
// translation calls and checks their consistency afterwards.
//
// Placeholders are replaced with opaque __PLACEHOLDER_N__ tokens before
// the text is handed to a language model, then restored in the
// response. Supported styles cover the template engines found in the
// translated projects: {name}, %{name}, <% name %>, ${name}, %(name)s,
// %s/%d/%f/%i, and {{name}}.
package placeholder

import (
	"fmt"
	"regexp"
	"strings"
)

// Placeholder is one protected placeholder occurrence.
type Placeholder struct {
	// Original is the placeholder text as found in the source.
	Original string
	// Style names the template syntax the placeholder belongs to.
	Style string
	// Token is the substitute inserted in place of Original.
	Token string
}

type pattern struct {
	re    *regexp.Regexp
	style string
}

// Pattern order matters: composite styles must match before the plain
// brace style, so {{name}} is not split into two {name} fragments.
var patterns = []pattern{
	{regexp.MustCompile(`\{\{[^}]+\}\}`), "handlebars"},
	{regexp.MustCompile(`%\{[^}]+\}`), "ruby"},
	{regexp.MustCompile(`\$\{[^}]+\}`), "shell"},
	{regexp.MustCompile(`\{[^}]+\}`), "json"},
	{regexp.MustCompile(`<%[^%>]+%>`), "mako"},
	{regexp.MustCompile(`%\([^)]+\)s`), "python"},
	{regexp.MustCompile(`%[sdfi]`), "c-style"},
}

// Escape replaces all placeholders in text with tokens. The returned
// slice preserves discovery order; Restore consumes it to rebuild the
// original placeholders.
func Escape(text string) (string, []Placeholder) {
	var found []Placeholder
	escaped := text
	for _, p := range patterns {
		for {
			loc := p.re.FindStringIndex(escaped)
			if loc == nil {
				break
			}
			original := escaped[loc[0]:loc[1]]
			token := fmt.Sprintf("__PLACEHOLDER_%d__", len(found))
			found = append(found, Placeholder{Original: original, Style: p.style, Token: token})
			escaped = escaped[:loc[0]] + token + escaped[loc[1]:]
		}
	}
	return escaped, found
}

// Restore substitutes original placeholders back into translated text.
func Restore(text string, placeholders []Placeholder) string {
	restored := text
	for _, p := range placeholders {
		restored = strings.Replace(restored, p.Token, p.Original, 1)
	}
	return restored
}

// Lost reports the placeholders missing from a translated text.
func Lost(translated string, placeholders []Placeholder) []Placeholder {
	var lost []Placeholder
	for _, p := range placeholders {
		if !strings.Contains(translated, p.Original) {
			lost = append(lost, p)
		}
	}
	return lost
}

// Extract returns the multiset of placeholders in a text, counted per
// occurrence. Used by validation to compare source against translation.
func Extract(text string) map[string]int {
	counts := make(map[string]int)
	remaining := text
	for _, p := range patterns {
		matches := p.re.FindAllString(remaining, -1)
		for _, m := range matches {
			counts[m]++
		}
		remaining = p.re.ReplaceAllString(remaining, "")
	}
	return counts
}

// Diff compares the placeholders of a source and its translation.
// Missing holds placeholders present in the source but absent (or less
// frequent) in the translation; extra holds the reverse.
func Diff(source, translation string) (missing, extra []string) {
	src := Extract(source)
	dst := Extract(translation)
	for ph, n := range src {
		if dst[ph] < n {
			missing = append(missing, ph)
		}
	}
	for ph, n := range dst {
		if src[ph] < n {
			extra = append(extra, ph)
		}
	}
	return missing, extra
}
