package engine

import "strings"

const minSpacePasses = 4

var canonicalRules = []struct{ old, new string }{
	{" : ", ":"},
	{"{ ", "{"},
	{"} ", "}"},
	{"\" }", "\"}"},
	{"] }", "]}"},
}

// Canonicalize normalises document text before it is stored. The rewrite
// is purely textual: newlines are dropped, runs of spaces are collapsed,
// and the spacing around separators is removed. Applying it twice gives
// the same text as applying it once.
func Canonicalize(text string) string {
	text = strings.ReplaceAll(text, "\n", "")
	text = collapse(text, "  ", " ", minSpacePasses)

	for _, rule := range canonicalRules {
		text = strings.ReplaceAll(text, rule.old, rule.new)
	}

	return collapse(text, ", ", ",", 2)
}

// collapse repeats a replacement at least passes times and then until the
// text stops changing.
func collapse(text, old, new string, passes int) string {
	for i := 0; i < passes || strings.Contains(text, old); i++ {
		text = strings.ReplaceAll(text, old, new)
	}
	return text
}
