package document

import (
	"strings"

	json "github.com/goccy/go-json"
)

// displayReplacer turns single quotes into double quotes and drops every
// square bracket, so an array renders as its bare comma separated items.
var displayReplacer = strings.NewReplacer("'", `"`, "[", "", "]", "")

// Render produces the display text of v. Strings render raw, numbers
// keep their literal, and containers render as JSON using ", " and ": "
// separators before the display replacements are applied.
func Render(v Value) string {
	if s, ok := v.Text(); ok {
		return displayReplacer.Replace(s)
	}

	var b strings.Builder
	writeValue(&b, v)
	return displayReplacer.Replace(b.String())
}

func writeValue(b *strings.Builder, v Value) {
	switch v.kind {
	case Null:
		b.WriteString("null")
	case Bool:
		if v.boolean {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case Number:
		b.WriteString(v.text)
	case String:
		b.WriteString(quote(v.text))
	case Array:
		b.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(b, item)
		}
		b.WriteByte(']')
	case Object:
		b.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(quote(m.Key))
			b.WriteString(": ")
			writeValue(b, m.Value)
		}
		b.WriteByte('}')
	}
}

func quote(s string) string {
	out, err := json.MarshalNoEscape(s)
	if err != nil {
		return `"` + s + `"`
	}
	return string(out)
}
