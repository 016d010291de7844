package document

import "strings"

// Path is an attribute path, one object key per element.
type Path []string

// ParsePath splits a dotted attribute path such as "name.family".
func ParsePath(s string) Path {
	if s == "" {
		return nil
	}
	return Path(strings.Split(s, "."))
}

func (p Path) String() string {
	return strings.Join(p, ".")
}

// Segments is every element but the last.
func (p Path) Segments() []string {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}

// Attribute is the last element.
func (p Path) Attribute() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Lookup parses doc and returns the top-level member named attribute.
// Absent when doc does not parse, is not an object, or lacks the key.
func Lookup(doc, attribute string) (Value, bool) {
	v, err := Parse(doc)
	if err != nil {
		return Value{}, false
	}
	return v.Get(attribute)
}

// Resolve returns the display text of attribute in doc.
func Resolve(doc, attribute string) (string, bool) {
	v, ok := Lookup(doc, attribute)
	if !ok {
		return "", false
	}
	return Render(v), true
}

// Chain follows segments one hop at a time, re-reading the display text of
// each hop as the next document. Any broken hop makes the result absent.
func Chain(doc string, segments ...string) (string, bool) {
	current := doc
	for _, segment := range segments {
		next, ok := Resolve(current, segment)
		if !ok {
			return "", false
		}
		current = next
	}
	return current, true
}

func ResolveSegment(doc, segment, attribute string) (string, bool) {
	return Chain(doc, segment, attribute)
}

func Resolve2Segments(doc, segment1, segment2, attribute string) (string, bool) {
	return Chain(doc, segment1, segment2, attribute)
}

// ResolvePath resolves p through Chain.
func ResolvePath(doc string, p Path) (string, bool) {
	if len(p) == 0 {
		return "", false
	}
	return Chain(doc, p...)
}
