package engine

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"

	"resourcedb/src/document"
	"resourcedb/src/helpers"
)

// Operator is a comparison operator of a where clause.
type Operator string

const (
	OpEqual          Operator = "="
	OpNotEqual       Operator = "!="
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
)

// ParseOperator accepts the six comparison operators.
func ParseOperator(s string) (Operator, error) {
	switch op := Operator(s); op {
	case OpEqual, OpNotEqual, OpGreater, OpGreaterOrEqual, OpLess, OpLessOrEqual:
		return op, nil
	}
	return "", fmt.Errorf("%w: unknown operator %q", ErrMalformedQuery, s)
}

// operand is the right hand side of a comparison after coercion.
type operand struct {
	text    string
	number  float64
	numeric bool
}

// coerce turns value into a number when the attribute is not a string and
// value is made of decimal digits only. Anything else compares as text.
func coerce(x document.Value, value string) operand {
	if x.Kind() != document.String && helpers.IsDigits(value) {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return operand{number: f, numeric: true}
		}
	}
	return operand{text: value}
}

// compare orders x against y. ok is false when the pair has no ordering,
// such as a number against text or a null against anything.
func compare(x document.Value, y operand) (c int, ok bool) {
	if y.numeric {
		f, ok := x.Float()
		if !ok {
			return 0, false
		}
		return cmp.Compare(f, y.number), true
	}

	s, ok := x.Text()
	if !ok {
		return 0, false
	}
	return strings.Compare(s, y.text), true
}

// evaluate applies op. Values without an ordering are never equal; ordering
// them yields no result at all. Operators outside the explicit cases
// evaluate as <=.
func evaluate(x document.Value, op Operator, y operand) (result bool, ok bool) {
	c, comparable := compare(x, y)

	switch op {
	case OpEqual:
		return comparable && c == 0, true
	case OpNotEqual:
		return !comparable || c != 0, true
	}

	if !comparable {
		return false, false
	}

	switch op {
	case OpGreater:
		return c > 0, true
	case OpGreaterOrEqual:
		return c >= 0, true
	case OpLess:
		return c < 0, true
	default:
		return c <= 0, true
	}
}

// TestAttributeValue compares the top-level attribute of doc with value.
// ok is false when doc does not parse, the attribute is missing, or the
// comparison has no meaning for the attribute's type.
func TestAttributeValue(doc, attribute string, op Operator, value string) (result bool, ok bool) {
	x, found := document.Lookup(doc, attribute)
	if !found {
		return false, false
	}
	return evaluate(x, op, coerce(x, value))
}

// TestAttributeRange reports whether low <= attribute <= high. Only numbers
// (and booleans, as 0 and 1) have a place in a range.
func TestAttributeRange(doc, attribute string, low, high float64) (result bool, ok bool) {
	x, found := document.Lookup(doc, attribute)
	if !found {
		return false, false
	}

	f, numeric := x.Float()
	if !numeric {
		return false, false
	}
	return low <= f && f <= high, true
}

func TestSegmentAttributeValue(doc, segment, attribute string, op Operator, value string) (bool, bool) {
	return ValueFilter{Segments: []string{segment}, Attribute: attribute, Operator: op, Value: value}.Match(doc)
}

func Test2SegmentsAttributeValue(doc, segment1, segment2, attribute string, op Operator, value string) (bool, bool) {
	return ValueFilter{Segments: []string{segment1, segment2}, Attribute: attribute, Operator: op, Value: value}.Match(doc)
}

func TestSegmentAttributeRange(doc, segment, attribute string, low, high float64) (bool, bool) {
	return RangeFilter{Segments: []string{segment}, Attribute: attribute, Low: low, High: high}.Match(doc)
}

func Test2SegmentsAttributeRange(doc, segment1, segment2, attribute string, low, high float64) (bool, bool) {
	return RangeFilter{Segments: []string{segment1, segment2}, Attribute: attribute, Low: low, High: high}.Match(doc)
}

// Filter decides whether a document belongs in a result set. ok is false
// when the document has no value for the filter's path.
type Filter interface {
	Match(doc string) (result bool, ok bool)
}

// ValueFilter compares the attribute reached through Segments with Value.
type ValueFilter struct {
	Segments  []string
	Attribute string
	Operator  Operator
	Value     string
}

func NewValueFilter(path document.Path, op Operator, value string) ValueFilter {
	return ValueFilter{Segments: path.Segments(), Attribute: path.Attribute(), Operator: op, Value: value}
}

func (f ValueFilter) Match(doc string) (bool, bool) {
	part, ok := document.Chain(doc, f.Segments...)
	if !ok {
		return false, false
	}
	return TestAttributeValue(part, f.Attribute, f.Operator, f.Value)
}

// RangeFilter is an inclusive numeric range on the attribute reached
// through Segments.
type RangeFilter struct {
	Segments  []string
	Attribute string
	Low       float64
	High      float64
}

func NewRangeFilter(path document.Path, low, high float64) RangeFilter {
	return RangeFilter{Segments: path.Segments(), Attribute: path.Attribute(), Low: low, High: high}
}

func (f RangeFilter) Match(doc string) (bool, bool) {
	part, ok := document.Chain(doc, f.Segments...)
	if !ok {
		return false, false
	}
	return TestAttributeRange(part, f.Attribute, f.Low, f.High)
}

// Scan returns the resources matching f in collection order. Resources
// without a value for the filter are skipped. With distinct set the scan
// stops at the first match.
func (c *Collection) Scan(f Filter, distinct bool) []*Resource {
	var matches []*Resource
	for _, r := range c.Resources {
		if matched, ok := f.Match(r.Data); ok && matched {
			matches = append(matches, r)
			if distinct {
				break
			}
		}
	}
	return matches
}

func (c *Collection) GetResourcesByAttributeValue(attribute string, op Operator, value string, distinct bool) []*Resource {
	return c.Scan(ValueFilter{Attribute: attribute, Operator: op, Value: value}, distinct)
}

func (c *Collection) GetResourcesByAttributeRange(attribute string, low, high float64, distinct bool) []*Resource {
	return c.Scan(RangeFilter{Attribute: attribute, Low: low, High: high}, distinct)
}

func (c *Collection) GetResourcesBySegmentAttributeValue(segment, attribute string, op Operator, value string, distinct bool) []*Resource {
	return c.Scan(ValueFilter{Segments: []string{segment}, Attribute: attribute, Operator: op, Value: value}, distinct)
}

func (c *Collection) GetResourcesBySegmentAttributeRange(segment, attribute string, low, high float64, distinct bool) []*Resource {
	return c.Scan(RangeFilter{Segments: []string{segment}, Attribute: attribute, Low: low, High: high}, distinct)
}

func (c *Collection) GetResourcesBy2SegmentsAttributeValue(segment1, segment2, attribute string, op Operator, value string, distinct bool) []*Resource {
	return c.Scan(ValueFilter{Segments: []string{segment1, segment2}, Attribute: attribute, Operator: op, Value: value}, distinct)
}

func (c *Collection) GetResourcesBy2SegmentsAttributeRange(segment1, segment2, attribute string, low, high float64, distinct bool) []*Resource {
	return c.Scan(RangeFilter{Segments: []string{segment1, segment2}, Attribute: attribute, Low: low, High: high}, distinct)
}
