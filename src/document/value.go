package document

import "strconv"

// Kind identifies which variant of the Document Model a Value holds.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	}
	return "unknown"
}

// Member is one key/value pair of an Object. Members keep document order.
type Member struct {
	Key   string
	Value Value
}

// Value is a parsed JSON value. Numbers keep their literal text so that
// rendering reproduces them exactly as they were stored.
type Value struct {
	kind    Kind
	boolean bool
	text    string
	items   []Value
	members []Member
}

func NullValue() Value { return Value{kind: Null} }

func BoolValue(b bool) Value { return Value{kind: Bool, boolean: b} }

// NumberValue wraps a JSON number literal such as "42" or "1.5e3".
func NumberValue(literal string) Value { return Value{kind: Number, text: literal} }

func StringValue(s string) Value { return Value{kind: String, text: s} }

func ArrayValue(items ...Value) Value { return Value{kind: Array, items: items} }

func ObjectValue(members ...Member) Value { return Value{kind: Object, members: members} }

func (v Value) Kind() Kind { return v.kind }

// Bool returns the boolean payload; ok is false for any other kind.
func (v Value) Bool() (b bool, ok bool) {
	return v.boolean, v.kind == Bool
}

// Text returns the string payload; ok is false for any other kind.
func (v Value) Text() (string, bool) {
	return v.text, v.kind == String
}

// Literal returns the number literal; ok is false for any other kind.
func (v Value) Literal() (string, bool) {
	return v.text, v.kind == Number
}

// Float returns the numeric value of a Number, or 0/1 for a Bool.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case Number:
		f, err := strconv.ParseFloat(v.text, 64)
		if err != nil && !isRangeError(err) {
			return 0, false
		}
		return f, true
	case Bool:
		if v.boolean {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func isRangeError(err error) bool {
	numErr, ok := err.(*strconv.NumError)
	return ok && numErr.Err == strconv.ErrRange
}

func (v Value) Items() []Value { return v.items }

func (v Value) Members() []Member { return v.members }

// Len is the number of items of an Array or members of an Object.
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.items)
	case Object:
		return len(v.members)
	}
	return 0
}

// Get returns the member stored under key. Absent when v is not an Object.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != Object {
		return Value{}, false
	}
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Lookup descends through nested objects one key per path element.
func (v Value) Lookup(path Path) (Value, bool) {
	current := v
	for _, key := range path {
		next, ok := current.Get(key)
		if !ok {
			return Value{}, false
		}
		current = next
	}
	return current, true
}

// String renders v the way it is displayed in query results.
func (v Value) String() string {
	return Render(v)
}
