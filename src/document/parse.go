package document

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

var ErrInvalidDocument = errors.New("invalid document")

// Parse decodes text into a Value. Object member order is preserved and a
// repeated key keeps its first position but takes the last value.
func Parse(text string) (Value, error) {
	data := []byte(text)
	// The token stream does not check separators, so validate up front.
	if !json.Valid(data) {
		return Value{}, fmt.Errorf("%w: not well-formed JSON", ErrInvalidDocument)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	return decodeValue(dec)
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return Value{}, fmt.Errorf("%w: unexpected %q", ErrInvalidDocument, t.String())
	case string:
		return StringValue(t), nil
	case json.Number:
		// the decoder hands out a view of its own buffer
		return NumberValue(strings.Clone(string(t))), nil
	case bool:
		return BoolValue(t), nil
	case nil:
		return NullValue(), nil
	}

	return Value{}, fmt.Errorf("%w: unexpected token %v", ErrInvalidDocument, tok)
}

func decodeObject(dec *json.Decoder) (Value, error) {
	members := []Member{}
	positions := make(map[string]int)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, fmt.Errorf("%w: object key must be a string", ErrInvalidDocument)
		}

		value, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}

		if pos, seen := positions[key]; seen {
			members[pos].Value = value
			continue
		}
		positions[key] = len(members)
		members = append(members, Member{Key: key, Value: value})
	}

	if err := expectDelim(dec, '}'); err != nil {
		return Value{}, err
	}
	return ObjectValue(members...), nil
}

func decodeArray(dec *json.Decoder) (Value, error) {
	items := []Value{}
	for dec.More() {
		item, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		items = append(items, item)
	}

	if err := expectDelim(dec, ']'); err != nil {
		return Value{}, err
	}
	return ArrayValue(items...), nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q", ErrInvalidDocument, want.String())
	}
	return nil
}
