package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeepsMemberOrder(t *testing.T) {
	v, err := Parse(`{"b":1,"a":{"z":true,"y":null},"c":[1,"x"]}`)
	require.NoError(t, err)
	require.Equal(t, Object, v.Kind())

	var keys []string
	for _, m := range v.Members() {
		keys = append(keys, m.Key)
	}
	assert.Equal(t, []string{"b", "a", "c"}, keys)

	nested, ok := v.Get("a")
	require.True(t, ok)
	assert.Equal(t, "z", nested.Members()[0].Key)
	assert.Equal(t, 2, nested.Len())
}

func TestParseRepeatedKeyTakesLastValue(t *testing.T) {
	v, err := Parse(`{"a":1,"b":2,"a":3}`)
	require.NoError(t, err)

	assert.Equal(t, 2, v.Len())
	a, ok := v.Get("a")
	require.True(t, ok)
	lit, _ := a.Literal()
	assert.Equal(t, "3", lit)
	assert.Equal(t, "a", v.Members()[0].Key)
}

func TestParseRejectsMalformedText(t *testing.T) {
	for _, text := range []string{``, `{`, `{"a" 1}`, `{"a":1,,}`, `[1 2]`, `{'a':1}`} {
		_, err := Parse(text)
		assert.ErrorIs(t, err, ErrInvalidDocument, "input %q", text)
	}
}

func TestParseScalars(t *testing.T) {
	v, err := Parse(`-12.50`)
	require.NoError(t, err)
	lit, ok := v.Literal()
	require.True(t, ok)
	assert.Equal(t, "-12.50", lit)

	f, ok := v.Float()
	require.True(t, ok)
	assert.InDelta(t, -12.5, f, 1e-9)

	v, err = Parse(`"café"`)
	require.NoError(t, err)
	s, ok := v.Text()
	require.True(t, ok)
	assert.Equal(t, "café", s)
}

func TestFloatTreatsBoolAsInteger(t *testing.T) {
	f, ok := BoolValue(true).Float()
	require.True(t, ok)
	assert.Equal(t, 1.0, f)

	_, ok = StringValue("1").Float()
	assert.False(t, ok)
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"string is raw", `"Smith"`, "Smith"},
		{"number keeps literal", `7.50`, "7.50"},
		{"bool", `false`, "false"},
		{"null", `null`, "null"},
		{"object", `{"family":"Smith","given":["A","B"]}`, `{"family": "Smith", "given": "A", "B"}`},
		{"array loses brackets", `[1,[2,3]]`, "1, 2, 3"},
		{"single quote becomes double", `"O'Brien"`, `O"Brien`},
		{"empty object", `{}`, "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parse(tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Render(v))
		})
	}
}

func TestResolve(t *testing.T) {
	doc := `{"name":{"family":"Smith","given":"Ann"},"age":42,"tags":["a","b"]}`

	got, ok := Resolve(doc, "age")
	require.True(t, ok)
	assert.Equal(t, "42", got)

	got, ok = Resolve(doc, "tags")
	require.True(t, ok)
	assert.Equal(t, `"a", "b"`, got)

	_, ok = Resolve(doc, "missing")
	assert.False(t, ok)

	_, ok = Resolve(`not json`, "age")
	assert.False(t, ok)

	_, ok = Resolve(`[1,2]`, "age")
	assert.False(t, ok)
}

func TestChainFollowsRenderedSegments(t *testing.T) {
	doc := `{"name":{"family":"Smith","period":{"start":1990}},"list":[{"a":1}]}`

	got, ok := ResolveSegment(doc, "name", "family")
	require.True(t, ok)
	assert.Equal(t, "Smith", got)

	got, ok = Resolve2Segments(doc, "name", "period", "start")
	require.True(t, ok)
	assert.Equal(t, "1990", got)

	// a bare string cannot be descended into
	_, ok = Resolve2Segments(doc, "name", "family", "start")
	assert.False(t, ok)

	// arrays lose their brackets when rendered, which breaks the chain
	_, ok = ResolveSegment(doc, "list", "a")
	assert.False(t, ok)

	_, ok = ResolveSegment(doc, "nope", "family")
	assert.False(t, ok)
}

func TestPath(t *testing.T) {
	p := ParsePath("name.period.start")
	assert.Equal(t, []string{"name", "period"}, p.Segments())
	assert.Equal(t, "start", p.Attribute())
	assert.Equal(t, "name.period.start", p.String())
	assert.Nil(t, ParsePath(""))

	v, err := Parse(`{"name":{"period":{"start":1990}}}`)
	require.NoError(t, err)
	start, ok := v.Lookup(p)
	require.True(t, ok)
	assert.Equal(t, "1990", start.String())

	_, ok = v.Lookup(Path{"name", "end"})
	assert.False(t, ok)

	got, ok := ResolvePath(`{"name":{"period":{"start":1990}}}`, p)
	require.True(t, ok)
	assert.Equal(t, "1990", got)

	_, ok = ResolvePath(`{}`, nil)
	assert.False(t, ok)
}
