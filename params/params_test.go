package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentruntime/core"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"42", 42},
		{"-7", -7},
		{"3.14", 3.14},
		{"true", true},
		{"FALSE", false},
		{"", nil},
		{"null", nil},
		{"abc", "abc"},
		{"1.2.3", "1.2.3"},
		{"99999999999999999999999", "99999999999999999999999"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Coerce(tt.in))
		})
	}
}

func TestExtractMarkup(t *testing.T) {
	got := Extract(core.MarkupParams("<params><MOVE><direction>north</direction></MOVE></params>"))
	assert.Equal(t, Extracted{"MOVE": {{"direction": "north"}}}, got)
}

func TestExtractMarkupCoercesAndTrims(t *testing.T) {
	got := Extract(core.MarkupParams(`<params>
  <count_items>
    <count> 3 </count>
    <strict>true</strict>
    <label></label>
  </count_items>
</params>`))

	assert.Equal(t, Extracted{"COUNT_ITEMS": {{"count": 3, "strict": true, "label": nil}}}, got)
}

func TestExtractMarkupEmbeddedInText(t *testing.T) {
	raw := "I will move now.\n<params><MOVE><direction>east</direction></MOVE></params>\nDone."
	got := Extract(core.MarkupParams(raw))
	assert.Equal(t, Extracted{"MOVE": {{"direction": "east"}}}, got)
}

func TestExtractMarkupWithoutRoot(t *testing.T) {
	got := Extract(core.MarkupParams("<MOVE><direction>south</direction></MOVE><LOOK><target>door</target></LOOK>"))
	assert.Equal(t, Extracted{
		"MOVE": {{"direction": "south"}},
		"LOOK": {{"target": "door"}},
	}, got)
}

func TestExtractMarkupRepeatedActions(t *testing.T) {
	got := Extract(core.MarkupParams("<params><WRITE_FILE><path>a</path></WRITE_FILE><WRITE_FILE><path>b</path></WRITE_FILE></params>"))

	first, ok := got.Block("WRITE_FILE", 0)
	require.True(t, ok)
	second, ok := got.Block("write_file", 1)
	require.True(t, ok)
	_, ok = got.Block("WRITE_FILE", 2)
	assert.False(t, ok)

	assert.Equal(t, "a", first["path"])
	assert.Equal(t, "b", second["path"])
}

func TestExtractMarkupRepeatedParamsBecomeList(t *testing.T) {
	got := Extract(core.MarkupParams("<params><TAG><tag>x</tag><tag>y</tag><tag>1</tag></TAG></params>"))
	assert.Equal(t, []any{"x", "y", 1}, got["TAG"][0]["tag"])
}

func TestExtractMarkupUnparseable(t *testing.T) {
	assert.Empty(t, Extract(core.MarkupParams("<params><MOVE><direction>north")))
	assert.Empty(t, Extract(core.MarkupParams("")))
	assert.Empty(t, Extract(core.MarkupParams("just text")))
	assert.Empty(t, Extract(nil))
}

func TestExtractStructured(t *testing.T) {
	got := Extract(core.StructuredParams{
		"write_file": []any{
			map[string]any{"path": "a", "size": "10"},
			map[string]any{"path": "b", "size": 20.0},
		},
		"MOVE":    map[string]any{"direction": "north", "fast": "true"},
		"ignored": "not a block",
	})

	require.Len(t, got["WRITE_FILE"], 2)
	assert.Equal(t, map[string]any{"path": "a", "size": 10}, got["WRITE_FILE"][0])
	assert.Equal(t, map[string]any{"path": "b", "size": 20.0}, got["WRITE_FILE"][1])
	assert.Equal(t, map[string]any{"direction": "north", "fast": true}, got["MOVE"][0])
	assert.NotContains(t, got, "IGNORED")
}

func TestParseParams(t *testing.T) {
	assert.Nil(t, ParseParams("  "))

	p := ParseParams(`{"MOVE": {"direction": "west"}}`)
	require.IsType(t, core.StructuredParams{}, p)
	assert.Equal(t, Extracted{"MOVE": {{"direction": "west"}}}, Extract(p))

	p = ParseParams("<MOVE><direction>up</direction></MOVE>")
	assert.Equal(t, core.MarkupParams("<MOVE><direction>up</direction></MOVE>"), p)
}

func TestValidateNoSchema(t *testing.T) {
	res := Validate(nil, map[string]any{"x": 1})
	assert.True(t, res.Valid)
	assert.Nil(t, res.Params)
	assert.Empty(t, res.Errors)
}

func TestValidateRequiredMissing(t *testing.T) {
	schema := []core.ParameterSchema{{Name: "count", Type: core.ParamNumber, Required: true}}

	res := Validate(schema, nil)
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "count", res.Errors[0].Field)
	assert.NotEmpty(t, res.Messages())

	res = Validate(schema, map[string]any{"count": nil})
	assert.False(t, res.Valid)
}

func TestValidateDefaultsAndCaseInsensitiveLookup(t *testing.T) {
	schema := []core.ParameterSchema{
		{Name: "direction", Type: core.ParamString, Required: true},
		{Name: "steps", Type: core.ParamNumber, Default: 1},
	}

	res := Validate(schema, map[string]any{"Direction": "north"})
	require.True(t, res.Valid)
	assert.Equal(t, map[string]any{"direction": "north", "steps": 1}, res.Params)
}

func TestValidateStringCoercesScalarsBack(t *testing.T) {
	schema := []core.ParameterSchema{
		{Name: "code", Type: core.ParamString},
		{Name: "flag", Type: core.ParamString},
		{Name: "ratio", Type: core.ParamString},
	}

	res := Validate(schema, map[string]any{"code": 42, "flag": true, "ratio": 0.5})
	require.True(t, res.Valid)
	assert.Equal(t, map[string]any{"code": "42", "flag": "true", "ratio": "0.5"}, res.Params)
}

func TestValidateStringEnumAndPattern(t *testing.T) {
	schema := []core.ParameterSchema{
		{Name: "direction", Type: core.ParamString, Enum: []string{"north", "south"}},
		{Name: "id", Type: core.ParamString, Pattern: `^[a-z]+-\d+$`},
	}

	res := Validate(schema, map[string]any{"direction": "west", "id": "task-7"})
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "direction", res.Errors[0].Field)
	// partial params survive a failed validation
	assert.Equal(t, map[string]any{"id": "task-7"}, res.Params)

	res = Validate(schema, map[string]any{"direction": "north", "id": "TASK"})
	assert.False(t, res.Valid)
	assert.Equal(t, "id", res.Errors[0].Field)

	res = Validate([]core.ParameterSchema{{Name: "x", Type: core.ParamString}}, map[string]any{"x": []any{"a"}})
	assert.False(t, res.Valid)
}

func TestValidateNumber(t *testing.T) {
	schema := []core.ParameterSchema{{Name: "count", Type: core.ParamNumber, Minimum: core.Float(1), Maximum: core.Float(10)}}

	assert.True(t, Validate(schema, map[string]any{"count": 5}).Valid)
	assert.True(t, Validate(schema, map[string]any{"count": 2.5}).Valid)
	assert.False(t, Validate(schema, map[string]any{"count": 0}).Valid)
	assert.False(t, Validate(schema, map[string]any{"count": 11}).Valid)
	assert.False(t, Validate(schema, map[string]any{"count": true}).Valid)
	assert.False(t, Validate(schema, map[string]any{"count": "five"}).Valid)
}

func TestValidateExactTypes(t *testing.T) {
	schema := []core.ParameterSchema{
		{Name: "enabled", Type: core.ParamBoolean},
		{Name: "items", Type: core.ParamArray},
		{Name: "meta", Type: core.ParamObject},
	}

	res := Validate(schema, map[string]any{
		"enabled": true,
		"items":   []string{"a"},
		"meta":    map[string]any{"k": "v"},
	})
	assert.True(t, res.Valid)

	res = Validate(schema, map[string]any{
		"enabled": "true",
		"items":   "a,b",
		"meta":    "k=v",
	})
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 3)
	assert.Empty(t, res.Params)
}

func TestField(t *testing.T) {
	raw := "Sure.\n<response>\n  <thought>greet back</thought>\n  <actions>REPLY</actions>\n  <text>Hello there</text>\n</response>"

	assert.Equal(t, "greet back", Field(raw, "thought"))
	assert.Equal(t, "Hello there", Field(raw, "text"))
	assert.Equal(t, "", Field(raw, "providers"))
	assert.Equal(t, "", Field("no markup at all", "text"))
}
