package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Target struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type sampleArgs struct {
	Target
	Title   string   `json:"title"             jsonschema:"description=What to call it"`
	Count   int      `json:"count,omitempty"   jsonschema:"minimum=0"`
	Kind    string   `json:"kind,omitempty"    jsonschema:"enum=a,enum=b"`
	Labels  []string `json:"labels,omitempty"`
	Flagged *bool    `json:"flagged,omitempty"`
}

func TestFromType(t *testing.T) {
	t.Run("Should reflect properties and required fields", func(t *testing.T) {
		s, err := FromType(&sampleArgs{})
		require.NoError(t, err)
		assert.Equal(t, "object", s["type"])
		assert.Equal(t, []any{"title"}, s["required"])
		assert.Equal(t, false, s["additionalProperties"])
		props, ok := s["properties"].(map[string]any)
		require.True(t, ok)
		for _, key := range []string{"id", "name", "title", "count", "kind", "labels", "flagged"} {
			assert.Contains(t, props, key)
		}
		assert.NotContains(t, s, "$schema")
		assert.NotContains(t, s, "$ref")
	})
}

func TestSchema_Validate(t *testing.T) {
	s := MustFromType(&sampleArgs{})

	t.Run("Should accept valid arguments", func(t *testing.T) {
		res, err := s.Validate(t.Context(), map[string]any{"title": "x", "count": float64(2), "kind": "a"})
		require.NoError(t, err)
		assert.True(t, res.Valid)
	})

	t.Run("Should list problems for invalid arguments", func(t *testing.T) {
		_, err := s.Validate(t.Context(), map[string]any{"count": float64(-1), "kind": "c"})
		require.Error(t, err)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.NotEmpty(t, verr.Problems)
		assert.Contains(t, err.Error(), "schema validation failed")
	})

	t.Run("Should reject unknown properties", func(t *testing.T) {
		_, err := s.Validate(t.Context(), map[string]any{"title": "x", "colour": "red"})
		require.Error(t, err)
	})

	t.Run("Should reuse compiled schemas", func(t *testing.T) {
		first, err := s.Compile(t.Context())
		require.NoError(t, err)
		second, err := s.Compile(t.Context())
		require.NoError(t, err)
		assert.Same(t, first, second)
	})

	t.Run("Should skip validation for a nil schema", func(t *testing.T) {
		var empty *Schema
		res, err := empty.Validate(t.Context(), map[string]any{})
		assert.NoError(t, err)
		assert.Nil(t, res)
	})
}

func TestDecode(t *testing.T) {
	t.Run("Should decode into embedded and pointer fields", func(t *testing.T) {
		var out sampleArgs
		err := Decode(map[string]any{
			"id":      "abc",
			"title":   "Hello",
			"count":   float64(3),
			"labels":  []any{"x", "y"},
			"flagged": true,
		}, &out)
		require.NoError(t, err)
		assert.Equal(t, "abc", out.ID)
		assert.Equal(t, "Hello", out.Title)
		assert.Equal(t, 3, out.Count)
		assert.Equal(t, []string{"x", "y"}, out.Labels)
		require.NotNil(t, out.Flagged)
		assert.True(t, *out.Flagged)
	})

	t.Run("Should reject unknown keys", func(t *testing.T) {
		var out sampleArgs
		err := Decode(map[string]any{"title": "x", "bogus": 1}, &out)
		require.Error(t, err)
	})
}
