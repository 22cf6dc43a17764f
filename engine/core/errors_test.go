package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	t.Run("Should format message with code and unwrap the cause", func(t *testing.T) {
		cause := errors.New("name is required")
		err := InvalidArgument(cause, map[string]any{"field": "name"})
		assert.Equal(t, "InvalidArgument: name is required", err.Error())
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, map[string]any{
			"message": "name is required",
			"code":    CodeInvalidArgument,
			"details": map[string]any{"field": "name"},
		}, err.AsMap())
	})

	t.Run("Should find the code through wrapping", func(t *testing.T) {
		err := fmt.Errorf("create task: %w", ScriptFailed(errors.New("boom"), nil))
		assert.Equal(t, CodeScriptFailed, CodeOf(err))
		assert.Equal(t, "", CodeOf(errors.New("plain")))
	})
}

func TestRequestID(t *testing.T) {
	t.Run("Should round-trip a generated id through context", func(t *testing.T) {
		id := NewID()
		_, err := uuid.Parse(id.String())
		require.NoError(t, err)
		ctx := WithRequestID(t.Context(), id)
		assert.Equal(t, id, RequestID(ctx))
	})

	t.Run("Should return empty when absent", func(t *testing.T) {
		assert.Equal(t, ID(""), RequestID(t.Context()))
	})
}
