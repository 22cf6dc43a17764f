package core

import (
	"context"

	"github.com/google/uuid"
)

type ID string

func NewID() ID {
	return ID(uuid.New().String())
}

func (id ID) String() string {
	return string(id)
}

type requestIDKey struct{}

func WithRequestID(ctx context.Context, id ID) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id attached to ctx, or "" when none is set.
func RequestID(ctx context.Context) ID {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(ID)
	return id
}
