package shared

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSetAndGetTraceID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx), "Expected empty trace ID in original context")

	withTrace := SetTraceID(ctx)
	traceID := GetTraceID(withTrace)
	assert.NotEmpty(t, traceID)
	_, err := uuid.Parse(traceID)
	assert.NoError(t, err)

	assert.Empty(t, GetTraceID(ctx), "Expected original context to remain unchanged")
	assert.NotEqual(t, traceID, GetTraceID(SetTraceID(ctx)))
}

func TestGetTraceIDWithInvalidContext(t *testing.T) {
	t.Parallel()
	ctx := context.WithValue(context.Background(), TraceIDKey, 123)
	assert.Empty(t, GetTraceID(ctx), "Expected empty trace ID when context has invalid type")
}

func TestUserIDFromContext(t *testing.T) {
	t.Parallel()
	userID := uuid.New()

	tests := []struct {
		name   string
		ctx    context.Context
		wantID uuid.UUID
		wantOK bool
	}{
		{name: "set", ctx: WithUserID(context.Background(), userID), wantID: userID, wantOK: true},
		{name: "missing", ctx: context.Background(), wantID: uuid.Nil},
		{name: "nil uuid", ctx: WithUserID(context.Background(), uuid.Nil), wantID: uuid.Nil},
		{name: "wrong type", ctx: context.WithValue(context.Background(), UserIDContextKey, userID.String()), wantID: uuid.Nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := UserIDFromContext(tc.ctx)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantID, got)
		})
	}
}
