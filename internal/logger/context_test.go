package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		id   string
	}{
		{name: "nil context", ctx: nil, id: "req-1"},
		{name: "background", ctx: context.Background(), id: "req-2"},
		{name: "empty id", ctx: context.Background(), id: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithRequestID(tt.ctx, tt.id)
			assert.Equal(t, tt.id, RequestIDFromContext(ctx))
		})
	}
}

func TestWithContextAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)

	ctx := ContextWithRequestID(context.Background(), "abc")
	lg := WithContext(ctx, l)
	lg.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "abc", entry["request_id"])
}

func TestWithContextWithoutID(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)

	lg := WithContext(context.Background(), l)
	lg.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	_, ok := entry["request_id"]
	assert.False(t, ok)
}
