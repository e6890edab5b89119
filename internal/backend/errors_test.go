package backend

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFieldErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "detail", body: `{"detail":"Authentication required."}`, want: "detail: Authentication required."},
		{name: "field lists", body: `{"b":["second"],"a":["first","again"]}`, want: "a: first again\nb: second"},
		{name: "nested owners", body: `{"owners":[{},{"share_percent":["Invalid."]}]}`, want: "owners[1].share_percent: Invalid."},
		{name: "plain list", body: `["Something went wrong."]`, want: "Something went wrong."},
		{name: "non string", body: `{"code":42}`, want: "code: 42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v any
			require.NoError(t, json.Unmarshal([]byte(tt.body), &v))
			assert.Equal(t, tt.want, FormatFieldErrors(v))
		})
	}
}

func TestAPIErrorIs(t *testing.T) {
	notFound := newAPIError(http.MethodGet, "projects/1/", http.StatusNotFound, nil)
	assert.True(t, errors.Is(notFound, ErrNotFound))

	conflict := newAPIError(http.MethodGet, "projects/1/", http.StatusConflict, []byte("<html>"))
	assert.False(t, errors.Is(conflict, ErrNotFound))
	assert.Nil(t, conflict.Fields)
	assert.Equal(t, "", conflict.Message())
	assert.Contains(t, conflict.Error(), "409 Conflict")
}
