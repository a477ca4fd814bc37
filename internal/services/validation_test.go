package services

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationService_IsEmailValid(t *testing.T) {
	var gotKey, gotEmail string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("api_key")
		gotEmail = r.URL.Query().Get("email")
		disposable := gotEmail == "temp@mailinator.com"
		fmt.Fprintf(w, `{"email":%q,"deliverability":"DELIVERABLE","is_valid_format":{"value":true},"is_disposable_email":{"value":%t},"is_mx_found":{"value":true}}`, gotEmail, disposable)
	}))
	defer server.Close()

	v := NewValidationService("key-123")
	v.endpoint = server.URL

	ok, err := v.IsEmailValid("ana+rooms@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "key-123", gotKey)
	assert.Equal(t, "ana+rooms@example.com", gotEmail)

	ok, err = v.IsEmailValid("temp@mailinator.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidationService_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	v := NewValidationService("key")
	v.endpoint = server.URL

	_, err := v.IsEmailValid("ana@example.com")
	assert.Error(t, err)
}
