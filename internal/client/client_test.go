package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	c, err := New(Config{BaseURL: "http://localhost:9090/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9090", c.BaseURL(), "trailing slash is trimmed")
}

func TestDo_SendsJSONAndHeaders(t *testing.T) {
	var (
		gotPath        string
		gotContentType string
		gotAuth        string
		gotBody        map[string]any
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"userId": "u-1"}`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := c.Post(context.Background(), "/user-service/api/users",
		map[string]string{"Authorization": "Bearer tok"},
		map[string]any{"firstName": "Shopper"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, resp.IsSuccess())
	assert.Equal(t, "/user-service/api/users", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "Shopper", gotBody["firstName"])

	node, err := resp.JSON()
	require.NoError(t, err)
	assert.Equal(t, "u-1", node.Get("userId").Str())
}

func TestDo_NonSuccessStatusIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "no such order"}`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), "/order-service/api/orders/missing", nil)
	require.NoError(t, err, "non-2xx must be returned to the caller, not raised")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, resp.IsSuccess())
}

func TestDo_ConnectionRefusedIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/user-service/api/users", nil)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestDo_ReadTimeoutIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, ReadTimeout: 20 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/slow", nil)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestJSON_MalformedBodyIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>gateway error</html>`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), "/whatever", nil)
	require.NoError(t, err)

	_, err = resp.JSON()
	assert.ErrorIs(t, err, ErrTransport)
}
