package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, secrets map[string]string) *HTTPStore {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/secrets/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/v1/secrets/")
		v, ok := secrets[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(secretResponse{Value: v})
	})
	mux.HandleFunc("/v1/secrets/batch", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req batchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		out := batchResponse{Secrets: make(map[string]string)}
		for _, id := range req.IDs {
			if v, ok := secrets[id]; ok {
				out.Secrets[id] = v
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewHTTPStore(HTTPStoreConfig{BaseURL: srv.URL, Token: "test-token"})
}

func TestHTTPStoreGetSecret(t *testing.T) {
	store := newTestStore(t, map[string]string{"db-pass": "hunter2"})

	v, err := store.GetSecret(context.Background(), "db-pass")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", v)
}

func TestHTTPStoreGetSecretNotFound(t *testing.T) {
	store := newTestStore(t, map[string]string{})

	_, err := store.GetSecret(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPStoreGetSecrets(t *testing.T) {
	store := newTestStore(t, map[string]string{"a": "1", "b": "2"})

	got, err := store.GetSecrets(context.Background(), []string{"a", "b", "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, got)
}

func TestHTTPStoreThroughSecretsResolver(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"creds": `{"pass":"hunter2"}`,
		"token": "tok",
	})

	r := NewSecrets("http-store", store, map[string]string{
		"DB_PASSWORD": "creds#pass",
		"API_TOKEN":   "token",
	})
	got, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"DB_PASSWORD": "hunter2",
		"API_TOKEN":   "tok",
	}, got)
}
