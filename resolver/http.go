package resolver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPStoreConfig configures an HTTPStore client.
type HTTPStoreConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// HTTPStore talks to a REST secret store exposing GET /v1/secrets/{id} and
// POST /v1/secrets/batch. It satisfies BatchClient.
type HTTPStore struct {
	client *resty.Client
}

// NewHTTPStore builds a client for the store at cfg.BaseURL.
func NewHTTPStore(cfg HTTPStoreConfig) *HTTPStore {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		cli.SetAuthToken(cfg.Token)
	}

	return &HTTPStore{client: cli}
}

type secretResponse struct {
	Value string `json:"value"`
}

type batchRequest struct {
	IDs []string `json:"ids"`
}

type batchResponse struct {
	Secrets map[string]string `json:"secrets"`
}

// GetSecret fetches a single secret value. A 404 maps to ErrNotFound.
func (s *HTTPStore) GetSecret(ctx context.Context, id string) (string, error) {
	var out secretResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&out).
		SetPathParam("id", id).
		Get("/v1/secrets/{id}")
	if err != nil {
		return "", fmt.Errorf("get secret request: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return "", ErrNotFound
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("get secret: unexpected status %s", resp.Status())
	}
	return out.Value, nil
}

// GetSecrets fetches several secrets in one round trip. Unknown ids are
// simply absent from the returned map.
func (s *HTTPStore) GetSecrets(ctx context.Context, ids []string) (map[string]string, error) {
	var out batchResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(batchRequest{IDs: ids}).
		SetResult(&out).
		Post("/v1/secrets/batch")
	if err != nil {
		return nil, fmt.Errorf("batch secrets request: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("batch secrets: unexpected status %s", resp.Status())
	}
	if out.Secrets == nil {
		return map[string]string{}, nil
	}
	return out.Secrets, nil
}
