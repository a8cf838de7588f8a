package resolver

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu      sync.Mutex
	secrets map[string]string
	calls   []string
}

func (c *fakeClient) GetSecret(ctx context.Context, id string) (string, error) {
	c.mu.Lock()
	c.calls = append(c.calls, id)
	c.mu.Unlock()

	v, ok := c.secrets[id]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

type fakeBatchClient struct {
	fakeClient
	batches [][]string
}

func (c *fakeBatchClient) GetSecrets(ctx context.Context, ids []string) (map[string]string, error) {
	c.mu.Lock()
	c.batches = append(c.batches, ids)
	c.mu.Unlock()

	out := make(map[string]string)
	for _, id := range ids {
		if v, ok := c.secrets[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func TestSecretsResolveIndividual(t *testing.T) {
	client := &fakeClient{secrets: map[string]string{"db-pass": "hunter2"}}
	r := NewSecrets("store", client, map[string]string{"DB_PASSWORD": "db-pass"})

	got, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"DB_PASSWORD": "hunter2"}, got)
}

func TestSecretsMissingNonStrict(t *testing.T) {
	client := &fakeClient{secrets: map[string]string{"known": "v"}}
	r := NewSecrets("store", client, map[string]string{
		"KNOWN":   "known",
		"MISSING": "missing",
	})

	got, err := r.Resolve(context.Background())
	require.NoError(t, err, "a missing secret degrades to unset by default")
	assert.Equal(t, map[string]string{"KNOWN": "v"}, got)
}

func TestSecretsMissingStrict(t *testing.T) {
	client := &fakeClient{secrets: map[string]string{}}
	r := NewSecrets("store", client, map[string]string{"MISSING": "missing"}, Strict())

	_, err := r.Resolve(context.Background())
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "store", rerr.Resolver)
}

func TestSecretsSubkeyExtraction(t *testing.T) {
	client := &fakeClient{secrets: map[string]string{
		"creds": `{"user":"admin","pass":"hunter2","attempts":3}`,
	}}
	r := NewSecrets("store", client, map[string]string{
		"DB_USER":     "creds#user",
		"DB_PASSWORD": "creds#pass",
		"DB_ATTEMPTS": "creds#attempts",
	})

	got, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "admin", got["DB_USER"])
	assert.Equal(t, "hunter2", got["DB_PASSWORD"])
	assert.Equal(t, "3", got["DB_ATTEMPTS"], "non-string fields keep their raw JSON text")
}

func TestSecretsSubkeyMissingStrict(t *testing.T) {
	client := &fakeClient{secrets: map[string]string{"creds": `{"user":"admin"}`}}

	r := NewSecrets("store", client, map[string]string{"X": "creds#nope"})
	got, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)

	r = NewSecrets("store", client, map[string]string{"X": "creds#nope"}, Strict())
	_, err = r.Resolve(context.Background())
	require.Error(t, err)
}

func TestSecretsBatching(t *testing.T) {
	client := &fakeBatchClient{}
	client.secrets = make(map[string]string)
	refs := make(map[string]string)
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("secret-%02d", i)
		client.secrets[id] = fmt.Sprintf("value-%02d", i)
		refs[fmt.Sprintf("VAR_%02d", i)] = id
	}

	r := NewSecrets("store", client, refs)
	got, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 25)

	// 25 ids chunked at the default batch size of 10
	require.Len(t, client.batches, 3)
	assert.Len(t, client.batches[0], 10)
	assert.Len(t, client.batches[1], 10)
	assert.Len(t, client.batches[2], 5)
	assert.Empty(t, client.calls, "batch-capable clients skip individual fetches")
}

func TestSecretsSingleRefSkipsBatch(t *testing.T) {
	client := &fakeBatchClient{}
	client.secrets = map[string]string{"only": "v"}

	r := NewSecrets("store", client, map[string]string{"ONLY": "only"})
	got, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"ONLY": "v"}, got)
	assert.Empty(t, client.batches)
	assert.Equal(t, []string{"only"}, client.calls)
}

func TestSecretsSharedIDFetchedOnce(t *testing.T) {
	client := &fakeClient{secrets: map[string]string{"creds": `{"user":"u","pass":"p"}`}}
	r := NewSecrets("store", client, map[string]string{
		"USER": "creds#user",
		"PASS": "creds#pass",
	})

	got, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Len(t, client.calls, 1, "the shared id is fetched once")
}
