package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrNotFound is returned by clients when a secret id does not exist.
var ErrNotFound = errors.New("secret not found")

// Client is the minimal contract a secret-manager integration must satisfy.
type Client interface {
	GetSecret(ctx context.Context, id string) (string, error)
}

// BatchClient is implemented by providers that can fetch several secrets in
// one round trip. It is used opportunistically when more than one id is
// requested; ids missing from the returned map are treated as not found.
type BatchClient interface {
	Client
	GetSecrets(ctx context.Context, ids []string) (map[string]string, error)
}

// DefaultBatchSize bounds how many ids go into one batch request.
const DefaultBatchSize = 10

// Secrets resolves a set of environment variable references against a Client.
// A reference is a provider-specific id, optionally suffixed with "#subkey"
// meaning: parse the fetched value as JSON and extract that field.
type Secrets struct {
	name      string
	client    Client
	refs      map[string]string
	strict    bool
	batchSize int
}

// SecretsOption customizes a Secrets resolver.
type SecretsOption func(*Secrets)

// Strict makes any individual fetch failure fatal for the whole batch. By
// default a missing secret degrades to an unset variable.
func Strict() SecretsOption {
	return func(s *Secrets) { s.strict = true }
}

// BatchSize overrides the provider batch-size limit.
func BatchSize(n int) SecretsOption {
	return func(s *Secrets) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewSecrets builds a resolver fetching refs (environment variable name to
// reference) through client.
func NewSecrets(name string, client Client, refs map[string]string, opts ...SecretsOption) *Secrets {
	s := &Secrets{
		name:      name,
		client:    client,
		refs:      refs,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Secrets) Name() string { return s.name }

// Resolve fetches every referenced secret. Batch-capable clients are used
// when more than one distinct id is requested, chunked to the batch-size
// limit with chunks issued sequentially; otherwise ids are fetched
// concurrently with individual GetSecret calls.
func (s *Secrets) Resolve(ctx context.Context) (map[string]string, error) {
	ids := make([]string, 0, len(s.refs))
	seen := make(map[string]struct{}, len(s.refs))
	for _, ref := range s.refs {
		id, _ := splitRef(ref)
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var (
		values map[string]string
		err    error
	)
	if bc, ok := s.client.(BatchClient); ok && len(ids) > 1 {
		values, err = s.fetchBatched(ctx, bc, ids)
	} else {
		values, err = s.fetchIndividually(ctx, ids)
	}
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(s.refs))
	for name, ref := range s.refs {
		id, subkey := splitRef(ref)
		raw, ok := values[id]
		if !ok {
			if s.strict {
				return nil, &Error{Resolver: s.name, Msg: fmt.Sprintf("secret %q not found", id), Cause: ErrNotFound}
			}
			continue
		}
		if subkey != "" {
			extracted, err := extractSubkey(raw, subkey)
			if err != nil {
				if s.strict {
					return nil, &Error{Resolver: s.name, Msg: fmt.Sprintf("secret %q: %v", id, err)}
				}
				continue
			}
			raw = extracted
		}
		out[name] = raw
	}
	return out, nil
}

func (s *Secrets) fetchBatched(ctx context.Context, bc BatchClient, ids []string) (map[string]string, error) {
	values := make(map[string]string, len(ids))
	for start := 0; start < len(ids); start += s.batchSize {
		end := min(start+s.batchSize, len(ids))
		chunk, err := bc.GetSecrets(ctx, ids[start:end])
		if err != nil {
			return nil, &Error{Resolver: s.name, Msg: "batch fetch failed", Cause: err}
		}
		for id, v := range chunk {
			values[id] = v
		}
	}
	return values, nil
}

func (s *Secrets) fetchIndividually(ctx context.Context, ids []string) (map[string]string, error) {
	var mu sync.Mutex
	values := make(map[string]string, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			v, err := s.client.GetSecret(gctx, id)
			if err != nil {
				if s.strict {
					return &Error{Resolver: s.name, Msg: fmt.Sprintf("secret %q fetch failed", id), Cause: err}
				}
				return nil
			}
			mu.Lock()
			values[id] = v
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return values, nil
}

func splitRef(ref string) (id, subkey string) {
	if i := strings.LastIndex(ref, "#"); i >= 0 {
		return ref[:i], ref[i+1:]
	}
	return ref, ""
}

func extractSubkey(raw, subkey string) (string, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return "", fmt.Errorf("value is not a JSON object: %w", err)
	}
	field, ok := doc[subkey]
	if !ok {
		return "", fmt.Errorf("JSON field %q not found", subkey)
	}
	var str string
	if err := json.Unmarshal(field, &str); err == nil {
		return str, nil
	}
	return string(field), nil
}
