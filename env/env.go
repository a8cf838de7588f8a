// Package env validates process environment variables against declared
// schemas at startup, separating them into server-only, client-exposed and
// shared buckets.
package env

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/envil-dev/envil/resolver"
	"github.com/envil-dev/envil/schema"
	"github.com/joho/godotenv"
)

// Options declares the environment of one application. The three bucket maps
// are keyed by schema key (unprefixed variable name).
type Options struct {
	Server map[string]*schema.Schema
	Client map[string]*schema.Schema
	Shared map[string]*schema.Schema

	// Prefix is prepended per bucket when looking up raw values.
	Prefix PrefixConfig

	// RuntimeEnv overrides the ambient process environment when non-nil.
	RuntimeEnv map[string]string

	// DotenvPath optionally loads a dotenv file as the lowest-precedence
	// layer of the runtime environment.
	DotenvPath string

	// EmptyStringAsUndefined treats empty raw values as unset, so defaults
	// apply instead of non-empty checks failing.
	EmptyStringAsUndefined bool

	// IsServer defaults to true. Set to Bool(false) for client contexts:
	// server schemas are then skipped entirely and server-only reads fail.
	IsServer *bool

	// OnValidationError is invoked with the collected error lines before a
	// validation failure is returned. Its own error, if any, is normalized
	// into the ValidationError.
	OnValidationError func(errs []string) error

	// Extends contributes already-validated environments. Their values are
	// inherited as-is; later entries and locally declared keys win.
	Extends []*Env

	// Resolvers fetch secrets before validation; when present, use
	// NewContext instead of New.
	Resolvers []resolver.Resolver

	// AutoRedactResolver defaults to true: every resolver-supplied value is
	// wrapped in a Secret even without an explicit Redacted schema.
	AutoRedactResolver *bool
}

// Bool is a convenience for the *bool option fields.
func Bool(v bool) *bool { return &v }

// Env is an immutable validated environment. Values are reachable only
// through Get and MustGet, which enforce the client-access rule. There are no
// setters.
type Env struct {
	values   map[string]any
	server   map[string]struct{}
	client   map[string]struct{}
	shared   map[string]struct{}
	isServer bool
}

// New validates opts synchronously. It fails if resolvers are configured;
// those require the context-aware NewContext.
func New(opts Options) (*Env, error) {
	if len(opts.Resolvers) > 0 {
		return nil, errors.New("env: options with resolvers must use NewContext")
	}
	raw, err := baseEnv(opts)
	if err != nil {
		return nil, err
	}
	return validate(opts, raw, nil)
}

// MustNew is New panicking on error. Generated schema definitions bind their
// validated environment through it so problems surface at startup.
func MustNew(opts Options) *Env {
	e, err := New(opts)
	if err != nil {
		panic(err)
	}
	return e
}

// NewContext runs the configured resolvers concurrently, merges their results
// over the runtime environment in declared order, and validates. The first
// resolver failure cancels the rest and is returned unchanged.
func NewContext(ctx context.Context, opts Options) (*Env, error) {
	raw, err := baseEnv(opts)
	if err != nil {
		return nil, err
	}
	var autoRedact map[string]struct{}
	if len(opts.Resolvers) > 0 {
		merged, supplied, err := resolver.ResolveAll(ctx, raw, opts.Resolvers)
		if err != nil {
			return nil, err
		}
		raw = merged
		if opts.AutoRedactResolver == nil || *opts.AutoRedactResolver {
			autoRedact = supplied
		}
	}
	return validate(opts, raw, autoRedact)
}

func baseEnv(opts Options) (map[string]string, error) {
	raw := make(map[string]string)
	if opts.DotenvPath != "" {
		fileVals, err := godotenv.Read(opts.DotenvPath)
		if err != nil {
			return nil, fmt.Errorf("env: load dotenv %s: %w", opts.DotenvPath, err)
		}
		for k, v := range fileVals {
			raw[k] = v
		}
	}
	if opts.RuntimeEnv != nil {
		for k, v := range opts.RuntimeEnv {
			raw[k] = v
		}
		return raw, nil
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			raw[k] = v
		}
	}
	return raw, nil
}

func validate(opts Options, raw map[string]string, autoRedact map[string]struct{}) (*Env, error) {
	if opts.EmptyStringAsUndefined {
		trimmed := make(map[string]string, len(raw))
		for k, v := range raw {
			if v != "" {
				trimmed[k] = v
			}
		}
		raw = trimmed
	}

	isServer := true
	if opts.IsServer != nil {
		isServer = *opts.IsServer
	}
	prefixes := opts.Prefix.Resolve()

	// Server schemas are never evaluated on the client: they may reference
	// secrets that only exist server-side.
	selected := make(map[string]*schema.Schema)
	if isServer {
		for k, s := range opts.Server {
			selected[k] = s
		}
	}
	for k, s := range opts.Client {
		selected[k] = s
	}
	for k, s := range opts.Shared {
		selected[k] = s
	}

	keys := make([]string, 0, len(selected))
	for k := range selected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make(map[string]any, len(selected))
	var errs []string
	for _, key := range keys {
		bucket := BucketServer
		if _, ok := opts.Client[key]; ok {
			bucket = BucketClient
		} else if _, ok := opts.Shared[key]; ok {
			bucket = BucketShared
		}
		prefixed := prefixes.For(bucket) + key

		var rawPtr *string
		if v, ok := raw[prefixed]; ok {
			rawPtr = &v
		}
		val, err := selected[key].Decode(rawPtr)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %s", prefixed, err.Error()))
			continue
		}
		if _, redact := autoRedact[prefixed]; redact && val != nil {
			val = schema.NewSecret(val)
		}
		values[key] = val
	}

	if len(errs) > 0 {
		verr := &ValidationError{Errors: errs}
		if opts.OnValidationError != nil {
			if cbErr := opts.OnValidationError(errs); cbErr != nil {
				var v *ValidationError
				if errors.As(cbErr, &v) {
					return nil, v
				}
				return nil, &ValidationError{Errors: errs, cause: cbErr}
			}
		}
		return nil, verr
	}

	e := &Env{
		values:   make(map[string]any, len(values)),
		server:   make(map[string]struct{}),
		client:   make(map[string]struct{}),
		shared:   make(map[string]struct{}),
		isServer: isServer,
	}

	// Inherited values come in as-is, never re-validated. Later extends
	// entries and locally declared keys win on collision.
	for _, ext := range opts.Extends {
		for k, v := range ext.values {
			e.values[k] = v
		}
		unionInto(e.server, ext.server)
		unionInto(e.client, ext.client)
		unionInto(e.shared, ext.shared)
	}
	for k, v := range values {
		e.values[k] = v
	}

	// Membership covers every declared key, including server schemas that
	// were skipped in a client run: the access guard needs them.
	for k := range opts.Server {
		e.server[k] = struct{}{}
	}
	for k := range opts.Client {
		e.client[k] = struct{}{}
	}
	for k := range opts.Shared {
		e.shared[k] = struct{}{}
	}
	return e, nil
}

func unionInto(dst map[string]struct{}, src map[string]struct{}) {
	for k := range src {
		dst[k] = struct{}{}
	}
}

// Get returns the validated value for key. Reading a server-only key from a
// non-server context fails with an AccessError. Values produced by Redacted
// schemas stay wrapped: unwrap deliberately with schema.Secret.Reveal.
func (e *Env) Get(key string) (any, error) {
	if !e.isServer && e.serverOnly(key) {
		return nil, &AccessError{Key: key}
	}
	return e.values[key], nil
}

// MustGet is Get panicking on access violations.
func (e *Env) MustGet(key string) any {
	v, err := e.Get(key)
	if err != nil {
		panic(err)
	}
	return v
}

// Has reports whether key holds a validated (or inherited) value.
func (e *Env) Has(key string) bool {
	_, ok := e.values[key]
	return ok
}

func (e *Env) serverOnly(key string) bool {
	if _, ok := e.server[key]; !ok {
		return false
	}
	if _, ok := e.client[key]; ok {
		return false
	}
	_, ok := e.shared[key]
	return !ok
}

// ServerKeys returns the sorted aggregate server-bucket keys.
func (e *Env) ServerKeys() []string { return sortedKeys(e.server) }

// ClientKeys returns the sorted aggregate client-bucket keys.
func (e *Env) ClientKeys() []string { return sortedKeys(e.client) }

// SharedKeys returns the sorted aggregate shared-bucket keys.
func (e *Env) SharedKeys() []string { return sortedKeys(e.shared) }

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON serializes the validated values. Redacted values marshal as
// their redaction marker, never as plaintext.
func (e *Env) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.values)
}
