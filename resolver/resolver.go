// Package resolver fetches secret values from external providers and merges
// them into the runtime environment before validation.
package resolver

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Resolver produces a partial mapping from (already prefixed) environment
// variable name to value. Implementations may hit the network; they must
// honor ctx cancellation.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context) (map[string]string, error)
}

// Error identifies which resolver failed and why.
type Error struct {
	Resolver string
	Msg      string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("resolver %q: %s: %v", e.Resolver, e.Msg, e.Cause)
	}
	return fmt.Sprintf("resolver %q: %s", e.Resolver, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// ResolveAll runs every resolver concurrently and merges the results on top
// of base. Merge precedence follows the declared order, not completion order:
// later resolvers override earlier ones, and every resolver overrides base.
// The first failure cancels the remaining resolvers and is returned as-is.
//
// The returned supplied set contains every key some resolver produced a value
// for; it drives auto-redaction.
func ResolveAll(ctx context.Context, base map[string]string, resolvers []Resolver) (map[string]string, map[string]struct{}, error) {
	log := zerolog.Ctx(ctx)

	results := make([]map[string]string, len(resolvers))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range resolvers {
		i, r := i, r
		g.Go(func() error {
			m, err := r.Resolve(gctx)
			if err != nil {
				if _, ok := err.(*Error); !ok {
					err = &Error{Resolver: r.Name(), Msg: "resolve failed", Cause: err}
				}
				return err
			}
			log.Debug().Str("resolver", r.Name()).Int("keys", len(m)).Msg("resolver finished")
			results[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	merged := make(map[string]string, len(base))
	for k, v := range base {
		merged[k] = v
	}
	supplied := make(map[string]struct{})
	for _, m := range results {
		for k, v := range m {
			merged[k] = v
			supplied[k] = struct{}{}
		}
	}
	return merged, supplied, nil
}
