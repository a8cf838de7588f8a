package resolver

import "context"

// Static resolves to a fixed in-memory map. It is the reference
// implementation of the protocol and convenient in tests.
type Static map[string]string

func (s Static) Name() string { return "static" }

func (s Static) Resolve(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out, nil
}
