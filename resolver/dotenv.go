package resolver

import (
	"context"

	"github.com/joho/godotenv"
)

// Dotenv reads secrets from a local dotenv file. It is the simplest provider
// family: no network, no batching.
type Dotenv struct {
	path string
}

// NewDotenv builds a resolver backed by the dotenv file at path.
func NewDotenv(path string) *Dotenv {
	return &Dotenv{path: path}
}

func (d *Dotenv) Name() string { return "dotenv:" + d.path }

// Resolve parses the file and returns its key/value pairs.
func (d *Dotenv) Resolve(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	values, err := godotenv.Read(d.path)
	if err != nil {
		return nil, &Error{Resolver: d.Name(), Msg: "read dotenv file", Cause: err}
	}
	return values, nil
}
