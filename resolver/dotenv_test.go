package resolver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDotenvResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env.local")
	require.NoError(t, os.WriteFile(path, []byte("DB_PASSWORD=hunter2\nPORT=8080\n"), 0o600))

	d := NewDotenv(path)
	got, err := d.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"DB_PASSWORD": "hunter2", "PORT": "8080"}, got)
}

func TestDotenvMissingFile(t *testing.T) {
	d := NewDotenv(filepath.Join(t.TempDir(), "absent.env"))
	_, err := d.Resolve(context.Background())

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, rerr.Resolver, "absent.env")
}

func TestDotenvCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDotenv("unused")
	_, err := d.Resolve(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
