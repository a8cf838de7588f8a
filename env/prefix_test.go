package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixConfigResolve(t *testing.T) {
	tests := []struct {
		name string
		cfg  PrefixConfig
		want Prefixes
	}{
		{"zero value", PrefixConfig{}, Prefixes{}},
		{"uniform", PrefixConfig{All: "APP_"}, Prefixes{Server: "APP_", Client: "APP_", Shared: "APP_"}},
		{"partial", PrefixConfig{Client: "NEXT_PUBLIC_"}, Prefixes{Client: "NEXT_PUBLIC_"}},
		{"all wins over per-bucket", PrefixConfig{All: "APP_", Client: "IGNORED_"}, Prefixes{Server: "APP_", Client: "APP_", Shared: "APP_"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.Resolve())
		})
	}
}

func TestPrefixesFor(t *testing.T) {
	p := Prefixes{Server: "S_", Client: "C_", Shared: "X_"}
	assert.Equal(t, "S_", p.For(BucketServer))
	assert.Equal(t, "C_", p.For(BucketClient))
	assert.Equal(t, "X_", p.For(BucketShared))
}
