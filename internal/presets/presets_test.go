package presets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/envil-dev/envil/env"
)

func TestLookup(t *testing.T) {
	p, ok := Lookup("next")
	require.True(t, ok)
	assert.Equal(t, env.Prefixes{Client: "NEXT_PUBLIC_"}, p)

	p, ok = Lookup("vite")
	require.True(t, ok)
	assert.Equal(t, "VITE_", p.Client)

	// remix has no prefix convention but is still a known preset
	p, ok = Lookup("remix")
	require.True(t, ok)
	assert.Equal(t, env.Prefixes{}, p)

	_, ok = Lookup("rails")
	assert.False(t, ok)
}

func TestNamesSorted(t *testing.T) {
	assert.Equal(t, []string{"astro", "expo", "next", "nuxt", "remix", "sveltekit", "vite"}, Names())
}
