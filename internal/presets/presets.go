// Package presets maps framework names to their conventional env-var
// prefixes.
package presets

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/envil-dev/envil/env"
)

//go:embed presets.yaml
var rawPresets []byte

type preset struct {
	Server string `yaml:"server"`
	Client string `yaml:"client"`
	Shared string `yaml:"shared"`
}

var table = load()

func load() map[string]env.Prefixes {
	var parsed map[string]preset
	if err := yaml.Unmarshal(rawPresets, &parsed); err != nil {
		panic(fmt.Sprintf("presets: invalid embedded presets.yaml: %v", err))
	}
	out := make(map[string]env.Prefixes, len(parsed))
	for name, p := range parsed {
		out[name] = env.Prefixes{Server: p.Server, Client: p.Client, Shared: p.Shared}
	}
	return out
}

// Lookup returns the prefix table of a framework preset.
func Lookup(name string) (env.Prefixes, bool) {
	p, ok := table[name]
	return p, ok
}

// Names lists the known presets, sorted.
func Names() []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
