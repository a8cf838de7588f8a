package envil

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/envil-dev/envil/env"
	"github.com/envil-dev/envil/internal/codegen"
	"github.com/envil-dev/envil/internal/dotenv"
	"github.com/envil-dev/envil/internal/infer"
	"github.com/envil-dev/envil/internal/presets"
)

var addEnvFlags struct {
	input     string
	output    string
	framework string
	force     bool
}

var addEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "Generate a schema definition from a .env.example file",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runAddEnv(cmd); err != nil {
			fatal(err)
		}
	},
}

func init() {
	f := addEnvCmd.Flags()
	f.StringVarP(&addEnvFlags.input, "input", "i", ".env.example", "dotenv file to read")
	f.StringVarP(&addEnvFlags.output, "output", "o", "env.gen.go", "schema source file to write")
	f.BoolVar(&addEnvFlags.force, "force", false, "overwrite existing output")
	f.StringVar(&addEnvFlags.framework, "framework", "", "framework preset for prefixes ("+strings.Join(presets.Names(), ", ")+")")
	f.String("server-prefix", "", "prefix for server variables")
	f.String("client-prefix", "", "prefix for client variables")
	f.String("shared-prefix", "", "prefix for shared variables")
	addCmd.AddCommand(addEnvCmd)
}

func runAddEnv(cmd *cobra.Command) error {
	log := newLogger()

	src, err := os.ReadFile(addEnvFlags.input)
	if err != nil {
		return fmt.Errorf("input %s: %w", addEnvFlags.input, err)
	}
	doc, err := dotenv.Parse(string(src))
	if err != nil {
		return fmt.Errorf("parse %s: %w", addEnvFlags.input, err)
	}
	log.Debug().Int("entries", len(doc.Entries)).Msg("parsed dotenv document")

	prefixes, err := mergePrefixes(cmd, doc)
	if err != nil {
		return err
	}
	log.Debug().
		Str("server", prefixes.Server).
		Str("client", prefixes.Client).
		Str("shared", prefixes.Shared).
		Msg("resolved prefixes")

	model, err := infer.Build(doc, prefixes)
	if err != nil {
		return fmt.Errorf("infer %s: %w", addEnvFlags.input, err)
	}

	out := codegen.Generate(model)
	if err := writeOutput(addEnvFlags.output, out, addEnvFlags.force); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%d variables)\n", addEnvFlags.output, len(model.Variables))
	return nil
}

// mergePrefixes applies the prefix precedence: explicit flag, framework
// preset, document-embedded section prefix, empty string.
func mergePrefixes(cmd *cobra.Command, doc *dotenv.Document) (env.Prefixes, error) {
	p := env.Prefixes{
		Server: doc.Prefixes["server"],
		Client: doc.Prefixes["client"],
		Shared: doc.Prefixes["shared"],
	}

	framework := addEnvFlags.framework
	if framework == "" && viper.IsSet("framework") {
		framework = viper.GetString("framework")
	}
	if framework != "" {
		preset, ok := presets.Lookup(framework)
		if !ok {
			return p, fmt.Errorf("unknown framework %q (known: %s)", framework, strings.Join(presets.Names(), ", "))
		}
		if preset.Server != "" {
			p.Server = preset.Server
		}
		if preset.Client != "" {
			p.Client = preset.Client
		}
		if preset.Shared != "" {
			p.Shared = preset.Shared
		}
	}

	if v, ok := prefixFlag(cmd, "server-prefix"); ok {
		p.Server = v
	}
	if v, ok := prefixFlag(cmd, "client-prefix"); ok {
		p.Client = v
	}
	if v, ok := prefixFlag(cmd, "shared-prefix"); ok {
		p.Shared = v
	}
	return p, nil
}

// prefixFlag reads a prefix flag, falling back to the viper config so a
// .envil.yaml can pin project-wide prefixes.
func prefixFlag(cmd *cobra.Command, name string) (string, bool) {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v, true
	}
	if viper.IsSet(name) {
		return viper.GetString(name), true
	}
	return "", false
}
