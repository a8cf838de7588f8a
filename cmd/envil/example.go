package envil

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/envil-dev/envil/internal/codegen"
	"github.com/envil-dev/envil/internal/dotenv"
)

var addExampleFlags struct {
	input  string
	output string
	force  bool
}

var addExampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Regenerate a .env.example file from a schema definition",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runAddExample(); err != nil {
			fatal(err)
		}
	},
}

func init() {
	f := addExampleCmd.Flags()
	f.StringVarP(&addExampleFlags.input, "input", "i", "env.gen.go", "schema source file to read")
	f.StringVarP(&addExampleFlags.output, "output", "o", ".env.example", "dotenv file to write")
	f.BoolVar(&addExampleFlags.force, "force", false, "overwrite existing output")
	addCmd.AddCommand(addExampleCmd)
}

func runAddExample() error {
	log := newLogger()

	src, err := os.ReadFile(addExampleFlags.input)
	if err != nil {
		return fmt.Errorf("input %s: %w", addExampleFlags.input, err)
	}
	model, err := codegen.Load(src, addExampleFlags.input)
	if err != nil {
		return err
	}
	log.Debug().Int("variables", len(model.Variables)).Msg("loaded schema definition")

	doc := codegen.BuildExample(model)
	text := dotenv.Encode(doc)
	if err := writeOutput(addExampleFlags.output, []byte(text), addExampleFlags.force); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%d variables)\n", addExampleFlags.output, len(model.Variables))
	return nil
}
