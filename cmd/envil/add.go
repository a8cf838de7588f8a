package envil

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Generate schema sources and example files",
}

func init() {
	rootCmd.AddCommand(addCmd)
}

// writeOutput refuses to clobber an existing file unless force is set.
func writeOutput(path string, data []byte, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("output %s already exists (use --force to overwrite)", path)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("output %s: %w", path, err)
	}
	return nil
}
