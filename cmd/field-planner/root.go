// Command field-planner plans crop-safe routes across farm fields, either as
// a one-shot batch job or as an HTTP service.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is stamped at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "field-planner",
	Short: "Grid based route planning for farm fields",
	Long: `field-planner lays a coverage grid over a field polygon, keeps every
grid point clear of standing crop and searches the grid for drivable routes.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
