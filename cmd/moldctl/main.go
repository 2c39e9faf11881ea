// Command moldctl is the schema-governed configuration engine's CLI.
// Adapted from the teacher's cmd/server/main.go entry-point shape
// (structured logging stood up before anything else, graceful signal
// handling around the server lifecycle) but built on
// github.com/spf13/cobra instead of the teacher's flag package, since
// moldctl exposes multiple verbs (validate, diff, migrate, serve)
// rather than one long-running process.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vitaliisemenov/moldctl/internal/config"
	"github.com/vitaliisemenov/moldctl/pkg/moldlog"
)

var cfgFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "moldctl",
		Short: "Schema-governed configuration engine",
		Long:  "moldctl validates, compares, and serves configuration documents against versioned mold schemas.",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a moldctl config YAML file")

	root.AddCommand(newValidateCmd())
	root.AddCommand(newDiffCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newServeCmd())

	return root
}

func loadConfig() (*config.Config, error) {
	return config.LoadConfig(cfgFile)
}

func buildLogger(cfg *config.Config) *slog.Logger {
	return moldlog.New(moldlog.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: "stdout"})
}
