package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for aimap.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aimap",
		Short: "Map a Laravel project for AI assistants",
		Long: `aimap analyzes a Laravel application and writes a JSON snapshot of its
structure: environment, database schema, directory tree, Eloquent models,
routes, Composer dependencies, Filament panels, scheduled commands and
event listeners.

The database is read directly and the PHP sources are parsed statically;
only the route list needs a working PHP interpreter.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewMapCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
