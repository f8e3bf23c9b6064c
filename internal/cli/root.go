// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli wires together the packline root Cobra command and its
// subcommands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"packline/internal/cli/commands"
)

// NewRootCommand constructs the packline root Cobra command.
func NewRootCommand() *cobra.Command {
	version := os.Getenv("PACKLINE_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	cmd := &cobra.Command{
		Use:           "packline",
		Short:         "packline – feature-pack provisioning layout engine",
		Long:          "packline resolves, lays out, patches and mutates installations built from versioned feature packs.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags - registered in lexicographic order for deterministic help output.
	cmd.PersistentFlags().StringP("archives", "a", "", "root directory of local feature-pack archives")
	cmd.PersistentFlags().StringP("config", "c", "", "path to the provisioning config file")
	cmd.PersistentFlags().String("dsn", "", "Postgres DSN for the catalog resolver")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of packline",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "packline version %s\n", version)
		},
	})

	// Subcommands - keep registrations in lexicographic order by .Use.
	cmd.AddCommand(commands.NewApplyCommand())
	cmd.AddCommand(commands.NewInstallCommand())
	cmd.AddCommand(commands.NewUninstallCommand())
	cmd.AddCommand(commands.NewUpdatesCommand())

	return cmd
}
