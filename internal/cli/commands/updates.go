// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"packline/pkg/provisioning"
)

// NewUpdatesCommand returns `packline updates`, a read-only report of what
// `packline apply` would change.
func NewUpdatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "updates",
		Short: "Show the pending update plan without applying it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := ResolveFlags(cmd)
			e, err := openEngine(flags)
			if err != nil {
				return err
			}
			defer e.close()

			plan, err := e.mutator.GetUpdates(nil)
			if err != nil {
				return fmt.Errorf("computing update plan: %w", err)
			}
			return displayUpdates(cmd, plan.NonEmptyUpdates())
		},
	}
	return cmd
}

func displayUpdates(cmd *cobra.Command, updates []provisioning.FeaturePackUpdatePlan) error {
	out := cmd.OutOrStdout()
	if len(updates) == 0 {
		_, _ = fmt.Fprintln(out, "No updates available")
		return nil
	}

	_, _ = fmt.Fprintf(out, "%-30s %-15s %-15s %s\n", "PRODUCER", "INSTALLED", "AVAILABLE", "TRANSITIVE")
	for _, u := range updates {
		_, _ = fmt.Fprintf(out, "%-30s %-15s %-15s %v\n", u.Producer, u.InstalledLocation.Build, u.NewLocation.Build, u.Transitive)
	}
	return nil
}
