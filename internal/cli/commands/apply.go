// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewApplyCommand returns `packline apply`.
func NewApplyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Compute and apply the update plan for every installed feature pack",
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
			if plan.IsEmpty() {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "nothing to apply, already up to date")
				return nil
			}
			if err := e.mutator.Apply(plan, nil); err != nil {
				return fmt.Errorf("applying update plan: %w", err)
			}
			if err := e.save(); err != nil {
				return err
			}
			for _, upd := range plan.NonEmptyUpdates() {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "updated %s: %s -> %s\n", upd.Producer, upd.InstalledLocation.Build, upd.NewLocation.Build)
			}
			return nil
		},
	}
	return cmd
}
