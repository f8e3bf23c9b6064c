// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"packline/pkg/location"
)

// NewUninstallCommand returns `packline uninstall`.
func NewUninstallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uninstall <universe> <producer> <channel> <build>",
		Short: "Uninstall a feature pack or patch by its full identity",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := ResolveFlags(cmd)
			e, err := openEngine(flags)
			if err != nil {
				return err
			}
			defer e.close()

			fpid := location.FeaturePackID{Universe: args[0], Producer: args[1], Channel: args[2], Build: args[3]}
			if err := e.mutator.Uninstall(fpid, nil); err != nil {
				return fmt.Errorf("uninstalling %s: %w", fpid, err)
			}
			if err := e.save(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "uninstalled %s\n", fpid)
			return nil
		},
	}
	return cmd
}
