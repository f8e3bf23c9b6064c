// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"packline/pkg/location"
	"packline/pkg/provisioning"
)

// NewInstallCommand returns `packline install`.
func NewInstallCommand() *cobra.Command {
	var channel, build string

	cmd := &cobra.Command{
		Use:   "install <universe> <producer>",
		Short: "Install a feature pack as a direct entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := ResolveFlags(cmd)
			e, err := openEngine(flags)
			if err != nil {
				return err
			}
			defer e.close()

			fp := provisioning.FeaturePackConfig{
				Location: location.FeaturePackLocation{
					Universe: args[0],
					Producer: args[1],
					Channel:  channel,
					Build:    build,
				},
			}
			if err := e.mutator.Install(fp, nil); err != nil {
				return fmt.Errorf("installing %s:%s: %w", args[0], args[1], err)
			}
			if err := e.save(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "installed %s:%s\n", args[0], args[1])
			return nil
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "", "channel to install from (defaults to the producer's default channel)")
	cmd.Flags().StringVar(&build, "build", "", "specific build to install (defaults to the channel's latest)")
	return cmd
}
