// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	"packline/internal/cli"
)

func main() {
	rootCmd := cli.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		// Avoid printing Cobra's default error twice; centralize exit
		// code handling here.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
