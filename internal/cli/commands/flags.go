// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// ResolvedFlags contains the resolved values for the engine's global flags.
type ResolvedFlags struct {
	Config   string
	Archives string
	DSN      string
	Verbose  bool
}

// ResolveFlags resolves global flags with precedence: command-line flag >
// environment variable > built-in default.
func ResolveFlags(cmd *cobra.Command) *ResolvedFlags {
	flags := &ResolvedFlags{}

	configFlag, _ := cmd.Flags().GetString("config")
	flags.Config = resolveString(configFlag, os.Getenv("PACKLINE_CONFIG"), "packline.yaml")

	archivesFlag, _ := cmd.Flags().GetString("archives")
	flags.Archives = resolveString(archivesFlag, os.Getenv("PACKLINE_ARCHIVES"), "./archives")

	dsnFlag, _ := cmd.Flags().GetString("dsn")
	flags.DSN = resolveString(dsnFlag, os.Getenv("PACKLINE_DSN"), "")

	verboseFlag, _ := cmd.Flags().GetBool("verbose")
	flags.Verbose = resolveBool(verboseFlag, parseBoolEnv(os.Getenv("PACKLINE_VERBOSE")), false)

	return flags
}

func resolveString(flag, env, defaultValue string) string {
	if flag != "" {
		return flag
	}
	if env != "" {
		return env
	}
	return defaultValue
}

func resolveBool(flag, env, defaultValue bool) bool {
	if flag {
		return true
	}
	if env {
		return true
	}
	return defaultValue
}

func parseBoolEnv(value string) bool {
	if value == "" {
		return false
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}
	return parsed
}
