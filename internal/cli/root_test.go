// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand_HasExpectedBasics(t *testing.T) {
	cmd := NewRootCommand()

	assert.Equal(t, "packline", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	for _, name := range []string{"version", "install", "uninstall", "apply", "updates"} {
		_, _, err := cmd.Find([]string{name})
		require.NoErrorf(t, err, "expected to find %q subcommand", name)
	}
}

func TestNewRootCommand_GlobalFlagsRegistered(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"archives", "config", "dsn", "verbose"} {
		assert.NotNilf(t, cmd.PersistentFlags().Lookup(name), "expected persistent flag %q", name)
	}
}
