//go:build !integration

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "migrate", "questions", "analyze", "sessions"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "assessment-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestQuestionsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range questionsCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"list", "validate", "publish"} {
		assert.True(t, names[name], "questions should have subcommand %q", name)
	}
}

func TestSessionsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range sessionsCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"list", "show", "reanalyze", "abandon"} {
		assert.True(t, names[name], "sessions should have subcommand %q", name)
	}
}

func TestSessionsListCommand_Flags(t *testing.T) {
	for _, name := range []string{"status", "company", "limit"} {
		assert.NotNil(t, sessionsListCmd.Flags().Lookup(name), "sessions list should have --%s flag", name)
	}
	assert.Equal(t, "50", sessionsListCmd.Flags().Lookup("limit").DefValue)
}
