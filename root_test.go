package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edtools/pscpm-go/internal/config"
)

func TestRootCmdRegistersSubcommands(t *testing.T) {
	cmd := newRootCmd()

	for _, name := range []string{"login", "ls", "get", "put", "new", "sync", "watch", "config", "templates", "version"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.NotEqual(t, cmd, sub, "subcommand %q is registered", name)
	}
}

func TestRootCmdPersistentFlags(t *testing.T) {
	cmd := newRootCmd()

	for _, name := range []string{"config", "server", "root", "json", "verbose", "quiet"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestBuildLoggerLevels(t *testing.T) {
	orig := resolvedCfg
	t.Cleanup(func() {
		resolvedCfg = orig
		flagVerbose = false
		flagQuiet = false
	})

	resolvedCfg = config.DefaultConfig()
	resolvedCfg.Logging.Level = "warn"

	logger := buildLogger()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))

	// --verbose beats the config file level.
	flagVerbose = true
	logger = buildLogger()
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	// --quiet beats everything.
	flagVerbose = false
	flagQuiet = true
	logger = buildLogger()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "********", redact("hunter2"))
	assert.Empty(t, redact(""))
}
