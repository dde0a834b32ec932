package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gnames/fungidb/internal/ioacquire"
	"github.com/gnames/fungidb/internal/ioload"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGetRootCmd_Exists verifies getRootCmd returns
// a valid command.
func TestGetRootCmd_Exists(t *testing.T) {
	cmd := getRootCmd()
	require.NotNil(t, cmd, "Root command should exist")
	assert.Equal(t, "fungidb", cmd.Use,
		"Command name should be fungidb")
}

// TestGetRootCmd_Subcommands verifies every lifecycle command
// is registered.
func TestGetRootCmd_Subcommands(t *testing.T) {
	cmd := getRootCmd()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, name := range []string{
		"create", "load", "acquire", "stats", "export", "config",
	} {
		assert.Contains(t, names, name)
	}
}

// TestGetRootCmd_VersionFormat verifies version
// output format.
func TestGetRootCmd_VersionFormat(t *testing.T) {
	cmd := getRootCmd()
	cmd.Version = "version: v1.2.3\nbuild:   abc123"

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "v1.2.3")
	assert.Contains(t, output, "abc123")
	assert.NotContains(t, output, "fungidb version",
		"Should use custom version template")
}

// TestGetRootCmd_ShortVersionFlag verifies
// -V flag works.
func TestGetRootCmd_ShortVersionFlag(t *testing.T) {
	cmd := getRootCmd()
	cmd.Version = "version: v1.2.3\nbuild:   abc123"

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"-V"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "v1.2.3")
}

// TestGetRootCmd_HelpText verifies help text content.
func TestGetRootCmd_HelpText(t *testing.T) {
	cmd := getRootCmd()

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	require.NoError(t, err)

	helpText := buf.String()
	assert.Contains(t, helpText, "fungidb")
	assert.Contains(t, helpText, "FUNGIDB_")
	assert.Contains(t, helpText, "Available Commands")
}

// TestGetRootCmd_Settings verifies bootstrap and error silencing.
func TestGetRootCmd_Settings(t *testing.T) {
	cmd := getRootCmd()

	assert.NotNil(t, cmd.PersistentPreRunE,
		"PersistentPreRunE should be set for bootstrap")
	assert.NotNil(t, cmd.RunE)
	assert.True(t, cmd.SilenceErrors)
	assert.True(t, cmd.SilenceUsage)
}

// TestGetRootCmd_IndependentInstances verifies each
// call returns independent instance.
func TestGetRootCmd_IndependentInstances(t *testing.T) {
	cmd1 := getRootCmd()
	cmd2 := getRootCmd()

	assert.NotSame(t, cmd1, cmd2)

	cmd1.Version = "version1"
	cmd2.Version = "version2"
	assert.Equal(t, "version1", cmd1.Version)
	assert.Equal(t, "version2", cmd2.Version)
}

// TestGetRootCmd_InvalidCommand verifies error on
// invalid command.
func TestGetRootCmd_InvalidCommand(t *testing.T) {
	cmd := getRootCmd()

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"nonexistent-command"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.True(t,
		strings.Contains(buf.String(), "unknown") ||
			strings.Contains(err.Error(), "unknown"),
		"Error should indicate unknown command")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		msg  string
		err  error
		code int
	}{
		{"success", nil, 0},
		{"plain error", errors.New("boom"), 1},
		{"cancelled pass", ioacquire.CancelledError("p1", context.Canceled), 1},
		{"acquire budget", ioacquire.PartialFailureError("p1", 6, 5), 2},
		{"load rows", ioload.PartialFailureError(3, 0), 2},
	}

	for _, v := range tests {
		t.Run(v.msg, func(t *testing.T) {
			assert.Equal(t, v.code, exitCode(v.err))
		})
	}
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "FUNGIDB_STORE_URI", envName("store.uri"))
	assert.Equal(t, "FUNGIDB_OBJECT_STORE_PUBLIC_BASE_URL",
		envName("object_store.public_base_url"))
	assert.Equal(t, "FUNGIDB_JOBS_NUMBER", envName("jobs_number"))
}

func TestInitEnvVars(t *testing.T) {
	t.Setenv("FUNGIDB_STORE_URI", "sqlite:///tmp/fungi.db")
	t.Setenv("FUNGIDB_RATE_LIMIT_MIN_INTERVAL_MS", "2500")

	v := viper.New()
	initEnvVars(v)

	assert.Equal(t, "sqlite:///tmp/fungi.db", v.GetString("store.uri"))
	assert.Equal(t, 2500, v.GetInt("rate_limit.min_interval_ms"))
}
