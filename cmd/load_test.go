package cmd

import (
	"errors"
	"testing"

	"github.com/gnames/fungidb/internal/iojoin"
	"github.com/gnames/fungidb/internal/iotesting"
	"github.com/gnames/fungidb/pkg/config"
	"github.com/gnames/fungidb/pkg/errcode"
	"github.com/gnames/gn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGetLoadCmd_Flags verifies flags of the load command.
func TestGetLoadCmd_Flags(t *testing.T) {
	cmd := getLoadCmd()
	require.NotNil(t, cmd)
	assert.Equal(t, "load", cmd.Use)
	assert.NotNil(t, cmd.RunE)

	tests := []struct {
		name, short, def string
	}{
		{"input-dir", "i", ""},
		{"min-confidence", "m", "0"},
		{"batch-size", "b", "0"},
		{"dry-run", "n", "false"},
	}
	for _, v := range tests {
		t.Run(v.name, func(t *testing.T) {
			f := cmd.Flags().Lookup(v.name)
			require.NotNil(t, f)
			assert.Equal(t, v.short, f.Shorthand)
			assert.Equal(t, v.def, f.DefValue)
		})
	}
}

func loadExport(t *testing.T, observations ...string) string {
	return iotesting.WriteExport(t, map[string][]string{
		iojoin.NamesFile: {
			"id|text_name|author|deprecated|rank",
			"10|Amanita muscaria|(L.) Lam.|0|4",
			"14|Boletus edulis|Bull.|0|4",
		},
		iojoin.ObservationsFile: append(
			[]string{"id|name_id|when|location_id|vote_cache"},
			observations...,
		),
	})
}

func TestRunLoadDryRun(t *testing.T) {
	dir := loadExport(t, "1000|10|2019-11-02|NULL|2.5")
	cfg = config.New()
	cfg.Update([]config.Option{
		config.OptInputDir(dir),
		config.OptLoadDryRun(true),
	})

	assert.NoError(t, runLoad())
}

func TestRunLoadRowErrors(t *testing.T) {
	dir := loadExport(t,
		"1000|10|2019-11-02|NULL|2.5",
		"1001|14|someday|NULL|2.5",
	)
	cfg = config.New()
	cfg.Update([]config.Option{
		config.OptInputDir(dir),
		config.OptLoadDryRun(true),
	})

	err := runLoad()
	require.Error(t, err)
	var gnErr *gn.Error
	require.True(t, errors.As(err, &gnErr))
	assert.Equal(t, errcode.PartialFailureError, gnErr.Code)
	assert.Equal(t, 2, exitCode(err))
}

func TestRunLoadBadConfig(t *testing.T) {
	cfg = config.New()
	cfg.Input.Dir = ""

	err := runLoad()
	require.Error(t, err)
	var gnErr *gn.Error
	require.True(t, errors.As(err, &gnErr))
	assert.Equal(t, errcode.ConfigError, gnErr.Code)
	assert.Equal(t, 1, exitCode(err))
}
