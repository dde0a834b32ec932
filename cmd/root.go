/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gnames/fungidb/internal/iofs"
	"github.com/gnames/fungidb/internal/iologger"
	app "github.com/gnames/fungidb/pkg"
	"github.com/gnames/fungidb/pkg/config"
	"github.com/gnames/fungidb/pkg/errcode"
	"github.com/gnames/gn"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	homeDir   string
	opts      []config.Option
	cfg       *config.Config
	logCloser io.Closer
)

// getRootCmd returns the root command with all subcommands attached.
// Every call creates an independent instance.
func getRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Version: fmt.Sprintf("version: %s\nbuild:   %s", app.Version, app.Build),
		Use:     "fungidb",
		Short:   "FungiDB builds a field-guide catalog of mushroom species",
		Long: `FungiDB turns observation site CSV exports into a catalog of
mushroom species and keeps their images on your own object storage.

Commands:
  - create:  create the species collection and its indexes
  - load:    read CSV exports and upsert one document per species
  - acquire: copy upstream images to S3-compatible storage
  - stats:   show catalog and image acquisition counts
  - export:  write stored documents as JSON lines
  - config:  print effective configuration

Configuration precedence (highest to lowest):
  1. CLI flags
  2. Environment variables (FUNGIDB_*)
  3. Config file (~/.config/fungidb/config.yaml)
  4. Built-in defaults

Nested keys use underscores: store.uri -> FUNGIDB_STORE_URI.`,
		PersistentPreRunE: bootstrap,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closeLog()
		},
		RunE:          runRoot,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// Remove the automatic "fungidb version" prefix
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	// Override version flag to use -V (consistent with other gn projects)
	rootCmd.Flags().BoolP("version", "V", false, "version for fungidb")

	rootCmd.AddCommand(
		getCreateCmd(),
		getLoadCmd(),
		getAcquireCmd(),
		getStatsCmd(),
		getExportCmd(),
		getConfigCmd(),
	)

	return rootCmd
}

func bootstrap(cmd *cobra.Command, args []string) error {
	var err error
	homeDir, err = os.UserHomeDir()
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureDirs(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	// Initialize logging with hardcoded defaults
	// Will be reconfigured later with user's config settings
	defaultLog := config.LogConfig{
		Format:      "json",
		Level:       "info",
		Destination: "file",
	}
	if err = initLogging(config.LogDir(homeDir), defaultLog); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureConfigFile(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	var cfgViper *config.Config
	if cfgViper, err = initConfig(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	cfg = config.New()
	opts = cfgViper.ToOptions()
	cfg.Update(opts)

	// Set HomeDir after config is loaded
	cfg.Update([]config.Option{config.OptHomeDir(homeDir)})

	if err = initLogging(config.LogDir(cfg.HomeDir), cfg.Log); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	slog.Info("Configuration loaded",
		"config_file", config.ConfigFilePath(homeDir),
		"command", cmd.Name(),
	)

	return nil
}

// initLogging replaces the default logger, closing the previous log file.
func initLogging(logDir string, logCfg config.LogConfig) error {
	closer, err := iologger.Init(logDir, logCfg)
	if err != nil {
		return err
	}
	closeLog()
	logCloser = closer
	return nil
}

func closeLog() {
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	return cmd.Help()
}

// Execute runs the root command and exits with the status of the run:
// 0 on success, 2 on partial failure, 1 on any other error.
// This is called by main.main().
func Execute() {
	err := getRootCmd().Execute()
	closeLog()
	if code := exitCode(err); code != 0 {
		os.Exit(code)
	}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var gnErr *gn.Error
	if errors.As(err, &gnErr) && gnErr.Code == errcode.PartialFailureError {
		return 2
	}
	return 1
}

func initConfig(home string) (*config.Config, error) {
	var err error
	cfgPath := config.ConfigFilePath(home)
	v := viper.New()
	v.SetConfigFile(cfgPath)

	initEnvVars(v)

	if err = v.ReadInConfig(); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	var res config.Config
	if err = v.Unmarshal(&res); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	return &res, nil
}

func initEnvVars(v *viper.Viper) {
	// Set environment variables we want.
	// We set them manually so we can see clearly which env variables are allowed.
	// These match the fields included in config.ToOptions() - i.e., persistent
	// configuration that can be stored in config.yaml.
	v.SetEnvPrefix("FUNGIDB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range envKeys {
		_ = v.BindEnv(key, envName(key))
	}

	v.AutomaticEnv()
}

var envKeys = []string{
	"input.dir",
	"input.delimiter",

	"store.uri",
	"store.db",
	"store.collection",
	"store.batch_size",

	"object_store.endpoint",
	"object_store.access_key",
	"object_store.secret",
	"object_store.bucket",
	"object_store.public_base_url",
	"object_store.use_ssl",

	"upstream.origin",

	"rate_limit.min_interval_ms",
	"rate_limit.requests_per_minute",
	"rate_limit.http_timeout_ms",

	"filters.min_confidence",

	"acquirer.batch_size",
	"acquirer.failure_cooldown_s",
	"acquirer.max_failures",
	"acquirer.watch_interval_s",

	"log.level",
	"log.format",
	"log.destination",

	"jobs_number",
}

// envName converts a config key to its environment variable,
// store.uri -> FUNGIDB_STORE_URI.
func envName(key string) string {
	key = strings.ReplaceAll(key, ".", "_")
	return "FUNGIDB_" + strings.ToUpper(key)
}
