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
	"io"
	"net/url"

	"github.com/gnames/fungidb/pkg/config"
	"github.com/gnames/gn"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const mask = "********"

// getConfigCmd returns the config command.
func getConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print effective configuration",
		Long: `Print configuration after applying the config file and FUNGIDB_*
environment variables. Passwords and secrets are masked.

Examples:
  fungidb config
  FUNGIDB_LOG_LEVEL=debug fungidb config`,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := printConfig(cmd.OutOrStdout(), cfg)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	return configCmd
}

func printConfig(w io.Writer, c *config.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(masked(c)); err != nil {
		return err
	}
	return enc.Close()
}

// masked returns a copy of the config with credentials hidden.
func masked(c *config.Config) config.Config {
	res := *c
	if res.ObjectStore.AccessKey != "" {
		res.ObjectStore.AccessKey = mask
	}
	if res.ObjectStore.Secret != "" {
		res.ObjectStore.Secret = mask
	}
	if u, err := url.Parse(res.Store.URI); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), mask)
			res.Store.URI = u.String()
		}
	}
	return res
}
