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
	"github.com/gnames/fungidb/internal/ioacquire"
	"github.com/gnames/fungidb/internal/ioobject"
	"github.com/gnames/fungidb/pkg/config"
	"github.com/gnames/gn"
	"github.com/spf13/cobra"
)

// getAcquireCmd returns the acquire command.
func getAcquireCmd() *cobra.Command {
	var (
		watch bool
		limit int
	)

	acquireCmd := &cobra.Command{
		Use:   "acquire",
		Short: "Copy upstream images to the object store",
		Long: `Download images of stored species from the observation site and
upload them to S3-compatible storage.

This command:
  1. Selects records whose image is not rehosted yet, skipping
     recent failures (acquirer.failure_cooldown_s)
  2. Fetches every image under the rate limit
     (rate_limit.min_interval_ms, rate_limit.requests_per_minute)
  3. Uploads it to the bucket and points the record to the public URL
  4. Records the error and time of failed attempts

A pass stops with status 2 when failures exceed
acquirer.max_failures. With --watch passes repeat every
acquirer.watch_interval_s seconds until interrupted.

Examples:
  fungidb acquire
  fungidb acquire --limit 100
  fungidb acquire --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var acqOpts []config.Option
			if cmd.Flags().Changed("watch") {
				acqOpts = append(acqOpts, config.OptAcquirerWatch(watch))
			}
			if cmd.Flags().Changed("limit") {
				acqOpts = append(acqOpts, config.OptAcquirerLimit(limit))
			}
			cfg.Update(acqOpts)

			err := runAcquire()
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	acquireCmd.Flags().BoolVarP(
		&watch, "watch", "w", false,
		"repeat passes until interrupted",
	)
	acquireCmd.Flags().IntVarP(
		&limit, "limit", "l", 0,
		"maximum records per pass (0 = no limit)",
	)

	return acquireCmd
}

func runAcquire() error {
	ctx, stop := signalContext()
	defer stop()

	if err := cfg.CheckAcquirer(); err != nil {
		return err
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if err = checkCollection(ctx, store); err != nil {
		return err
	}

	objects := ioobject.New()
	if err = objects.Connect(ctx, &cfg.ObjectStore); err != nil {
		return err
	}

	acq := ioacquire.New(cfg, store, objects)

	if cfg.Acquirer.Watch {
		gn.Info("Watching for pending images every <em>%s</em>, "+
			"press Ctrl-C to stop", cfg.Acquirer.WatchInterval())
		return ioacquire.Watch(ctx, acq, cfg.Acquirer.WatchInterval())
	}

	_, err = acq.Run(ctx)
	return err
}
