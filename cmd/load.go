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
	"github.com/gnames/fungidb/internal/ioload"
	"github.com/gnames/fungidb/pkg/config"
	"github.com/gnames/fungidb/pkg/db"
	"github.com/gnames/gn"
	"github.com/spf13/cobra"
)

// getLoadCmd returns the load command.
func getLoadCmd() *cobra.Command {
	var (
		inputDir      string
		minConfidence float64
		batchSize     int
		dryRun        bool
	)

	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Load species from CSV exports into the document store",
		Long: `Read observation site CSV exports and upsert one document per
species.

This command:
  1. Reads names, classifications, descriptions, locations,
     observations and images from the input directory
  2. Keeps non-deprecated species-rank names
  3. Cleans descriptions and extracts common names and references
  4. Chooses the best image from observations with enough
     confidence (filters.min_confidence)
  5. Upserts documents by scientific name in batches

Images that were already rehosted are kept when their upstream
URL did not change.

The command exits with status 2 if some rows were skipped or some
records were rejected by the store.

Examples:
  fungidb load --input-dir ~/data/mo
  fungidb load -i ~/data/mo -m 1.5
  fungidb load --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var loadOpts []config.Option
			if cmd.Flags().Changed("input-dir") {
				loadOpts = append(loadOpts, config.OptInputDir(inputDir))
			}
			if cmd.Flags().Changed("min-confidence") {
				loadOpts = append(loadOpts,
					config.OptFiltersMinConfidence(minConfidence))
			}
			if cmd.Flags().Changed("batch-size") {
				loadOpts = append(loadOpts, config.OptStoreBatchSize(batchSize))
			}
			if cmd.Flags().Changed("dry-run") {
				loadOpts = append(loadOpts, config.OptLoadDryRun(dryRun))
			}
			cfg.Update(loadOpts)

			err := runLoad()
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	loadCmd.Flags().StringVarP(
		&inputDir, "input-dir", "i", "",
		"directory with CSV exports",
	)
	loadCmd.Flags().Float64VarP(
		&minConfidence, "min-confidence", "m", 0,
		"minimal observation confidence for images",
	)
	loadCmd.Flags().IntVarP(
		&batchSize, "batch-size", "b", 0,
		"documents per upsert batch",
	)
	loadCmd.Flags().BoolVarP(
		&dryRun, "dry-run", "n", false,
		"assemble and count records without writing them",
	)

	return loadCmd
}

func runLoad() error {
	ctx, stop := signalContext()
	defer stop()

	if err := cfg.CheckLoad(); err != nil {
		return err
	}

	var store db.Store
	if !cfg.Load.DryRun {
		var err error
		if store, err = openStore(ctx); err != nil {
			return err
		}
		defer store.Close()

		if err = checkCollection(ctx, store); err != nil {
			return err
		}
	}

	summary, err := ioload.New(store).Load(ctx, cfg)
	if err != nil {
		return err
	}

	if summary.Failed() {
		return ioload.PartialFailureError(summary.RowErrors, summary.Rejected)
	}
	return nil
}
