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
	"bufio"
	"context"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/gnames/fungidb/internal/iofs"
	"github.com/gnames/fungidb/pkg/db"
	"github.com/gnames/fungidb/pkg/species"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/spf13/cobra"
)

// exportDoc is one line of the export: the stored document with its id.
type exportDoc struct {
	ID string `json:"id"`
	*species.Record
}

// getExportCmd returns the export command.
func getExportCmd() *cobra.Command {
	var output string

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write stored species documents as JSON lines",
		Long: `Write every stored species document as one JSON object per line,
ordered by record id. Each object carries the record "id" next to
the document fields.

Without --output documents are written to STDOUT.

Examples:
  fungidb export > species.jsonl
  fungidb export -o species.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runExport(cmd.OutOrStdout(), output)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	exportCmd.Flags().StringVarP(
		&output, "output", "o", "",
		"output file (default STDOUT)",
	)

	return exportCmd
}

func runExport(stdout io.Writer, output string) error {
	ctx, stop := signalContext()
	defer stop()

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	w := stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return iofs.CreateFileError(output, err)
		}
		defer f.Close()
		w = f
	}

	n, err := exportRecords(ctx, store, w, cfg.Store.BatchSize)
	if err != nil {
		return err
	}
	if output != "" {
		gn.Info("Exported <em>%s</em> records to <em>%s</em>",
			humanize.Comma(int64(n)), output)
	}
	return nil
}

// exportRecords pages through the store in id order and writes every
// record as a line of JSON. It returns the number of written records.
func exportRecords(
	ctx context.Context,
	store db.Store,
	w io.Writer,
	batchSize int,
) (int, error) {
	bw := bufio.NewWriter(w)
	enc := gnfmt.GNjson{}
	q := db.Query{Limit: batchSize}

	var count int
	for {
		recs, err := store.Find(ctx, q)
		if err != nil {
			return count, err
		}
		if len(recs) == 0 {
			break
		}
		for _, r := range recs {
			line, err := enc.Encode(exportDoc{ID: r.ID, Record: r})
			if err != nil {
				return count, err
			}
			if _, err = bw.Write(line); err != nil {
				return count, err
			}
			if err = bw.WriteByte('\n'); err != nil {
				return count, err
			}
			count++
		}
		q.AfterID = recs[len(recs)-1].ID
		if batchSize <= 0 {
			break
		}
	}
	return count, bw.Flush()
}
