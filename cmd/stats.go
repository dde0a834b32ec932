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
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gnames/fungidb/pkg/config"
	"github.com/gnames/fungidb/pkg/db"
	"github.com/gnames/gn"
	"github.com/spf13/cobra"
)

// catalogStats are counts shown by the stats command.
type catalogStats struct {
	Records   int
	WithImage int
	Rehosted  int
	Failed    int
	Pending   int
	Families  int
}

// getStatsCmd returns the stats command.
func getStatsCmd() *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog and image acquisition counts",
		Long: `Show the number of stored species, their images by acquisition
state and the number of distinct families.

Pending images are the ones the next 'fungidb acquire' pass would
try, failures within acquirer.failure_cooldown_s are not counted.

Examples:
  fungidb stats`,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runStats(cmd.OutOrStdout())
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	return statsCmd
}

func runStats(w io.Writer) error {
	ctx, stop := signalContext()
	defer stop()

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	st, err := collectStats(ctx, store, cfg, time.Now())
	if err != nil {
		return err
	}
	printStats(w, st)
	return nil
}

func collectStats(
	ctx context.Context,
	store db.Store,
	cfg *config.Config,
	now time.Time,
) (catalogStats, error) {
	var res catalogStats

	pending := db.Query{
		Image:        db.Pending,
		RehostPrefix: cfg.ObjectStore.PublicBaseURL,
	}
	if cd := cfg.Acquirer.FailureCooldown(); cd > 0 {
		pending.FailedBefore = now.Add(-cd)
	}

	counts := []struct {
		q   db.Query
		val *int
	}{
		{db.Query{}, &res.Records},
		{db.Query{Image: db.WithImage}, &res.WithImage},
		{db.Query{Image: db.Rehosted}, &res.Rehosted},
		{db.Query{Image: db.Failed}, &res.Failed},
		{pending, &res.Pending},
	}
	for _, v := range counts {
		n, err := store.Count(ctx, v.q)
		if err != nil {
			return res, err
		}
		*v.val = n
	}

	families, err := store.Distinct(ctx, "family")
	if err != nil {
		return res, err
	}
	res.Families = len(families)
	return res, nil
}

func printStats(w io.Writer, st catalogStats) {
	if w == nil {
		w = os.Stdout
	}
	rows := []struct {
		label string
		val   int
	}{
		{"Species", st.Records},
		{"Families", st.Families},
		{"With image", st.WithImage},
		{"Rehosted", st.Rehosted},
		{"Failed", st.Failed},
		{"Pending", st.Pending},
	}
	for _, v := range rows {
		fmt.Fprintf(w, "%-12s %10s\n", v.label, humanize.Comma(int64(v.val)))
	}
}
