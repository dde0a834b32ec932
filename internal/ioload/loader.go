// Package ioload implements the Loader interface: it joins CSV exports,
// assembles species records and upserts them into the document store
// in batches.
package ioload

import (
	"context"
	"log/slog"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/gnames/fungidb/internal/iojoin"
	"github.com/gnames/fungidb/pkg/config"
	"github.com/gnames/fungidb/pkg/db"
	"github.com/gnames/fungidb/pkg/lifecycle"
	"github.com/gnames/fungidb/pkg/species"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
)

// loader implements the lifecycle.Loader interface.
type loader struct {
	store db.Store
}

// New creates a Loader. The store may be nil for dry runs.
func New(store db.Store) lifecycle.Loader {
	return &loader{store: store}
}

// run keeps the state of one load.
type run struct {
	cfg     *config.Config
	store   db.Store
	batch   []*species.Record
	batchNo int
	stats   db.UpsertStats
	sum     lifecycle.LoadSummary
}

// Load reads the export directory of cfg and writes species records.
// A cancelled load keeps batches written so far.
func (l *loader) Load(
	ctx context.Context,
	cfg *config.Config,
) (lifecycle.LoadSummary, error) {
	var sum lifecycle.LoadSummary
	if err := cfg.CheckLoad(); err != nil {
		return sum, err
	}
	if l.store == nil && !cfg.Load.DryRun {
		return sum, NotConnectedError()
	}

	start := time.Now()
	slog.Info("Starting load", "dir", cfg.Input.Dir, "dry_run", cfg.Load.DryRun)

	j := iojoin.New(cfg)
	aggs, err := j.Join(ctx)
	if err != nil {
		return sum, err
	}
	jst := j.Stats()

	r := &run{
		cfg:   cfg,
		store: l.store,
		batch: make([]*species.Record, 0, cfg.Store.BatchSize),
	}
	asm := species.NewAssembler(cfg.Upstream.Origin, cfg.Filters.MinConfidence)

	bar := pb.Full.Start(jst.Species)
	bar.Set("prefix", "Assembling species: ")
	bar.Set(pb.CleanOnFinish, true)
	defer bar.Finish()

	for agg := range aggs {
		if err = ctx.Err(); err != nil {
			return r.summary(jst), CancelledError(err)
		}
		rec, ws := asm.Assemble(agg)
		for _, w := range ws {
			slog.Warn("Species warning",
				"name_id", w.NameID, "name", w.Name, "warning", w.Msg)
		}
		r.sum.Warnings += len(ws)
		bar.Increment()
		if rec == nil {
			continue
		}
		r.sum.Species++
		r.batch = append(r.batch, rec)
		if len(r.batch) >= cfg.Store.BatchSize {
			if err = r.flush(ctx); err != nil {
				return r.summary(jst), err
			}
		}
	}
	if err = r.flush(ctx); err != nil {
		return r.summary(jst), err
	}
	bar.Finish()

	res := r.summary(jst)
	report(res, time.Since(start), cfg.Load.DryRun)
	return res, nil
}

// flush writes the current batch. Stored acquisition state survives
// a reload when the selected image is the same.
func (r *run) flush(ctx context.Context) error {
	if len(r.batch) == 0 {
		return nil
	}
	defer func() { r.batch = r.batch[:0] }()
	r.batchNo++
	if r.cfg.Load.DryRun {
		return nil
	}

	names := make([]string, len(r.batch))
	for i, rec := range r.batch {
		names[i] = rec.ScientificName
	}
	stored, err := r.store.Find(ctx, db.Query{Names: names})
	if err != nil {
		return UpsertError(r.batchNo, err)
	}
	if len(stored) > 0 {
		byName := make(map[string]*species.Record, len(stored))
		for _, s := range stored {
			byName[s.ScientificName] = s
		}
		for _, rec := range r.batch {
			if s, ok := byName[rec.ScientificName]; ok {
				rec.Image = species.KeepAcquired(s.Image, rec.Image)
			}
		}
	}

	st, err := r.store.Upsert(ctx, r.batch)
	r.stats = r.stats.Add(st)
	if err != nil {
		if ctx.Err() != nil {
			return CancelledError(err)
		}
		return UpsertError(r.batchNo, err)
	}
	slog.Debug("Wrote batch", "batch", r.batchNo,
		"inserted", st.Inserted, "updated", st.Updated,
		"rejected", st.Rejected())
	return nil
}

func (r *run) summary(jst iojoin.Stats) lifecycle.LoadSummary {
	res := r.sum
	res.Inserted = r.stats.Inserted
	res.Updated = r.stats.Updated
	res.Rejected = r.stats.Rejected()
	res.RowErrors = jst.RowErrors
	res.Warnings += jst.Warnings
	return res
}

func report(s lifecycle.LoadSummary, dur time.Duration, dryRun bool) {
	slog.Info("Load finished",
		"species", s.Species,
		"inserted", s.Inserted,
		"updated", s.Updated,
		"rejected", s.Rejected,
		"row_errors", s.RowErrors,
		"warnings", s.Warnings,
		"duration", gnfmt.TimeString(dur.Seconds()),
	)
	if dryRun {
		gn.Info("Dry run assembled <em>%s</em> species records",
			humanize.Comma(int64(s.Species)))
		return
	}
	gn.Info("Loaded <em>%s</em> species: %s new, %s updated",
		humanize.Comma(int64(s.Species)),
		humanize.Comma(int64(s.Inserted)),
		humanize.Comma(int64(s.Updated)),
	)
	if s.Failed() {
		gn.Warn("%s records rejected, %s input rows skipped",
			humanize.Comma(int64(s.Rejected)),
			humanize.Comma(int64(s.RowErrors)))
	}
}
