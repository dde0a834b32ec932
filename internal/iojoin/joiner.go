// Package iojoin joins the CSV exports of the observation site into one
// aggregate per accepted species. Small lookup tables are loaded
// concurrently, large tables (observations, images) are streamed and
// only rows relevant to accepted species are kept.
package iojoin

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gnames/fungidb/internal/iocsv"
	"github.com/gnames/fungidb/pkg/config"
	"github.com/gnames/fungidb/pkg/species"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"golang.org/x/sync/errgroup"
)

// Stats counts what the joiner has read.
type Stats struct {
	Species      int
	Observations int
	Images       int
	RowErrors    int
	Warnings     int
	// FileErrors lists optional files that could not be read.
	FileErrors []string
}

type nameRow struct {
	id     int
	name   string
	author string
}

type obsRef struct {
	nameID int
	vote   float64
}

type imageLink struct {
	obsID  int
	nameID int
	vote   float64
}

// Joiner builds species aggregates from an export directory.
type Joiner struct {
	dir           string
	delim         rune
	minConfidence float64
	jobs          int

	mu    sync.Mutex
	stats Stats

	names           map[int]*nameRow
	order           []int
	classifications map[int]species.Classification
	descriptions    map[int]*species.RawDescription
	locations       map[int]string
	observations    map[int][]species.Observation
	obsIndex        map[int]obsRef
	obsLocations    map[int][]int
	links           map[int][]imageLink
	candidates      map[int][]species.Candidate
}

// New creates a Joiner for the input settings of cfg.
func New(cfg *config.Config) *Joiner {
	return &Joiner{
		dir:           cfg.Input.Dir,
		delim:         cfg.Input.DelimiterRune(),
		minConfidence: cfg.Filters.MinConfidence,
		jobs:          cfg.JobsNumber,
	}
}

// Stats returns counters collected by Join.
func (j *Joiner) Stats() Stats {
	j.mu.Lock()
	defer j.mu.Unlock()
	res := j.stats
	res.FileErrors = slices.Clone(j.stats.FileErrors)
	return res
}

// Join reads all input files and returns aggregates in name id order.
// Only a missing or malformed names file stops the join, problems with
// other files leave the corresponding fields absent.
func (j *Joiner) Join(ctx context.Context) (iter.Seq[species.Aggregate], error) {
	start := time.Now()

	if err := j.loadNames(); err != nil {
		return nil, err
	}
	gn.Info("Found <em>%s</em> species names",
		humanize.Comma(int64(len(j.order))))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(max(j.jobs, 1))
	g.Go(j.optional(ClassificationsFile, j.loadClassifications))
	g.Go(j.optional(DescriptionsFile, j.loadDescriptions))
	g.Go(j.optional(LocationsFile, j.loadLocations))
	g.Go(j.optional(LocationDescriptionsFile, j.checkLocationDescriptions))
	if err := g.Wait(); err != nil {
		return nil, err
	}

	steps := []struct {
		file string
		fn   func(*iocsv.Reader) error
	}{
		{ObservationsFile, j.loadObservations},
		{ImagesObservationsFile, j.loadImageLinks},
		{ImagesFile, j.loadImages},
	}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := j.optional(s.file, s.fn)(); err != nil {
			return nil, err
		}
	}

	j.mu.Lock()
	j.stats.Species = len(j.order)
	j.mu.Unlock()

	slog.Info("Joined input files",
		"species", len(j.order),
		"observations", j.stats.Observations,
		"images", j.stats.Images,
		"duration", gnfmt.TimeString(time.Since(start).Seconds()),
	)
	return j.aggregates(), nil
}

// optional wraps a loader of a file whose absence or bad header is not
// fatal for the run.
func (j *Joiner) optional(
	file string,
	fn func(*iocsv.Reader) error,
) func() error {
	return func() error {
		err := j.read(file, fn)
		if err == nil {
			return nil
		}
		var gnErr *gn.Error
		if errors.As(err, &gnErr) {
			slog.Error("Cannot use input file", "file", file, "error", err)
			j.mu.Lock()
			j.stats.FileErrors = append(j.stats.FileErrors, file)
			j.mu.Unlock()
			return nil
		}
		return err
	}
}

// read opens a file, validates its header and runs fn over it.
func (j *Joiner) read(file string, fn func(*iocsv.Reader) error) error {
	path := filepath.Join(j.dir, file)
	if _, err := os.Stat(path); err != nil {
		return iocsv.InputFileError(path, err)
	}
	r, err := iocsv.Open(path, j.delim)
	if err != nil {
		return err
	}
	defer r.Close()

	if err = r.Require(required[file]...); err != nil {
		return err
	}
	if err = fn(r); err != nil {
		return err
	}
	if err = r.Err(); err != nil {
		return err
	}

	j.mu.Lock()
	j.stats.RowErrors += r.Skipped()
	j.mu.Unlock()
	return nil
}

func (j *Joiner) warn(msg string, args ...any) {
	j.mu.Lock()
	j.stats.Warnings++
	j.mu.Unlock()
	slog.Warn(msg, args...)
}

// aggregates yields one aggregate per species in name id order.
func (j *Joiner) aggregates() iter.Seq[species.Aggregate] {
	return func(yield func(species.Aggregate) bool) {
		for _, id := range j.order {
			if !yield(j.aggregate(id)) {
				return
			}
		}
	}
}

func (j *Joiner) aggregate(id int) species.Aggregate {
	n := j.names[id]
	res := species.Aggregate{
		NameID:         id,
		Name:           n.name,
		Author:         n.author,
		Classification: j.classifications[id],
		Description:    j.descriptions[id],
		Observations:   j.observations[id],
		Images:         j.candidates[id],
	}

	seen := make(map[int]struct{})
	for _, locID := range j.obsLocations[id] {
		if _, ok := seen[locID]; ok {
			continue
		}
		seen[locID] = struct{}{}
		if loc, ok := j.locations[locID]; ok {
			res.Locations = append(res.Locations, loc)
		}
	}
	return res
}
