// Package ioacquire implements the Acquirer interface. It moves images
// of stored species from the upstream origin to the object store, one
// record at a time under the rate-limit governor.
package ioacquire

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gnames/fungidb/internal/iofetch"
	"github.com/gnames/fungidb/pkg/config"
	"github.com/gnames/fungidb/pkg/db"
	"github.com/gnames/fungidb/pkg/errcode"
	"github.com/gnames/fungidb/pkg/lifecycle"
	"github.com/gnames/fungidb/pkg/species"
	"github.com/gnames/fungidb/pkg/throttle"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/google/uuid"
)

// KeyPrefix is the folder of rehosted images in the bucket.
const KeyPrefix = "mushrooms"

// DefaultExt is used when the image URL has no known extension.
const DefaultExt = "jpg"

var extensions = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "webp": {},
}

// Fetcher downloads an image.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*iofetch.Image, error)
}

// acquirer implements the lifecycle.Acquirer interface.
type acquirer struct {
	cfg     *config.Config
	store   db.Store
	objects db.ObjectStore
	fetcher Fetcher
	gov     *throttle.Governor
	now     func() time.Time
}

// Option configures the acquirer.
type Option func(*acquirer)

// OptFetcher replaces the HTTP fetcher.
func OptFetcher(f Fetcher) Option {
	return func(a *acquirer) { a.fetcher = f }
}

// OptGovernor replaces the rate-limit governor.
func OptGovernor(g *throttle.Governor) Option {
	return func(a *acquirer) { a.gov = g }
}

// OptNow replaces the clock used for timestamps and object keys.
func OptNow(now func() time.Time) Option {
	return func(a *acquirer) { a.now = now }
}

// New creates an Acquirer for connected stores. The governor is built
// from rate_limit settings and shared by all passes.
func New(
	cfg *config.Config,
	store db.Store,
	objects db.ObjectStore,
	opts ...Option,
) lifecycle.Acquirer {
	rl := cfg.RateLimit
	res := &acquirer{
		cfg:     cfg,
		store:   store,
		objects: objects,
		fetcher: iofetch.New(rl.HTTPTimeout()),
		gov:     throttle.New(rl.MinInterval(), rl.RequestsPerMinute),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

// Run makes one pass over pending records in id order. Every record is
// attempted at most once. Per-record failures are written to the record
// and counted, they stop the pass only when acquirer.max_failures is
// exceeded.
func (a *acquirer) Run(ctx context.Context) (lifecycle.AcquireSummary, error) {
	sum := lifecycle.AcquireSummary{PassID: uuid.NewString()}
	acq := a.cfg.Acquirer
	start := a.now()

	q := db.Query{
		Image:        db.Pending,
		RehostPrefix: a.cfg.ObjectStore.PublicBaseURL,
		Limit:        acq.BatchSize,
	}
	if cd := acq.FailureCooldown(); cd > 0 {
		q.FailedBefore = start.Add(-cd)
	}

	log := slog.With("pass_id", sum.PassID)
	log.Info("Starting image pass", "limit", acq.Limit)

	for {
		recs, err := a.store.Find(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return sum, CancelledError(sum.PassID, ctx.Err())
			}
			return sum, err
		}
		if len(recs) == 0 {
			break
		}

		for _, rec := range recs {
			if acq.Limit > 0 && sum.Processed >= acq.Limit {
				a.report(log, sum, start)
				return sum, nil
			}
			if err = a.process(ctx, log, rec, &sum); err != nil {
				return sum, CancelledError(sum.PassID, err)
			}
			q.AfterID = rec.ID

			lost := sum.Failed + sum.StoreErrors
			if acq.MaxFailures > 0 && lost > acq.MaxFailures {
				a.report(log, sum, start)
				return sum, PartialFailureError(sum.PassID, lost, acq.MaxFailures)
			}
		}
	}

	a.report(log, sum, start)
	return sum, nil
}

// process moves one record through fetch, upload and update. It
// returns an error only on cancellation, leaving the record unchanged.
func (a *acquirer) process(
	ctx context.Context,
	log *slog.Logger,
	rec *species.Record,
	sum *lifecycle.AcquireSummary,
) error {
	if rec.Image == nil {
		return nil
	}
	img := *rec.Image
	src := img.UpstreamURL()

	var fetched *iofetch.Image
	err := a.gov.Schedule(ctx, func(ctx context.Context) error {
		var ferr error
		fetched, ferr = a.fetcher.Fetch(ctx, src)
		return ferr
	})

	var publicURL string
	if err == nil {
		ext := Extension(fetched.FinalURL)
		key := ObjectKey(rec.ID, a.now(), ext)
		publicURL, err = a.objects.Put(ctx, key,
			bytes.NewReader(fetched.Body), int64(len(fetched.Body)),
			ContentType(ext))
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	rehosted := err == nil
	if rehosted {
		img.Rehost(publicURL, a.now())
	} else {
		img.Fail(failureReason(err), a.now())
		log.Warn("Cannot acquire image",
			"name", rec.ScientificName, "url", src, "error", err)
	}

	if uerr := a.store.UpdateImage(ctx, rec.ID, &img); uerr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		sum.StoreErrors++
		log.Error("Cannot update record",
			"name", rec.ScientificName, "id", rec.ID, "error", uerr)
		sum.Processed++
		return nil
	}

	sum.Processed++
	if rehosted {
		sum.Rehosted++
		log.Debug("Rehosted image", "name", rec.ScientificName, "url", publicURL)
	} else {
		sum.Failed++
	}
	return nil
}

func (a *acquirer) report(
	log *slog.Logger,
	sum lifecycle.AcquireSummary,
	start time.Time,
) {
	log.Info("Image pass finished",
		"processed", sum.Processed,
		"rehosted", sum.Rehosted,
		"failed", sum.Failed,
		"store_errors", sum.StoreErrors,
		"duration", gnfmt.TimeString(a.now().Sub(start).Seconds()),
	)
	gn.Info("Pass <em>%s</em>: %s processed, %s rehosted, %s failed",
		sum.PassID,
		humanize.Comma(int64(sum.Processed)),
		humanize.Comma(int64(sum.Rehosted)),
		humanize.Comma(int64(sum.Failed+sum.StoreErrors)),
	)
}

// failureReason returns a short message stored with the record.
func failureReason(err error) string {
	var gnErr *gn.Error
	if errors.As(err, &gnErr) {
		if gnErr.Code == errcode.FetchError {
			return gnErr.Msg
		}
		if gnErr.Err != nil {
			return gnErr.Err.Error()
		}
	}
	return err.Error()
}

// Extension returns the lower-cased extension of the URL path if it is
// a known image type, DefaultExt otherwise.
func Extension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return DefaultExt
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), "."))
	if _, ok := extensions[ext]; ok {
		return ext
	}
	return DefaultExt
}

// ContentType returns the MIME type of an extension.
func ContentType(ext string) string {
	if ext == "jpg" {
		return "image/jpeg"
	}
	return "image/" + ext
}

// ObjectKey returns a unique key of a rehosted image.
func ObjectKey(recordID string, at time.Time, ext string) string {
	return fmt.Sprintf("%s/%s-%d.%s", KeyPrefix, recordID, at.UnixMilli(), ext)
}

// Watch runs passes until ctx is cancelled, pausing between them.
// Partial failures are logged and the next pass starts as usual.
func Watch(
	ctx context.Context,
	acq lifecycle.Acquirer,
	interval time.Duration,
) error {
	for {
		_, err := acq.Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		var gnErr *gn.Error
		if errors.As(err, &gnErr) && gnErr.Code == errcode.PartialFailureError {
			slog.Warn("Image pass exceeded failure budget", "error", err)
		} else if err != nil {
			return err
		}

		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}
