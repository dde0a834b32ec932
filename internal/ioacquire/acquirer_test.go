package ioacquire_test

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gnames/fungidb/internal/ioacquire"
	"github.com/gnames/fungidb/internal/iofetch"
	"github.com/gnames/fungidb/internal/iotesting"
	"github.com/gnames/fungidb/pkg/config"
	"github.com/gnames/fungidb/pkg/db"
	"github.com/gnames/fungidb/pkg/errcode"
	"github.com/gnames/fungidb/pkg/lifecycle"
	"github.com/gnames/fungidb/pkg/species"
	"github.com/gnames/fungidb/pkg/throttle"
	"github.com/gnames/gn"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const publicBase = "https://cdn.example.org/fungi"

// clock is a fake time source that moves only when sleeping or when a
// test advances it.
type clock struct {
	mu    sync.Mutex
	t     time.Time
	slept []time.Duration
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
	c.slept = append(c.slept, d)
	return nil
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	cfg     *config.Config
	store   *iotesting.MemStore
	objects *iotesting.MemObjects
	clock   *clock
	acq     lifecycle.Acquirer
}

func setup(t *testing.T, opts ...config.Option) *fixture {
	t.Helper()
	cfg := config.New()
	cfg.Update(append([]config.Option{
		config.OptObjectStorePublicBaseURL(publicBase),
		config.OptAcquirerBatchSize(2),
	}, opts...))

	res := &fixture{
		cfg:     cfg,
		store:   iotesting.NewMemStore(),
		objects: iotesting.NewMemObjects(publicBase),
		clock:   &clock{t: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)},
	}

	f := iofetch.New(time.Second)
	httpmock.ActivateNonDefault(f.Client())
	t.Cleanup(httpmock.DeactivateAndReset)

	gov := throttle.New(cfg.RateLimit.MinInterval(),
		cfg.RateLimit.RequestsPerMinute,
		throttle.OptClock(res.clock.now, res.clock.sleep))
	res.acq = ioacquire.New(cfg, res.store, res.objects,
		ioacquire.OptFetcher(f),
		ioacquire.OptGovernor(gov),
		ioacquire.OptNow(res.clock.now),
	)
	return res
}

// seed stores one record per image id and returns their names.
func (f *fixture) seed(t *testing.T, imageIDs ...int) []string {
	t.Helper()
	var recs []*species.Record
	var names []string
	for _, id := range imageIDs {
		name := fmt.Sprintf("Amanita sp%d", id)
		names = append(names, name)
		recs = append(recs, &species.Record{
			ID:             species.RecordID(name),
			ScientificName: name,
			Image: &species.Image{
				URL:    species.ImageURL(f.cfg.Upstream.Origin, id),
				Source: species.SourceUpstream,
			},
		})
	}
	_, err := f.store.Upsert(context.Background(), recs)
	require.NoError(t, err)
	return names
}

func (f *fixture) respond(id, status int) {
	url := species.ImageURL(f.cfg.Upstream.Origin, id)
	resp := httpmock.NewBytesResponse(status, []byte("\xff\xd8\xffimage"))
	resp.Header.Set("Content-Type", "image/jpeg")
	httpmock.RegisterResponder(http.MethodGet, url,
		httpmock.ResponderFromResponse(resp))
}

func TestStateMachine(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	name := f.seed(t, 7)[0]
	upstream := species.ImageURL(f.cfg.Upstream.Origin, 7)

	f.respond(7, 500)
	sum, err := f.acq.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 1, sum.Failed)
	assert.NotEmpty(t, sum.PassID)

	rec := f.store.Get(name)
	assert.Equal(t, species.StateFailed, rec.Image.State())
	assert.Equal(t, upstream, rec.Image.URL)
	assert.Equal(t, "HTTP 500", rec.Image.ProcessingError)

	// within the cooldown the record is not selected
	sum, err = f.acq.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Processed)

	f.clock.advance(f.cfg.Acquirer.FailureCooldown() + time.Minute)
	f.respond(7, 200)
	sum, err = f.acq.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Rehosted)

	rec = f.store.Get(name)
	img := rec.Image
	assert.Equal(t, species.StateRehosted, img.State())
	assert.True(t, img.IsRehostedAt(publicBase))
	assert.Equal(t, upstream, img.OriginalURL)
	assert.Empty(t, img.ProcessingError)
	assert.Nil(t, img.ProcessingFailedAt)
	require.NotNil(t, img.ProcessedAt)

	key := strings.TrimPrefix(img.URL, publicBase+"/")
	assert.True(t, strings.HasPrefix(key, "mushrooms/"+rec.ID+"-"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.Equal(t, "image/jpeg", f.objects.Types[key])

	// rehosted records are left alone
	sum, err = f.acq.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Processed)
	assert.Equal(t, img.URL, f.store.Get(name).Image.URL)
}

func TestRunPagesAndRateLimit(t *testing.T) {
	f := setup(t)
	ids := []int{1, 2, 3, 4, 5}
	f.seed(t, ids...)
	for _, id := range ids {
		f.respond(id, 200)
	}

	sum, err := f.acq.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, sum.Processed)
	assert.Equal(t, 5, sum.Rehosted)
	assert.Len(t, f.objects.Objects, 5)

	// the first fetch goes at once, the others wait the minimal interval
	assert.Len(t, f.clock.slept, 4)
	for _, d := range f.clock.slept {
		assert.Equal(t, f.cfg.RateLimit.MinInterval(), d)
	}

	n, err := f.store.Count(context.Background(), db.Query{Image: db.Rehosted})
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestRunLimit(t *testing.T) {
	f := setup(t, config.OptAcquirerLimit(2))
	ids := []int{1, 2, 3}
	f.seed(t, ids...)
	for _, id := range ids {
		f.respond(id, 200)
	}
	sum, err := f.acq.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Processed)
}

func TestRunFailureBudget(t *testing.T) {
	f := setup(t, config.OptAcquirerMaxFailures(1))
	ids := []int{1, 2, 3}
	f.seed(t, ids...)
	for _, id := range ids {
		f.respond(id, 404)
	}
	sum, err := f.acq.Run(context.Background())
	var gnErr *gn.Error
	require.ErrorAs(t, err, &gnErr)
	assert.Equal(t, errcode.PartialFailureError, gnErr.Code)
	assert.Equal(t, 2, sum.Failed)
}

func TestRunUploadFailure(t *testing.T) {
	f := setup(t)
	name := f.seed(t, 1)[0]
	f.respond(1, 200)
	f.objects.PutErr = fmt.Errorf("bucket is read-only")

	sum, err := f.acq.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)
	rec := f.store.Get(name)
	assert.Equal(t, species.StateFailed, rec.Image.State())
	assert.Contains(t, rec.Image.ProcessingError, "read-only")
}

func TestRunStoreError(t *testing.T) {
	f := setup(t)
	f.seed(t, 1, 2)
	f.respond(1, 200)
	f.respond(2, 200)
	f.store.UpdateErr = fmt.Errorf("disk full")

	sum, err := f.acq.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Processed)
	assert.Equal(t, 2, sum.StoreErrors)
	assert.Equal(t, 0, sum.Rehosted)
}

func TestRunCancelled(t *testing.T) {
	f := setup(t)
	name := f.seed(t, 1)[0]
	f.respond(1, 200)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.acq.Run(ctx)
	assert.Error(t, err)
	assert.Equal(t, species.StateUpstream, f.store.Get(name).Image.State())
	assert.Empty(t, f.objects.Objects)
}

func TestWatchStopsOnCancel(t *testing.T) {
	f := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, ioacquire.Watch(ctx, f.acq, time.Millisecond))
}

func TestExtension(t *testing.T) {
	tests := []struct {
		url, ext, ct string
	}{
		{"https://mo.org/images/640/1.jpg", "jpg", "image/jpeg"},
		{"https://mo.org/images/640/1.JPEG", "jpeg", "image/jpeg"},
		{"https://mo.org/images/640/1.png?x=1", "png", "image/png"},
		{"https://mo.org/images/640/1.webp", "webp", "image/webp"},
		{"https://mo.org/images/640/1.gif", "gif", "image/gif"},
		{"https://mo.org/images/640/1.tiff", "jpg", "image/jpeg"},
		{"https://mo.org/images/640/1", "jpg", "image/jpeg"},
	}
	for _, v := range tests {
		ext := ioacquire.Extension(v.url)
		assert.Equal(t, v.ext, ext, v.url)
		assert.Equal(t, v.ct, ioacquire.ContentType(ext), v.url)
	}
}

func TestObjectKey(t *testing.T) {
	at := time.UnixMilli(1714560000123)
	assert.Equal(t, "mushrooms/abc-1714560000123.png",
		ioacquire.ObjectKey("abc", at, "png"))
}
