// Package iofetch downloads images from the upstream origin.
package iofetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// userAgent identifies fungidb to the upstream origin.
const userAgent = "fungidb/1.0 (+https://github.com/gnames/fungidb)"

// Image is a downloaded image.
type Image struct {
	Body []byte
	// ContentType from the response, without parameters.
	ContentType string
	// FinalURL is the URL after redirects.
	FinalURL string
}

// Fetcher downloads images over HTTP.
type Fetcher struct {
	client *resty.Client
}

// New creates a Fetcher with a timeout for every request.
func New(timeout time.Duration) *Fetcher {
	cl := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "image/*")
	return &Fetcher{client: cl}
}

// Client returns the underlying HTTP client.
func (f *Fetcher) Client() *http.Client {
	return f.client.GetClient()
}

// Fetch downloads an image. Non-2xx responses, empty bodies and
// transport failures return FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		reason := "network error"
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			reason = "timeout"
		}
		return nil, FetchError(url, reason, err)
	}

	if !resp.IsSuccess() {
		reason := fmt.Sprintf("HTTP %d", resp.StatusCode())
		return nil, FetchError(url, reason, errors.New(resp.Status()))
	}
	body := resp.Body()
	if len(body) == 0 {
		return nil, FetchError(url, "empty body", errors.New("no content"))
	}

	ct := resp.Header().Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i != -1 {
		ct = ct[:i]
	}
	ct = strings.TrimSpace(strings.ToLower(ct))
	if ct == "" {
		ct = http.DetectContentType(body)
	}

	res := &Image{
		Body:        body,
		ContentType: ct,
		FinalURL:    url,
	}
	if req := resp.RawResponse.Request; req != nil && req.URL != nil {
		res.FinalURL = req.URL.String()
	}
	return res, nil
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
