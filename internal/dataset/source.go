package dataset

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// ErrUnavailable marks data-acquisition failures: network errors, non-2xx
// responses and unreadable files. Parse failures are reported separately.
var ErrUnavailable = errors.New("dataset: source unavailable")

// Source yields the full historical dataset.
type Source interface {
	Load(ctx context.Context) ([]EventRecord, error)
}

// HTTPSource downloads the dataset on every Load.
type HTTPSource struct {
	url  string
	rest *resty.Client
}

// NewHTTPSource creates a source for a CSV/TSV served over HTTP(S).
func NewHTTPSource(rawURL string, timeout time.Duration) *HTTPSource {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(30 * time.Second) // default fallback
	}
	return &HTTPSource{url: rawURL, rest: r}
}

func (s *HTTPSource) Load(ctx context.Context) ([]EventRecord, error) {
	resp, err := s.rest.R().
		SetContext(ctx).
		Get(s.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode())
	}

	delimiter := ','
	if u, err := url.Parse(s.url); err == nil {
		if d, ok := DelimiterFor(path.Base(u.Path)); ok {
			delimiter = d
		}
	}

	records, err := ParseBytes(resp.Body(), delimiter)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("url", s.url).
		Int("rows", len(records)).
		Dur("elapsed", resp.Time()).
		Msg("Dataset fetched")

	return records, nil
}

// FileSource reads the dataset from disk on every Load.
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) ([]EventRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadFile(s.Path)
}
