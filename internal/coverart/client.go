package coverart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pborman/uuid"
	caa "gopkg.in/mineo/gocaa.v1"

	"coverharvest/internal/fetch"
	"coverharvest/internal/logging"
)

// ErrInvalidID is returned when a release group ID is not a UUID.
var ErrInvalidID = errors.New("invalid release group id")

// CAAClient fetches the front image of a release group.
type CAAClient interface {
	GetReleaseGroupFront(mbid uuid.UUID, size int) (caa.CoverArtImage, error)
}

// Retrier runs an operation under a retry policy. *fetch.Client satisfies it.
type Retrier interface {
	Retry(ctx context.Context, desc string, op func(context.Context) error) error
}

// NewCAAClient builds a gocaa client pointed at baseURL.
func NewCAAClient(userAgent, baseURL string) *caa.CAAClient {
	client := caa.NewCAAClient(userAgent)
	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL != "" {
		client.BaseURL = baseURL
	}
	return client
}

// Fetcher downloads original-size front covers.
type Fetcher struct {
	client  CAAClient
	retrier Retrier
	timeout time.Duration
	logger  *slog.Logger
}

// NewFetcher wires a CAA client to a retry policy. timeout bounds each
// attempt; zero leaves attempts bounded only by the caller's context.
func NewFetcher(client CAAClient, retrier Retrier, timeout time.Duration, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client:  client,
		retrier: retrier,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "coverart"),
	}
}

// Front returns the raw bytes of the release group's front cover.
func (f *Fetcher) Front(ctx context.Context, releaseGroupID string) ([]byte, error) {
	mbid := caa.StringToUUID(releaseGroupID)
	if mbid == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, releaseGroupID)
	}

	var data []byte
	err := f.retrier.Retry(ctx, "cover "+releaseGroupID, func(ctx context.Context) error {
		img, err := f.attempt(ctx, mbid)
		if err != nil {
			return err
		}
		data = img.Data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch cover for %s: %w", releaseGroupID, err)
	}
	f.logger.Debug("cover downloaded",
		logging.String(logging.FieldReleaseGroupID, releaseGroupID),
		logging.Int("bytes", len(data)),
	)
	return data, nil
}

// attempt runs one gocaa request. gocaa takes no context and its HTTP client
// has no timeout, so the request runs in its own goroutine and is abandoned
// when ctx is done or the attempt timeout expires.
func (f *Fetcher) attempt(ctx context.Context, mbid uuid.UUID) (caa.CoverArtImage, error) {
	if err := ctx.Err(); err != nil {
		return caa.CoverArtImage{}, err
	}
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	type result struct {
		img caa.CoverArtImage
		err error
	}
	done := make(chan result, 1)
	go func() {
		img, err := f.front(mbid)
		done <- result{img: img, err: err}
	}()

	select {
	case res := <-done:
		return res.img, res.err
	case <-ctx.Done():
		return caa.CoverArtImage{}, fmt.Errorf("cover art archive request abandoned: %w", ctx.Err())
	}
}

// front adapts gocaa's error types and shields the caller from its panic on
// transport failures, where it dereferences a nil response.
func (f *Fetcher) front(mbid uuid.UUID) (img caa.CoverArtImage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cover art archive request failed: %v", r)
		}
	}()
	img, err = f.client.GetReleaseGroupFront(mbid, caa.ImageSizeOriginal)
	if err == nil {
		return img, nil
	}
	var httpErr caa.HTTPError
	if errors.As(err, &httpErr) {
		statusErr := &fetch.StatusError{StatusCode: httpErr.StatusCode}
		if httpErr.URL != nil {
			statusErr.URL = httpErr.URL.String()
		}
		return img, statusErr
	}
	return img, err
}
