// Package fetch downloads versioned release artifacts over HTTP(S).
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"modelenv/internal/common/fsutil"
)

// Retry configuration for failed HTTP requests.
const (
	// MaxRetries is the maximum number of attempts for a single artifact.
	MaxRetries = 3

	// InitialBackoff is the delay before the first retry.
	InitialBackoff = 1 * time.Second

	// MaxBackoff caps the delay between retries.
	MaxBackoff = 4 * time.Second

	// DefaultConcurrency bounds parallel downloads in FetchAll.
	DefaultConcurrency = 4
)

// Sentinel errors. Use errors.Is() to check for specific conditions.
var (
	// ErrChecksumMismatch indicates the downloaded data failed SHA-256 verification.
	ErrChecksumMismatch = errors.New("fetch: checksum verification failed")

	// ErrBadStatus indicates the server returned a non-retryable status.
	ErrBadStatus = errors.New("fetch: unexpected HTTP status")
)

// HTTPClient is the interface for HTTP operations. *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Job describes one artifact to download.
type Job struct {
	// URL of the release archive.
	URL string
	// Dest is the final path the archive lands at.
	Dest string
	// SHA256 optionally pins the expected digest (lowercase hex).
	SHA256 string
}

// Downloader fetches artifacts with retry and optional digest verification.
type Downloader struct {
	client HTTPClient
	log    zerolog.Logger

	// retry knobs, tightened by tests
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// New returns a Downloader. A nil client falls back to http.DefaultClient.
func New(client HTTPClient, log zerolog.Logger) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Downloader{
		client:         client,
		log:            log,
		initialBackoff: InitialBackoff,
		maxBackoff:     MaxBackoff,
	}
}

// Fetch downloads one artifact to dest. The body streams through a SHA-256
// hasher into a temp file in the destination directory; only a fully
// verified body is renamed into place, so partial downloads never land at
// the final path. Server errors and network failures are retried with
// capped exponential backoff; 4xx responses are not.
func (d *Downloader) Fetch(ctx context.Context, job Job) error {
	if err := fsutil.EnsureDir(filepath.Dir(job.Dest)); err != nil {
		return err
	}

	backoff := d.initialBackoff
	var lastErr error
	for attempt := 1; attempt <= MaxRetries; attempt++ {
		err := d.fetchOnce(ctx, job)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) || attempt == MaxRetries {
			break
		}
		d.log.Warn().Str("url", job.URL).Int("attempt", attempt).Err(err).Msg("download failed, retrying")
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
		if backoff > d.maxBackoff {
			backoff = d.maxBackoff
		}
	}
	return lastErr
}

// FetchAll downloads every job, at most limit at a time. The first failure
// cancels the remaining downloads.
func (d *Downloader) FetchAll(ctx context.Context, jobs []Job, limit int) error {
	if limit < 1 {
		limit = DefaultConcurrency
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, job := range jobs {
		g.Go(func() error {
			if err := d.Fetch(ctx, job); err != nil {
				return fmt.Errorf("fetching %s: %w", job.URL, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (d *Downloader) fetchOnce(ctx context.Context, job Job) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.URL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return &netError{err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode >= 500 {
			return &statusError{code: resp.StatusCode, retry: true}
		}
		return &statusError{code: resp.StatusCode}
	}

	// a unique temp file per attempt: concurrent fetches never share a
	// partial body, even for the same destination
	f, err := os.CreateTemp(filepath.Dir(job.Dest), filepath.Base(job.Dest)+".partial-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmp := f.Name()

	h := sha256.New()
	written, err := io.Copy(io.MultiWriter(f, h), resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return &netError{fmt.Errorf("reading body: %w", err)}
	}

	if job.SHA256 != "" {
		if actual := hex.EncodeToString(h.Sum(nil)); actual != job.SHA256 {
			os.Remove(tmp)
			return fmt.Errorf("%w: got %s, want %s", ErrChecksumMismatch, actual, job.SHA256)
		}
	}

	if err := os.Rename(tmp, job.Dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	d.log.Info().Str("url", job.URL).Str("dest", job.Dest).Int64("bytes", written).Msg("downloaded")
	return nil
}

// netError marks transport-level failures as retryable.
type netError struct{ err error }

func (e *netError) Error() string { return e.err.Error() }
func (e *netError) Unwrap() error { return e.err }

// statusError carries the HTTP status for error reporting.
type statusError struct {
	code  int
	retry bool
}

func (e *statusError) Error() string { return fmt.Sprintf("fetch: HTTP status %d", e.code) }
func (e *statusError) Unwrap() error { return ErrBadStatus }

func retryable(err error) bool {
	var ne *netError
	if errors.As(err, &ne) {
		return true
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.retry
	}
	return false
}
