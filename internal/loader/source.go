package loader

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/saferoute/internal/fetcher"
	"github.com/sells-group/saferoute/internal/resilience"
)

// tempReadCloser removes the backing download when closed.
type tempReadCloser struct {
	io.ReadCloser
	path string
}

func (t *tempReadCloser) Close() error {
	err := t.ReadCloser.Close()
	if rmErr := os.Remove(t.path); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
		err = eris.Wrap(rmErr, "loader: remove temp file")
	}
	return err
}

// retryingFetcher retries transient failures of a fetcher with no retry
// loop of its own.
type retryingFetcher struct {
	next fetcher.Fetcher
	cfg  resilience.RetryConfig
}

func (r *retryingFetcher) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	return resilience.DoVal(ctx, r.cfg, func(ctx context.Context) (io.ReadCloser, error) {
		return r.next.Download(ctx, url)
	})
}

func (r *retryingFetcher) DownloadToFile(ctx context.Context, url string, path string) (int64, error) {
	return resilience.DoVal(ctx, r.cfg, func(ctx context.Context) (int64, error) {
		return r.next.DownloadToFile(ctx, url, path)
	})
}

func isZIP(name string) bool {
	return strings.EqualFold(path.Ext(name), ".zip")
}

// open resolves src to a CSV stream. Remote archives are downloaded to a
// temp file first; archives are read from their first .csv entry.
func (l *Loader) open(ctx context.Context, src string) (io.ReadCloser, error) {
	u, err := url.Parse(src)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		return openLocal(src)
	}

	var f fetcher.Fetcher
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		f = l.http
	case "ftp":
		f = &retryingFetcher{next: l.ftp, cfg: l.retry}
	case "file":
		return openLocal(u.Path)
	default:
		return nil, eris.Errorf("loader: unsupported source scheme %q", u.Scheme)
	}

	if !isZIP(u.Path) {
		body, err := f.Download(ctx, src)
		if err != nil {
			return nil, eris.Wrapf(err, "loader: download %s", src)
		}
		return body, nil
	}

	tmp, err := os.CreateTemp(l.tempDir, "saferoute-*.zip")
	if err != nil {
		return nil, eris.Wrap(err, "loader: create temp file")
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()

	if _, err := f.DownloadToFile(ctx, src, tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return nil, eris.Wrapf(err, "loader: download %s", src)
	}

	entry, err := fetcher.OpenZIPEntry(tmpPath, fetcher.MatchSuffix(".csv"))
	if err != nil {
		_ = os.Remove(tmpPath)
		return nil, err
	}
	return &tempReadCloser{ReadCloser: entry, path: tmpPath}, nil
}

func openLocal(p string) (io.ReadCloser, error) {
	p = filepath.Clean(p)
	if isZIP(p) {
		return fetcher.OpenZIPEntry(p, fetcher.MatchSuffix(".csv"))
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open %s", p)
	}
	return f, nil
}
