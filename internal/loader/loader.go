// Package loader turns configured incident exports into per-period
// aggregate snapshots.
package loader

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/saferoute/internal/config"
	"github.com/sells-group/saferoute/internal/crime"
	"github.com/sells-group/saferoute/internal/fetcher"
	"github.com/sells-group/saferoute/internal/resilience"
)

// PeriodError reports that the records for one period could not be loaded.
type PeriodError struct {
	Period string
	Err    error
}

func (e *PeriodError) Error() string {
	return fmt.Sprintf("loader: period %s: %v", e.Period, e.Err)
}

func (e *PeriodError) Unwrap() error { return e.Err }

// periodPattern bounds period names. They are expanded into file paths and
// URLs, so separators and dots are rejected.
var periodPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,31}$`)

// ValidPeriod reports whether period is a well-formed period name.
func ValidPeriod(period string) bool {
	return periodPattern.MatchString(period)
}

// Loader fetches and decodes the incident export for a period.
type Loader struct {
	data    config.DataConfig
	http    fetcher.Fetcher
	ftp     fetcher.Fetcher
	retry   resilience.RetryConfig
	tempDir string
}

// Option customizes a Loader.
type Option func(*Loader)

// WithHTTPFetcher replaces the fetcher used for http(s) sources.
func WithHTTPFetcher(f fetcher.Fetcher) Option {
	return func(l *Loader) { l.http = f }
}

// WithFTPFetcher replaces the fetcher used for ftp sources.
func WithFTPFetcher(f fetcher.Fetcher) Option {
	return func(l *Loader) { l.ftp = f }
}

// WithRetry sets the retry policy for ftp downloads.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(l *Loader) { l.retry = cfg }
}

// New creates a Loader for the configured data sources.
func New(data config.DataConfig, opts ...Option) *Loader {
	l := &Loader{
		data:    data,
		retry:   defaultRetry(),
		tempDir: data.TempDir,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.http == nil {
		l.http = fetcher.NewHTTPFetcher(fetcher.HTTPOptions{})
	}
	if l.ftp == nil {
		l.ftp = fetcher.NewFTPFetcher(fetcher.FTPOptions{})
	}
	if l.data.Concurrency <= 0 {
		l.data.Concurrency = 4
	}
	return l
}

func (l *Loader) projection() Projection {
	if l.data.UTMZone == 0 {
		return DefaultProjection
	}
	return Projection{Zone: l.data.UTMZone, Northern: !l.data.UTMSouth}
}

func defaultRetry() resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("ftp", "download")
	return cfg
}

// Periods returns the configured periods: the explicit list if set,
// otherwise the keys of the sources map, sorted.
func (l *Loader) Periods() []string {
	if len(l.data.Periods) > 0 {
		return slices.Clone(l.data.Periods)
	}
	periods := make([]string, 0, len(l.data.Sources))
	for p := range l.data.Sources {
		periods = append(periods, p)
	}
	slices.Sort(periods)
	return periods
}

// Configured reports whether period is in the configured period list or has
// an explicit source.
func (l *Loader) Configured(period string) bool {
	if _, ok := l.data.Sources[period]; ok {
		return true
	}
	return slices.Contains(l.data.Periods, period)
}

// Load fetches and decodes the records for period.
func (l *Loader) Load(ctx context.Context, period string) ([]crime.IncidentRecord, error) {
	if !ValidPeriod(period) {
		return nil, eris.Errorf("loader: invalid period %q", period)
	}
	src := l.data.Source(period)
	if src == "" {
		return nil, eris.Errorf("loader: no source configured for period %s", period)
	}

	start := time.Now()
	rc, err := l.open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck

	records, stats, err := DecodeWith(ctx, rc, period, l.projection())
	if err != nil {
		return nil, eris.Wrapf(err, "loader: decode %s", src)
	}

	zap.L().Info("loader: period loaded",
		zap.String("period", period),
		zap.String("source", src),
		zap.Int("rows", stats.Rows),
		zap.Int("malformed", stats.Malformed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return records, nil
}

// PeriodResult summarizes one period of a Sync.
type PeriodResult struct {
	Period   string `json:"period"`
	Accepted int    `json:"accepted"`
	Skipped  int    `json:"skipped"`
	Regions  int    `json:"regions"`
	Err      error  `json:"-"`
}

// Report is the outcome of a Sync, in the order periods were requested.
type Report struct {
	Results []PeriodResult
}

// Failed returns the periods that fell back to an empty snapshot.
func (r Report) Failed() []string {
	var out []string
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res.Period)
		}
	}
	return out
}

// Err joins the PeriodErrors of the failed periods, or returns nil.
func (r Report) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return errors.Join(errs...)
}

// Sync loads each period concurrently and installs its snapshot in store.
// A period that fails to load gets an empty snapshot and a PeriodError in
// the report; the other periods are unaffected. Duplicate periods are
// loaded once.
func (l *Loader) Sync(ctx context.Context, store *crime.Store, periods []string) Report {
	periods = dedupe(periods)
	results := make([]PeriodResult, len(periods))

	var g errgroup.Group
	g.SetLimit(l.data.Concurrency)

	for i, period := range periods {
		g.Go(func() error {
			results[i] = l.syncPeriod(ctx, store, period)
			return nil
		})
	}
	_ = g.Wait()

	return Report{Results: results}
}

// SyncPeriod loads one period into store. On failure the snapshot of a
// configured or already loaded period is replaced by an empty one and the
// error is returned; an unknown period is left out of the store.
func (l *Loader) SyncPeriod(ctx context.Context, store *crime.Store, period string) (PeriodResult, error) {
	res := l.syncPeriod(ctx, store, period)
	return res, res.Err
}

func (l *Loader) syncPeriod(ctx context.Context, store *crime.Store, period string) PeriodResult {
	records, err := l.Load(ctx, period)
	if err != nil {
		perr := &PeriodError{Period: period, Err: err}
		if _, loaded := store.Snapshot(period); !loaded && !l.Configured(period) {
			zap.L().Warn("loader: unknown period not loaded",
				zap.String("period", period),
				zap.Error(err),
			)
			return PeriodResult{Period: period, Err: perr}
		}
		zap.L().Error("loader: period failed, serving empty aggregate",
			zap.String("period", period),
			zap.Error(err),
		)
		store.Replace(crime.Empty(period))
		return PeriodResult{Period: period, Err: perr}
	}

	snap := store.Rebuild(records, period)
	return PeriodResult{
		Period:   period,
		Accepted: snap.Accepted,
		Skipped:  snap.Skipped,
		Regions:  len(snap.Regions),
	}
}

func dedupe(periods []string) []string {
	seen := make(map[string]bool, len(periods))
	out := make([]string, 0, len(periods))
	for _, p := range periods {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
