package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/saferoute/internal/analysis"
	"github.com/sells-group/saferoute/internal/crime"
	"github.com/sells-group/saferoute/internal/fetcher"
	"github.com/sells-group/saferoute/internal/loader"
	"github.com/sells-group/saferoute/internal/region"
	"github.com/sells-group/saferoute/internal/resilience"
	"github.com/sells-group/saferoute/internal/route"
	anthropicpkg "github.com/sells-group/saferoute/pkg/anthropic"
)

// appEnv holds the region index, the aggregate store and the services built
// on them.
type appEnv struct {
	Index   *region.Index
	Store   *crime.Store
	Loader  *loader.Loader
	Scorer  *route.Scorer
	Analyst *analysis.Analyst // nil without an Anthropic key
}

// initEnv validates the config for mode, builds the index and services,
// and loads periods into the store. A nil periods loads every configured
// period. Outside serve mode a period that fails to load is an error.
func initEnv(ctx context.Context, mode string, periods []string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	idx, err := region.Load(cfg.Regions.Path, cfg.Regions.NameField)
	if err != nil {
		return nil, eris.Wrap(err, "load regions")
	}
	zap.L().Info("region table loaded",
		zap.String("path", cfg.Regions.Path),
		zap.Int("regions", idx.Len()),
	)

	env := &appEnv{
		Index:  idx,
		Store:  crime.NewStore(),
		Loader: newLoader(),
	}
	env.Scorer = route.NewScorer(idx, env.Store,
		route.WithSamples(cfg.Route.Samples),
		route.WithAlternativeThreshold(cfg.Route.AlternativeThreshold),
		route.WithDetourOffset(cfg.Route.DetourOffset),
	)

	if cfg.Anthropic.Key != "" {
		client := anthropicpkg.NewClient(cfg.Anthropic.Key)
		env.Analyst = analysis.NewAnalyst(client, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
	} else {
		zap.L().Debug("SAFEROUTE_ANTHROPIC_KEY not set, analysis disabled")
	}

	if periods == nil {
		periods = env.Loader.Periods()
	}
	if len(periods) == 0 {
		zap.L().Warn("no data periods configured")
		return env, nil
	}

	report := env.Loader.Sync(ctx, env.Store, periods)
	failed := report.Failed()
	if len(failed) == 0 {
		return env, nil
	}
	// One-shot commands would otherwise print an empty result.
	if mode != "serve" {
		return nil, eris.Wrap(report.Err(), "load periods")
	}
	zap.L().Warn("some periods failed to load and are served empty",
		zap.Strings("periods", failed),
	)
	return env, nil
}

// newLoader builds a loader whose fetchers and ftp retries follow the http
// config.
func newLoader() *loader.Loader {
	timeout := time.Duration(cfg.HTTP.TimeoutSecs) * time.Second
	httpFetcher := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:   cfg.HTTP.UserAgent,
		Timeout:     timeout,
		MaxRetries:  cfg.HTTP.MaxRetries,
		RatePerHost: rate.Limit(cfg.HTTP.RatePerHost),
	})
	ftpFetcher := fetcher.NewFTPFetcher(fetcher.FTPOptions{Timeout: timeout})

	// The ftp fetcher has no retry loop of its own; it shares the http budget.
	ftpRetry := resilience.DefaultRetryConfig()
	ftpRetry.MaxAttempts = cfg.HTTP.MaxRetries + 1
	ftpRetry.OnRetry = resilience.RetryLogger("ftp", "download")

	return loader.New(cfg.Data,
		loader.WithHTTPFetcher(httpFetcher),
		loader.WithFTPFetcher(ftpFetcher),
		loader.WithRetry(ftpRetry),
	)
}
