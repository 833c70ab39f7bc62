// Package inventory implements stage C1 of the discovery pipeline: an
// 8-way concurrent REST sweep across the fixed set of sources, tolerant of
// a minority of per-source failures.
package inventory

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/xspread/pairdisco/internal/config"
	"github.com/xspread/pairdisco/internal/model"
	"github.com/xspread/pairdisco/internal/net/circuit"
	"github.com/xspread/pairdisco/internal/net/ratelimit"
)

// SourceFetcher fetches the raw instrument list for one source.
type SourceFetcher interface {
	Fetch(ctx context.Context, client *http.Client, endpoint config.ExchangeEndpoint) ([]model.RawInstrument, error)
}

// Fetcher runs C1: it issues one request (with retry and circuit breaking)
// per source, concurrently, and reports InsufficientSources if fewer than
// the configured quorum come back clean.
type Fetcher struct {
	exchanges  *config.Exchanges
	minSources int
	attempt    time.Duration
	log        zerolog.Logger

	fetchers map[model.SourceID]SourceFetcher

	circuits *circuit.Manager
	limiters *ratelimit.Manager
}

// NewFetcher wires the eight per-venue fetchers grounded on each venue's
// REST response shape (see binance.go, bybit.go, mexc.go, okx.go). Each
// source gets its own rate limiter and circuit breaker, composed into an
// http.Client by newRetryClient the same way a provider client wrapper
// would compose them (internal/net/client in the wider codebase this
// package descends from).
func NewFetcher(exchanges *config.Exchanges, cfg *config.Config, log zerolog.Logger) *Fetcher {
	circuits := circuit.NewManager()
	limiters := ratelimit.NewManager()
	for _, s := range model.AllSources {
		circuits.AddProvider(s.String(), circuit.Config{
			FailureThreshold: 3,
			SuccessThreshold: 1,
			Timeout:          30 * time.Second,
			RequestTimeout:   cfg.Timeouts.HTTPAttempt() * 3,
			OnStateChange: func(from, to circuit.State) {
				log.Warn().Str("source", s.String()).Str("from", from.String()).Str("to", to.String()).
					Msg("inventory circuit breaker state change")
			},
		})
		limiters.AddProvider(s.String(), 5, 5)
		limiters.SetOnWait(s.String(), func(host string, waited time.Duration) {
			log.Debug().Str("source", s.String()).Str("host", host).Dur("waited", waited).
				Msg("inventory rate limiter delayed request")
		})
	}

	return &Fetcher{
		exchanges:  exchanges,
		minSources: cfg.MinSources,
		attempt:    cfg.Timeouts.HTTPAttempt(),
		log:        log,
		circuits:   circuits,
		limiters:   limiters,
		fetchers: map[model.SourceID]SourceFetcher{
			model.BinanceSpot:    binanceFetcher{futures: false},
			model.BinanceFutures: binanceFetcher{futures: true},
			model.BybitSpot:      bybitFetcher{category: "spot"},
			model.BybitFutures:   bybitFetcher{category: "linear"},
			model.MexcSpot:       mexcFetcher{futures: false},
			model.MexcFutures:    mexcFetcher{futures: true},
			model.OkxSpot:        okxFetcher{instType: "SPOT"},
			model.OkxFutures:     okxFetcher{instType: "SWAP"},
		},
	}
}

// InsufficientSourcesError reports that fewer than the configured quorum of
// sources returned a usable inventory.
type InsufficientSourcesError struct {
	Succeeded int
	Required  int
	Failures  map[model.SourceID]error
}

func (e *InsufficientSourcesError) Error() string {
	return fmt.Sprintf("inventory: only %d/%d sources succeeded, need %d", e.Succeeded, model.NumSources, e.Required)
}

// FetchAll runs all eight fetches concurrently and returns one FetchResult
// per source, in AllSources order, regardless of individual failure. It
// returns InsufficientSourcesError only as a classification signal; the
// results slice is always fully populated so callers can still inspect
// which sources failed and why.
func (f *Fetcher) FetchAll(ctx context.Context) ([]model.FetchResult, error) {
	results := make([]model.FetchResult, model.NumSources)
	var wg sync.WaitGroup

	for i, s := range model.AllSources {
		wg.Add(1)
		go func(i int, s model.SourceID) {
			defer wg.Done()
			results[i] = f.fetchOne(ctx, s)
		}(i, s)
	}
	wg.Wait()

	succeeded := 0
	failures := make(map[model.SourceID]error)
	for _, r := range results {
		if r.Ok() {
			succeeded++
		} else {
			failures[r.Source] = r.Err
		}
	}

	f.log.Info().Int("succeeded", succeeded).Int("required", f.minSources).Msg("inventory fetch complete")

	if succeeded < f.minSources {
		return results, &InsufficientSourcesError{Succeeded: succeeded, Required: f.minSources, Failures: failures}
	}
	return results, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, s model.SourceID) model.FetchResult {
	endpoint, ok := f.exchanges.Get(s)
	if !ok {
		return model.FetchResult{Source: s, Err: fmt.Errorf("no endpoint configured for %s", s)}
	}

	fetcher, ok := f.fetchers[s]
	if !ok {
		return model.FetchResult{Source: s, Err: fmt.Errorf("no fetcher registered for %s", s)}
	}

	limiter, _ := f.limiters.GetLimiter(s.String())
	breaker, _ := f.circuits.GetBreaker(s.String())
	client := newRetryClient(f.attempt, f.log, s, limiter, breaker)

	attemptCtx, cancel := context.WithTimeout(ctx, f.attempt*3)
	defer cancel()
	instruments, err := fetcher.Fetch(attemptCtx, client, endpoint)
	if err != nil {
		f.log.Warn().Str("source", s.String()).Err(err).Msg("inventory fetch failed")
		return model.FetchResult{Source: s, Err: err}
	}

	for i := range instruments {
		instruments[i].Source = s
	}
	f.log.Debug().Str("source", s.String()).Int("count", len(instruments)).Msg("inventory fetch ok")
	return model.FetchResult{Source: s, Instruments: instruments}
}

// newRetryClient builds an http.Client backed by retryablehttp's
// exponential backoff policy (3 attempts, base delays of 100/200/400ms)
// sitting on top of the per-source rate limiter and circuit breaker:
// every attempt, including retries, passes through both before reaching
// the network. Silenced internal logging: the pipeline's own
// zerolog.Logger records attempts instead.
func newRetryClient(attemptTimeout time.Duration, log zerolog.Logger, s model.SourceID, limiter *ratelimit.Limiter, breaker *circuit.Breaker) *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 400 * time.Millisecond
	rc.HTTPClient.Timeout = attemptTimeout
	rc.HTTPClient.Transport = &sourceTransport{source: s, limiter: limiter, breaker: breaker, next: http.DefaultTransport}
	rc.Logger = nil
	rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			log.Debug().Str("source", s.String()).Int("attempt", attempt).Str("url", req.URL.String()).Msg("retrying inventory request")
		}
	}
	return rc.StandardClient()
}
