package inventory

import (
	"context"
	"fmt"
	"net/http"

	"github.com/xspread/pairdisco/internal/model"
	"github.com/xspread/pairdisco/internal/net/circuit"
	"github.com/xspread/pairdisco/internal/net/ratelimit"
)

// sourceTransport is the inventory fetcher's provider client wrapper: rate
// limit, then circuit breaker, then the underlying transport. It mirrors
// the wrap-order of a full provider client wrapper, trimmed to the two
// concerns a one-shot inventory sweep needs.
type sourceTransport struct {
	source  model.SourceID
	limiter *ratelimit.Limiter
	breaker *circuit.Breaker
	next    http.RoundTripper
}

func (t *sourceTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context(), t.source.String()); err != nil {
		return nil, fmt.Errorf("%s: rate limit wait: %w", t.source, err)
	}

	var resp *http.Response
	err := t.breaker.Call(req.Context(), func(ctx context.Context) error {
		var rtErr error
		resp, rtErr = t.next.RoundTrip(req.WithContext(ctx))
		if rtErr != nil {
			return rtErr
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%s: server error %d", t.source, resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
