// Package validate implements stage C5, "the core": per-source live
// WebSocket liveness probing. For every symbol the registry admits on a
// given source, the validator subscribes in venue-sized batches and
// records whether the venue actually streams a well-formed best-bid/ask
// tick within the configured time budget.
package validate

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/xspread/pairdisco/internal/config"
	"github.com/xspread/pairdisco/internal/model"
)

// venue builds subscribe payloads and parses inbound ticks for one source.
// The same builders and parsers the production feed processes use belong
// here — the validator is a contract test of that exact code path.
type venue interface {
	subscribePayload(batch []string, reqID int) interface{}
	parseTicks(raw []byte) ([]tickObservation, bool)
}

func venueFor(s model.SourceID) venue {
	switch s {
	case model.BinanceSpot, model.BinanceFutures:
		return binanceVenue{}
	case model.BybitSpot, model.BybitFutures:
		return bybitVenue{}
	case model.MexcSpot:
		return mexcVenue{futures: false}
	case model.MexcFutures:
		return mexcVenue{futures: true}
	case model.OkxSpot, model.OkxFutures:
		return okxVenue{}
	default:
		return nil
	}
}

const maxReconnects = 5

// Validator runs C5 across all sources concurrently.
type Validator struct {
	exchanges *config.Exchanges
	timeouts  config.Timeouts
	log       zerolog.Logger
}

func NewValidator(exchanges *config.Exchanges, cfg *config.Config, log zerolog.Logger) *Validator {
	return &Validator{exchanges: exchanges, timeouts: cfg.Timeouts, log: log}
}

// sourcePlan is the per-source input: the ordered list of (exchange
// symbol, global id) pairs the registry admitted for this source.
type sourcePlan struct {
	source  model.SourceID
	symbols []string
	ids     map[string]uint16
}

// PlanFromRegistry builds one sourcePlan per source from the registry's
// populated slots.
func PlanFromRegistry(reg *model.Registry) [model.NumSources]sourcePlan {
	var plans [model.NumSources]sourcePlan
	for _, s := range model.AllSources {
		plans[s] = sourcePlan{source: s, ids: make(map[string]uint16)}
	}
	for _, rec := range reg.Records {
		for _, s := range rec.PopulatedSources() {
			symbol := *rec.SourceSymbols[s]
			plans[s].symbols = append(plans[s].symbols, symbol)
			plans[s].ids[symbol] = rec.ID
		}
	}
	return plans
}

// ValidateAll runs all eight sources concurrently and returns one
// ValidationResult each, in model.AllSources order. A source counts as a
// full failure for the quorum only when its control connection could never
// be established; a source with nothing to validate (absent upstream) or
// one that validated normally, even with many per-symbol rejections, both
// count as having "produced output".
func (v *Validator) ValidateAll(ctx context.Context, plans [model.NumSources]sourcePlan, minSources int) ([]*model.ValidationResult, error) {
	results := make([]*model.ValidationResult, model.NumSources)
	connectFailed := make([]bool, model.NumSources)
	done := make(chan struct{}, model.NumSources)

	for i, s := range model.AllSources {
		go func(i int, s model.SourceID) {
			results[i], connectFailed[i] = v.validateSource(ctx, plans[s])
			done <- struct{}{}
		}(i, s)
	}
	for range model.AllSources {
		<-done
	}

	produced := 0
	for _, failed := range connectFailed {
		if !failed {
			produced++
		}
	}
	if produced < minSources {
		return results, fmt.Errorf("validate: only %d/%d sources produced output, need %d", produced, model.NumSources, minSources)
	}
	return results, nil
}

func (v *Validator) validateSource(ctx context.Context, plan sourcePlan) (*model.ValidationResult, bool) {
	result := model.NewValidationResult(plan.source)
	result.Attempted = len(plan.symbols)
	if len(plan.symbols) == 0 {
		return result, false
	}

	endpoint, ok := v.exchanges.Get(plan.source)
	if !ok {
		for _, sym := range plan.symbols {
			result.Invalid = append(result.Invalid, model.InvalidEntry{ID: plan.ids[sym], Reason: model.ConnectionDropped})
		}
		return result, true
	}

	ven := venueFor(plan.source)
	conn := newWSConn(endpoint.WSBase, v.log)

	if err := conn.reconnect(ctx, maxReconnects); err != nil {
		v.log.Warn().Str("source", plan.source.String()).Err(err).Msg("initial connect exhausted")
		for _, sym := range plan.symbols {
			result.Invalid = append(result.Invalid, model.InvalidEntry{ID: plan.ids[sym], Reason: model.ConnectionDropped})
		}
		return result, true
	}
	defer conn.close()

	batches := batchSymbols(plan.symbols, endpoint.BatchSize)
	for bi, batch := range batches {
		if bi > 0 {
			time.Sleep(v.timeouts.WSInterBatchPause())
		}
		result.BatchCount++

		reconnectedMidBatch := v.runBatch(ctx, conn, ven, plan, batch, result)
		if reconnectedMidBatch && conn.reconnects > maxReconnects {
			for _, sym := range batch {
				if !result.Valid[plan.ids[sym]] {
					result.Invalid = append(result.Invalid, model.InvalidEntry{ID: plan.ids[sym], Reason: model.ConnectionDropped})
				}
			}
			result.Reconnects = conn.reconnects
			break
		}
	}
	result.Reconnects = conn.reconnects
	return result, false
}

// runBatch subscribes to one batch and observes ticks until the batch
// completes by one of the four exit conditions below. It returns
// true if the connection dropped and reconnect budget was exhausted.
func (v *Validator) runBatch(ctx context.Context, conn *wsConn, ven venue, plan sourcePlan, batch []string, result *model.ValidationResult) bool {
	if err := conn.writeJSON(ven.subscribePayload(batch, result.BatchCount)); err != nil {
		if err := conn.reconnect(ctx, maxReconnects); err != nil {
			return true
		}
		if err := conn.writeJSON(ven.subscribePayload(batch, result.BatchCount)); err != nil {
			markUnobserved(result, plan, batch, model.SubscribeRejected)
			return false
		}
	}

	seen := make(map[string]bool, len(batch))
	wantAll := func() bool { return len(seen) >= len(batch) }

	overallDeadline := time.Now().Add(v.timeouts.WSOverallBatch())
	collectDeadline := time.Now().Add(v.timeouts.WSCollect())
	idleDeadline := time.Now().Add(v.timeouts.WSIdle())

	for {
		if wantAll() {
			break
		}
		now := time.Now()
		if now.After(overallDeadline) || now.After(collectDeadline) || now.After(idleDeadline) {
			break
		}

		_, data, timedOut, err := conn.readMessage(v.timeouts.WSReadSlice())
		if err != nil {
			if err := conn.reconnect(ctx, maxReconnects); err != nil {
				return true
			}
			if err := conn.writeJSON(ven.subscribePayload(remaining(batch, seen), result.BatchCount)); err != nil {
				markUnobserved(result, plan, remaining(batch, seen), model.SubscribeRejected)
				return false
			}
			idleDeadline = time.Now().Add(v.timeouts.WSIdle())
			continue
		}
		if timedOut {
			continue
		}

		obs, parsedOK := ven.parseTicks(data)
		if !parsedOK {
			continue
		}
		for _, o := range obs {
			id, known := plan.ids[o.symbol]
			if !known || seen[o.symbol] {
				continue
			}
			if !o.parsed {
				continue
			}
			if o.bid > 0 && o.ask > 0 && o.bid <= o.ask {
				result.Valid[id] = true
				seen[o.symbol] = true
				idleDeadline = time.Now().Add(v.timeouts.WSIdle())
			} else {
				reason := model.ZeroOrMissingBid
				switch {
				case o.bid <= 0:
					reason = model.ZeroOrMissingBid
				case o.ask <= 0:
					reason = model.ZeroOrMissingAsk
				case o.bid > o.ask:
					reason = model.BidAboveAsk
				}
				result.Invalid = append(result.Invalid, model.InvalidEntry{ID: id, Reason: reason})
				seen[o.symbol] = true
			}
		}
	}

	markUnobserved(result, plan, remaining(batch, seen), model.NoMessage)
	return false
}

func markUnobserved(result *model.ValidationResult, plan sourcePlan, symbols []string, reason model.InvalidReason) {
	for _, sym := range symbols {
		id := plan.ids[sym]
		if result.Valid[id] {
			continue
		}
		result.Invalid = append(result.Invalid, model.InvalidEntry{ID: id, Reason: reason})
	}
}

func remaining(batch []string, seen map[string]bool) []string {
	out := make([]string, 0, len(batch)-len(seen))
	for _, s := range batch {
		if !seen[s] {
			out = append(out, s)
		}
	}
	return out
}

func batchSymbols(symbols []string, size int) [][]string {
	if size <= 0 {
		size = len(symbols)
	}
	var out [][]string
	for i := 0; i < len(symbols); i += size {
		end := i + size
		if end > len(symbols) {
			end = len(symbols)
		}
		out = append(out, symbols[i:end])
	}
	return out
}
