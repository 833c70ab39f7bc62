// Package normalize implements stage C2: turning one venue's raw,
// differently-encoded instrument symbol into a canonical "{BASE}-USDT"
// name, or rejecting it. The parsing rules are intentionally structural
// (split on a fixed separator and verify part counts) rather than
// heuristic substring matching, because substring matching on "USDT" is
// ambiguous against USDC/TUSD-quoted pairs.
package normalize

import (
	"strings"

	"github.com/xspread/pairdisco/internal/model"
)

// Stats accumulates per-source acceptance and rejection counters; nothing
// here is fatal to the run. The pipeline logs only Accepted; the rejection
// counters are not written to validation_report.txt.
type Stats struct {
	Accepted int
	Rejected map[model.NormalizationErrorKind]int
}

func newStats() *Stats {
	return &Stats{Rejected: make(map[model.NormalizationErrorKind]int)}
}

// Normalize converts one source's raw instrument listing into normalized
// symbols, dropping untradable and malformed entries. Rejections are
// collected for reporting, never returned as a fatal error.
func Normalize(source model.SourceID, raw []model.RawInstrument) ([]model.NormalizedSymbol, *Stats, []model.NormalizationError) {
	stats := newStats()
	var out []model.NormalizedSymbol
	var errs []model.NormalizationError

	for _, r := range raw {
		if !r.Tradable {
			continue
		}
		base, quote, kind, ok := splitSymbol(source, r)
		if !ok {
			stats.Rejected[kind]++
			errs = append(errs, model.NormalizationError{Source: source, Symbol: r.Symbol, Kind: kind})
			continue
		}

		base = strings.ToUpper(base)
		quote = strings.ToUpper(quote)

		if quote != "USDT" {
			stats.Rejected[model.ErrInvalidQuote]++
			errs = append(errs, model.NormalizationError{Source: source, Symbol: r.Symbol, Kind: model.ErrInvalidQuote})
			continue
		}
		if base == "USDT" || base == "" {
			stats.Rejected[model.ErrInvalidFormat]++
			errs = append(errs, model.NormalizationError{Source: source, Symbol: r.Symbol, Kind: model.ErrInvalidFormat})
			continue
		}

		stats.Accepted++
		out = append(out, model.NormalizedSymbol{
			Canonical:      base + "-USDT",
			ExchangeSymbol: r.Symbol,
			Source:         source,
			MinQty:         r.MinQty,
			MaxQty:         r.MaxQty,
			TickSize:       r.TickSize,
			MinNotional:    r.MinNotional,
		})
	}

	return out, stats, errs
}

// splitSymbol applies the venue-specific structural parsing rule for
// source and returns the parsed (base, quote), or ok=false with the
// rejection kind.
func splitSymbol(source model.SourceID, r model.RawInstrument) (base, quote string, kind model.NormalizationErrorKind, ok bool) {
	switch source {
	case model.MexcSpot, model.MexcFutures:
		return splitUnderscore(r.Symbol)

	case model.OkxSpot:
		return splitHyphenSpot(r.Symbol)

	case model.OkxFutures:
		return splitHyphenSwap(r.Symbol)

	case model.BybitSpot, model.BybitFutures:
		return splitBybit(r.Symbol, r.BaseAsset, r.QuoteAsset)

	case model.BinanceSpot, model.BinanceFutures:
		return splitConcatenated(r.Symbol, r.BaseAsset, r.QuoteAsset)

	default:
		return "", "", model.ErrInvalidFormat, false
	}
}

// splitConcatenated handles Binance's concatenated symbols: verify that
// upper-casing symbol equals base++quote, using the venue's own declared
// base/quote fields as the split point.
func splitConcatenated(symbol, base, quote string) (string, string, model.NormalizationErrorKind, bool) {
	upper := strings.ToUpper(symbol)
	wantBase := strings.ToUpper(base)
	wantQuote := strings.ToUpper(quote)
	if upper != wantBase+wantQuote {
		return "", "", model.ErrSymbolMismatch, false
	}
	return wantBase, wantQuote, 0, true
}

// splitBybit mirrors splitConcatenated: Bybit's symbol field is also
// concatenated, but the venue additionally declares base/quote explicitly,
// letting us verify instead of derive.
func splitBybit(symbol, base, quote string) (string, string, model.NormalizationErrorKind, bool) {
	return splitConcatenated(symbol, base, quote)
}

func splitUnderscore(symbol string) (string, string, model.NormalizationErrorKind, bool) {
	parts := strings.Split(symbol, "_")
	if len(parts) != 2 {
		return "", "", model.ErrInvalidFormat, false
	}
	return parts[0], parts[1], 0, true
}

func splitHyphenSpot(symbol string) (string, string, model.NormalizationErrorKind, bool) {
	parts := strings.Split(symbol, "-")
	if len(parts) != 2 {
		return "", "", model.ErrInvalidFormat, false
	}
	return parts[0], parts[1], 0, true
}

func splitHyphenSwap(symbol string) (string, string, model.NormalizationErrorKind, bool) {
	parts := strings.Split(symbol, "-")
	if len(parts) != 3 || parts[2] != "SWAP" {
		return "", "", model.ErrInvalidFormat, false
	}
	return parts[0], parts[1], 0, true
}
