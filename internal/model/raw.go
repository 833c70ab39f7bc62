package model

// RawInstrument is one listing as returned verbatim by a venue's REST
// inventory endpoint, before any normalization. It is constructed by the
// inventory fetcher and consumed, then discarded, by the normalizer.
type RawInstrument struct {
	Source SourceID

	// Symbol is the exchange-native trading symbol, e.g. "BTCUSDT" or
	// "BTC-USDT-SWAP".
	Symbol string

	// BaseAsset and QuoteAsset are the venue's own declared asset fields.
	// The Binance, Bybit and MEXC fetchers fill both; the OKX fetcher fills
	// only QuoteAsset. The normalizer checks Binance and Bybit symbols
	// against these fields and splits MEXC and OKX symbols structurally.
	BaseAsset  string
	QuoteAsset string

	// Tradable reflects the venue's own trading-status discriminant,
	// already evaluated by the fetcher's per-endpoint status filter
	// (see each venue's instrument-listing endpoint status column).
	Tradable bool

	MinQty      *float64
	MaxQty      *float64
	TickSize    *float64
	MinNotional *float64
}

// FetchResult is what one of the eight concurrent C1 flows returns: either
// a batch of raw instruments, or an error after retries are exhausted.
type FetchResult struct {
	Source      SourceID
	Instruments []RawInstrument
	Err         error
}

func (r FetchResult) Ok() bool { return r.Err == nil }
