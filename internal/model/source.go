// Package model holds the data types shared by every stage of the pair
// discovery pipeline: sources, raw and normalized instruments, the symbol
// registry, directions, and validation outcomes.
package model

import "fmt"

// SourceID identifies one of the eight (venue, market-type) endpoints the
// pipeline knows about. The set is fixed at compile time.
type SourceID int

const (
	BinanceSpot SourceID = iota
	BinanceFutures
	BybitSpot
	BybitFutures
	MexcSpot
	MexcFutures
	OkxSpot
	OkxFutures

	NumSources = 8
)

// AllSources enumerates the eight sources in a fixed, stable order. Several
// stages iterate this slice directly so that output ordering never depends
// on map iteration order.
var AllSources = [NumSources]SourceID{
	BinanceSpot, BinanceFutures,
	BybitSpot, BybitFutures,
	MexcSpot, MexcFutures,
	OkxSpot, OkxFutures,
}

func (s SourceID) String() string {
	switch s {
	case BinanceSpot:
		return "binance_spot"
	case BinanceFutures:
		return "binance_futures"
	case BybitSpot:
		return "bybit_spot"
	case BybitFutures:
		return "bybit_futures"
	case MexcSpot:
		return "mexc_spot"
	case MexcFutures:
		return "mexc_futures"
	case OkxSpot:
		return "okx_spot"
	case OkxFutures:
		return "okx_futures"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// Venue returns the exchange name independent of market type, used for
// grouping per-venue config (base URLs, etc).
func (s SourceID) Venue() string {
	switch s {
	case BinanceSpot, BinanceFutures:
		return "binance"
	case BybitSpot, BybitFutures:
		return "bybit"
	case MexcSpot, MexcFutures:
		return "mexc"
	case OkxSpot, OkxFutures:
		return "okx"
	default:
		return "unknown"
	}
}

// IsFutures reports whether the source is a USDT-margined perpetual futures
// market as opposed to spot.
func (s SourceID) IsFutures() bool {
	switch s {
	case BinanceFutures, BybitFutures, MexcFutures, OkxFutures:
		return true
	default:
		return false
	}
}

// Valid reports whether s is one of the eight known sources.
func (s SourceID) Valid() bool {
	return s >= BinanceSpot && s <= OkxFutures
}
