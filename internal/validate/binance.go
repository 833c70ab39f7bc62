package validate

import (
	"encoding/json"
	"strconv"
	"strings"
)

// binanceVenue builds and parses Binance spot/futures bookTicker streams.
// Both markets share the same subscribe schema and tick shape; only the
// WS base URL differs (wired via config.ExchangeEndpoint).
type binanceVenue struct{}

type binanceSubscribeMsg struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int      `json:"id"`
}

func (binanceVenue) subscribePayload(batch []string, reqID int) interface{} {
	params := make([]string, len(batch))
	for i, exchangeSymbol := range batch {
		// Binance WS requires lowercase symbols.
		params[i] = strings.ToLower(exchangeSymbol) + "@bookTicker"
	}
	return binanceSubscribeMsg{Method: "SUBSCRIBE", Params: params, ID: reqID}
}

type binanceBookTicker struct {
	Symbol   string `json:"s"`
	BidPrice string `json:"b"`
	AskPrice string `json:"a"`
}

// parseTicks recognizes a raw bookTicker event, or ok=false if the payload
// is not a bookTicker message (e.g. a subscribe ack).
func (binanceVenue) parseTicks(raw []byte) ([]tickObservation, bool) {
	var t binanceBookTicker
	if err := json.Unmarshal(raw, &t); err != nil || t.Symbol == "" {
		return nil, false
	}
	obs := tickObservation{symbol: t.Symbol}
	b, errB := strconv.ParseFloat(t.BidPrice, 64)
	a, errA := strconv.ParseFloat(t.AskPrice, 64)
	if errB == nil && errA == nil {
		obs.bid, obs.ask, obs.parsed = b, a, true
	}
	return []tickObservation{obs}, true
}
