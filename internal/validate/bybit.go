package validate

import (
	"encoding/json"
	"strconv"
	"strings"
)

type bybitVenue struct{}

type bybitSubscribeMsg struct {
	Op   string   `json:"op"`
	Args []string `json:"args"`
}

func (bybitVenue) subscribePayload(batch []string, reqID int) interface{} {
	args := make([]string, len(batch))
	for i, exchangeSymbol := range batch {
		args[i] = "tickers." + exchangeSymbol
	}
	return bybitSubscribeMsg{Op: "subscribe", Args: args}
}

type bybitTickerMsg struct {
	Topic string `json:"topic"`
	Type  string `json:"type"`
	Data  struct {
		Symbol   string `json:"symbol"`
		Bid1Price string `json:"bid1Price"`
		Ask1Price string `json:"ask1Price"`
	} `json:"data"`
}

// parseTicks handles Bybit's snapshot+delta tickers.{S} shape: a symbol
// qualifies on the first message (snapshot or delta) carrying non-empty
// bid1Price/ask1Price.
func (bybitVenue) parseTicks(raw []byte) ([]tickObservation, bool) {
	var m bybitTickerMsg
	if err := json.Unmarshal(raw, &m); err != nil || !strings.HasPrefix(m.Topic, "tickers.") {
		return nil, false
	}
	symbol := m.Data.Symbol
	if symbol == "" {
		symbol = strings.TrimPrefix(m.Topic, "tickers.")
	}
	obs := tickObservation{symbol: symbol}
	if m.Data.Bid1Price != "" && m.Data.Ask1Price != "" {
		b, errB := strconv.ParseFloat(m.Data.Bid1Price, 64)
		a, errA := strconv.ParseFloat(m.Data.Ask1Price, 64)
		if errB == nil && errA == nil {
			obs.bid, obs.ask, obs.parsed = b, a, true
		}
	}
	return []tickObservation{obs}, true
}
