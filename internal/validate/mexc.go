package validate

import (
	"encoding/json"
	"strconv"
	"strings"
)

// mexcVenue covers both MEXC markets. Spot uses a protobuf-topic-style
// channel name carrying a JSON fallback payload for the book ticker;
// futures subscribes to push.deal.{S} topics, and parseTicks reads both
// channels with the same c/s/d.b/d.a shape. A futures source that cannot
// connect counts as a per-source failure toward the validation quorum.
type mexcVenue struct {
	futures bool
}

type mexcSubscribeMsg struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
}

func (m mexcVenue) subscribePayload(batch []string, reqID int) interface{} {
	params := make([]string, len(batch))
	for i, exchangeSymbol := range batch {
		if m.futures {
			params[i] = "push.deal." + exchangeSymbol
		} else {
			// MEXC requires uppercase symbols.
			params[i] = "spot@public.book_ticker.v3.api.pb@" + strings.ToUpper(exchangeSymbol)
		}
	}
	return mexcSubscribeMsg{Method: "SUBSCRIPTION", Params: params}
}

type mexcBookTickerMsg struct {
	Channel string `json:"c"`
	Symbol  string `json:"s"`
	Data    struct {
		BidPrice string `json:"b"`
		AskPrice string `json:"a"`
	} `json:"d"`
}

func (m mexcVenue) parseTicks(raw []byte) ([]tickObservation, bool) {
	var msg mexcBookTickerMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Symbol == "" {
		return nil, false
	}
	if !strings.Contains(msg.Channel, "book_ticker") && !strings.Contains(msg.Channel, "push.deal") {
		return nil, false
	}
	obs := tickObservation{symbol: msg.Symbol}
	b, errB := strconv.ParseFloat(msg.Data.BidPrice, 64)
	a, errA := strconv.ParseFloat(msg.Data.AskPrice, 64)
	if errB == nil && errA == nil {
		obs.bid, obs.ask, obs.parsed = b, a, true
	}
	return []tickObservation{obs}, true
}
