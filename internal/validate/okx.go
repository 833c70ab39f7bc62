package validate

import (
	"encoding/json"
	"strconv"
)

type okxVenue struct{}

type okxSubscribeArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

type okxSubscribeMsg struct {
	Op   string            `json:"op"`
	Args []okxSubscribeArg `json:"args"`
}

func (okxVenue) subscribePayload(batch []string, reqID int) interface{} {
	args := make([]okxSubscribeArg, len(batch))
	for i, instID := range batch {
		args[i] = okxSubscribeArg{Channel: "tickers", InstID: instID}
	}
	return okxSubscribeMsg{Op: "subscribe", Args: args}
}

type okxTickerMsg struct {
	Arg struct {
		Channel string `json:"channel"`
	} `json:"arg"`
	Data []struct {
		InstID string `json:"instId"`
		BidPx  string `json:"bidPx"`
		AskPx  string `json:"askPx"`
	} `json:"data"`
}

// parseTicks returns one (symbol, bid, ask) tuple per entry in the data
// array; a single OKX push can carry multiple instruments.
func (okxVenue) parseTicks(raw []byte) ([]tickObservation, bool) {
	var m okxTickerMsg
	if err := json.Unmarshal(raw, &m); err != nil || m.Arg.Channel != "tickers" || len(m.Data) == 0 {
		return nil, false
	}
	out := make([]tickObservation, 0, len(m.Data))
	for _, d := range m.Data {
		obs := tickObservation{symbol: d.InstID}
		b, errB := strconv.ParseFloat(d.BidPx, 64)
		a, errA := strconv.ParseFloat(d.AskPx, 64)
		if errB == nil && errA == nil {
			obs.bid, obs.ask, obs.parsed = b, a, true
		}
		out = append(out, obs)
	}
	return out, true
}

// tickObservation is the venue-agnostic shape fed to the batch loop:
// parsed indicates whether numeric bid/ask were recoverable at all. The
// batch loop skips an observation with parsed=false: it neither validates
// nor invalidates the symbol, which ends up NoMessage unless a parsable
// tick for it arrives later in the batch.
type tickObservation struct {
	symbol string
	bid    float64
	ask    float64
	parsed bool
}
