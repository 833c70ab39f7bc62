package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/xspread/pairdisco/internal/config"
	"github.com/xspread/pairdisco/internal/model"
)

// binanceFetcher parses Binance's /exchangeInfo response, shared in shape
// between spot (api.binance.com) and USDT-margined futures (fapi.binance.com).
type binanceFetcher struct {
	futures bool
}

type binanceExchangeInfo struct {
	Symbols []struct {
		Symbol       string `json:"symbol"`
		Status       string `json:"status"`
		BaseAsset    string `json:"baseAsset"`
		QuoteAsset   string `json:"quoteAsset"`
		ContractType string `json:"contractType"`
		Filters      []struct {
			FilterType  string `json:"filterType"`
			TickSize    string `json:"tickSize,omitempty"`
			StepSize    string `json:"stepSize,omitempty"`
			MinQty      string `json:"minQty,omitempty"`
			MaxQty      string `json:"maxQty,omitempty"`
			MinNotional string `json:"minNotional,omitempty"`
			Notional    string `json:"notional,omitempty"`
		} `json:"filters"`
	} `json:"symbols"`
}

func (b binanceFetcher) Fetch(ctx context.Context, client *http.Client, endpoint config.ExchangeEndpoint) ([]model.RawInstrument, error) {
	url := endpoint.RESTBase + "/exchangeInfo"
	if b.futures {
		url = endpoint.RESTBase + "/fapi/v1/exchangeInfo"
	} else {
		url = endpoint.RESTBase + "/api/v3/exchangeInfo"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("binance exchangeInfo: unexpected status %d", resp.StatusCode)
	}

	var info binanceExchangeInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("binance exchangeInfo: decode: %w", err)
	}

	out := make([]model.RawInstrument, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		if b.futures && s.ContractType != "PERPETUAL" {
			continue
		}
		inst := model.RawInstrument{
			Symbol:     s.Symbol,
			BaseAsset:  s.BaseAsset,
			QuoteAsset: s.QuoteAsset,
			Tradable:   s.Status == "TRADING",
		}
		for _, f := range s.Filters {
			switch f.FilterType {
			case "PRICE_FILTER":
				inst.TickSize = parseFloatPtr(f.TickSize)
			case "LOT_SIZE":
				inst.MinQty = parseFloatPtr(f.MinQty)
				inst.MaxQty = parseFloatPtr(f.MaxQty)
			case "MIN_NOTIONAL":
				inst.MinNotional = parseFloatPtr(f.MinNotional)
			case "NOTIONAL":
				inst.MinNotional = parseFloatPtr(f.MinNotional)
			}
		}
		out = append(out, inst)
	}
	return out, nil
}

func parseFloatPtr(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
