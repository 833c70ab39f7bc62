package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/xspread/pairdisco/internal/config"
	"github.com/xspread/pairdisco/internal/model"
)

// okxFetcher parses /api/v5/public/instruments; instType selects SPOT vs
// SWAP (USDT-margined perpetual).
type okxFetcher struct {
	instType string
}

type okxInstrumentsResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		InstID    string `json:"instId"`
		InstType  string `json:"instType"`
		State     string `json:"state"`
		QuoteCcy  string `json:"quoteCcy"`
		SettleCcy string `json:"settleCcy"`
		TickSz    string `json:"tickSz"`
		MinSz     string `json:"minSz"`
		LotSz     string `json:"lotSz"`
	} `json:"data"`
}

func (o okxFetcher) Fetch(ctx context.Context, client *http.Client, endpoint config.ExchangeEndpoint) ([]model.RawInstrument, error) {
	q := url.Values{}
	q.Set("instType", o.instType)
	reqURL := endpoint.RESTBase + "/api/v5/public/instruments?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed okxInstrumentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("okx instruments: decode: %w", err)
	}
	if resp.StatusCode != http.StatusOK || parsed.Code != "0" {
		return nil, fmt.Errorf("okx instruments: status %d code %s (%s)", resp.StatusCode, parsed.Code, parsed.Msg)
	}

	out := make([]model.RawInstrument, 0, len(parsed.Data))
	for _, d := range parsed.Data {
		// quote field depends on market type: spot declares quoteCcy,
		// swap declares settleCcy.
		quote := d.QuoteCcy
		if o.instType == "SWAP" {
			quote = d.SettleCcy
		}
		out = append(out, model.RawInstrument{
			Symbol:     d.InstID,
			QuoteAsset: quote,
			Tradable:   d.State == "live",
			TickSize:   parseFloatPtr(d.TickSz),
			MinQty:     parseFloatPtr(d.MinSz),
		})
	}
	return out, nil
}
