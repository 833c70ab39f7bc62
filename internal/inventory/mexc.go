package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/xspread/pairdisco/internal/config"
	"github.com/xspread/pairdisco/internal/model"
)

// mexcFetcher covers both MEXC spot (Binance-shaped exchangeInfo, status
// encoded as a numeric string) and MEXC futures (a distinct contract/detail
// endpoint that commonly 4xxs for non-institutional credentials; that
// permanent failure is expected and tolerated at the quorum level).
type mexcFetcher struct {
	futures bool
}

type mexcSpotExchangeInfo struct {
	Symbols []struct {
		Symbol      string `json:"symbol"`
		Status      string `json:"status"`
		BaseAsset   string `json:"baseAsset"`
		QuoteAsset  string `json:"quoteAsset"`
		BaseSizePrecision string `json:"baseSizePrecision,omitempty"`
	} `json:"symbols"`
}

type mexcContractDetail struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    []struct {
		Symbol     string  `json:"symbol"`
		State      int     `json:"state"`
		BaseCoin   string  `json:"baseCoin"`
		QuoteCoin  string  `json:"quoteCoin"`
		PriceUnit  float64 `json:"priceUnit"`
		VolUnit    float64 `json:"volUnit"`
		MinVol     float64 `json:"minVol"`
		MaxVol     float64 `json:"maxVol"`
	} `json:"data"`
}

func (m mexcFetcher) Fetch(ctx context.Context, client *http.Client, endpoint config.ExchangeEndpoint) ([]model.RawInstrument, error) {
	if m.futures {
		return m.fetchFutures(ctx, client, endpoint)
	}
	return m.fetchSpot(ctx, client, endpoint)
}

func (m mexcFetcher) fetchSpot(ctx context.Context, client *http.Client, endpoint config.ExchangeEndpoint) ([]model.RawInstrument, error) {
	reqURL := endpoint.RESTBase + "/api/v3/exchangeInfo"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mexc exchangeInfo: unexpected status %d", resp.StatusCode)
	}

	var info mexcSpotExchangeInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("mexc exchangeInfo: decode: %w", err)
	}

	out := make([]model.RawInstrument, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		out = append(out, model.RawInstrument{
			Symbol:     s.Symbol,
			BaseAsset:  s.BaseAsset,
			QuoteAsset: s.QuoteAsset,
			Tradable:   s.Status == "1",
		})
	}
	return out, nil
}

func (m mexcFetcher) fetchFutures(ctx context.Context, client *http.Client, endpoint config.ExchangeEndpoint) ([]model.RawInstrument, error) {
	reqURL := endpoint.RESTBase + "/api/v1/contract/detail"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		// MEXC futures commonly denies non-institutional access with a 4xx;
		// this is permanent and not retried.
		return nil, fmt.Errorf("mexc contract/detail: unexpected status %d (futures access may be restricted)", resp.StatusCode)
	}

	var detail mexcContractDetail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return nil, fmt.Errorf("mexc contract/detail: decode: %w", err)
	}
	if !detail.Success {
		return nil, fmt.Errorf("mexc contract/detail: code %d: %s", detail.Code, detail.Message)
	}

	out := make([]model.RawInstrument, 0, len(detail.Data))
	for _, d := range detail.Data {
		minQty := d.MinVol
		maxQty := d.MaxVol
		tick := d.PriceUnit
		out = append(out, model.RawInstrument{
			Symbol:     d.Symbol,
			BaseAsset:  d.BaseCoin,
			QuoteAsset: d.QuoteCoin,
			Tradable:   d.State == 0,
			MinQty:     &minQty,
			MaxQty:     &maxQty,
			TickSize:   &tick,
		})
	}
	return out, nil
}
