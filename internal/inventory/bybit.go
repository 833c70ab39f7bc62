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

// bybitFetcher parses Bybit's cursor-paged /v5/market/instruments-info
// response; category distinguishes spot from linear (USDT futures).
type bybitFetcher struct {
	category string
}

type bybitInstrumentsResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		NextPageCursor string `json:"nextPageCursor"`
		List           []struct {
			Symbol      string `json:"symbol"`
			Status      string `json:"status"`
			BaseCoin    string `json:"baseCoin"`
			QuoteCoin   string `json:"quoteCoin"`
			PriceFilter struct {
				TickSize string `json:"tickSize"`
			} `json:"priceFilter"`
			LotSizeFilter struct {
				MinOrderQty string `json:"minOrderQty"`
				MaxOrderQty string `json:"maxOrderQty"`
			} `json:"lotSizeFilter"`
		} `json:"list"`
	} `json:"result"`
}

func (b bybitFetcher) Fetch(ctx context.Context, client *http.Client, endpoint config.ExchangeEndpoint) ([]model.RawInstrument, error) {
	var out []model.RawInstrument
	cursor := ""

	for {
		q := url.Values{}
		q.Set("category", b.category)
		q.Set("limit", "1000")
		if cursor != "" {
			q.Set("cursor", cursor)
		}
		reqURL := endpoint.RESTBase + "/v5/market/instruments-info?" + q.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}

		var parsed bybitInstrumentsResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&parsed)
		resp.Body.Close()
		if decodeErr != nil {
			return nil, fmt.Errorf("bybit instruments-info: decode: %w", decodeErr)
		}
		if resp.StatusCode != http.StatusOK || parsed.RetCode != 0 {
			return nil, fmt.Errorf("bybit instruments-info: status %d retCode %d (%s)", resp.StatusCode, parsed.RetCode, parsed.RetMsg)
		}

		for _, s := range parsed.Result.List {
			out = append(out, model.RawInstrument{
				Symbol:     s.Symbol,
				BaseAsset:  s.BaseCoin,
				QuoteAsset: s.QuoteCoin,
				Tradable:   s.Status == "Trading",
				TickSize:   parseFloatPtr(s.PriceFilter.TickSize),
				MinQty:     parseFloatPtr(s.LotSizeFilter.MinOrderQty),
				MaxQty:     parseFloatPtr(s.LotSizeFilter.MaxOrderQty),
			})
		}

		if parsed.Result.NextPageCursor == "" {
			break
		}
		cursor = parsed.Result.NextPageCursor
	}

	return out, nil
}
