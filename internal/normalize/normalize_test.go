package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xspread/pairdisco/internal/model"
)

func TestNormalize_BinanceConcatenated(t *testing.T) {
	raw := []model.RawInstrument{
		{Symbol: "BTCUSDT", BaseAsset: "BTC", QuoteAsset: "USDT", Tradable: true},
	}
	out, stats, _ := Normalize(model.BinanceSpot, raw)
	require.Len(t, out, 1)
	assert.Equal(t, "BTC-USDT", out[0].Canonical)
	assert.Equal(t, 1, stats.Accepted)
}

func TestNormalize_RejectsUSDTUSDT(t *testing.T) {
	raw := []model.RawInstrument{
		{Symbol: "USDTUSDT", BaseAsset: "USDT", QuoteAsset: "USDT", Tradable: true},
	}
	out, stats, errs := Normalize(model.BinanceSpot, raw)
	assert.Empty(t, out, "expected USDTUSDT to be rejected")
	assert.Equal(t, 1, stats.Rejected[model.ErrInvalidFormat])
	require.Len(t, errs, 1)
	assert.Equal(t, model.ErrInvalidFormat, errs[0].Kind)
}

func TestNormalize_RejectsOKXPerpSuffix(t *testing.T) {
	raw := []model.RawInstrument{
		{Symbol: "BTC-USDT-PERP", Tradable: true},
	}
	out, _, errs := Normalize(model.OkxSpot, raw)
	assert.Empty(t, out, "expected BTC-USDT-PERP to be rejected on the spot parser")
	require.Len(t, errs, 1)
	assert.Equal(t, model.ErrInvalidFormat, errs[0].Kind)
}

func TestNormalize_OkxSwapRequiresSWAPSuffix(t *testing.T) {
	raw := []model.RawInstrument{
		{Symbol: "BTC-USDT-SWAP", Tradable: true},
		{Symbol: "BTC-USDT-PERP", Tradable: true},
	}
	out, _, errs := Normalize(model.OkxFutures, raw)
	require.Len(t, out, 1, "expected exactly one accepted swap symbol")
	assert.Equal(t, "BTC-USDT", out[0].Canonical)
	assert.Len(t, errs, 1, "expected exactly one rejection for the PERP-suffixed entry")
}

func TestNormalize_MexcUnderscore(t *testing.T) {
	raw := []model.RawInstrument{
		{Symbol: "BTC_USDT", Tradable: true},
	}
	out, _, _ := Normalize(model.MexcSpot, raw)
	require.Len(t, out, 1)
	assert.Equal(t, "BTC-USDT", out[0].Canonical)
}

func TestNormalize_RejectsNonUSDTQuote(t *testing.T) {
	raw := []model.RawInstrument{
		{Symbol: "LUNABUSD", BaseAsset: "LUNA", QuoteAsset: "BUSD", Tradable: true},
	}
	out, stats, _ := Normalize(model.BinanceSpot, raw)
	assert.Empty(t, out, "expected BUSD-quoted pair to be rejected")
	assert.Equal(t, 1, stats.Rejected[model.ErrInvalidQuote])
}

func TestNormalize_SkipsUntradable(t *testing.T) {
	raw := []model.RawInstrument{
		{Symbol: "BTCUSDT", BaseAsset: "BTC", QuoteAsset: "USDT", Tradable: false},
	}
	out, stats, errs := Normalize(model.BinanceSpot, raw)
	assert.Empty(t, out)
	assert.Equal(t, 0, stats.Accepted)
	assert.Empty(t, errs)
}

func TestNormalize_BybitVerifiesDeclaredFields(t *testing.T) {
	raw := []model.RawInstrument{
		{Symbol: "BTCUSDT", BaseAsset: "BTC", QuoteAsset: "USDT", Tradable: true},
	}
	out, _, _ := Normalize(model.BybitSpot, raw)
	require.Len(t, out, 1)
	assert.Equal(t, "BTC-USDT", out[0].Canonical)
}
