package emit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xspread/pairdisco/internal/model"
)

func strp(s string) *string { return &s }

func sampleRegistry() *model.Registry {
	reg := &model.Registry{
		Records: []model.SymbolRecord{
			{ID: 0, Canonical: "BTC-USDT"},
			{ID: 1, Canonical: "ETH-USDT"},
		},
	}
	reg.Records[0].SourceSymbols[model.BinanceSpot] = strp("BTCUSDT")
	reg.Records[1].SourceSymbols[model.OkxSpot] = strp("ETH-USDT")
	return reg
}

func TestEncodeDecodeSymbols_RoundTrips(t *testing.T) {
	reg := sampleRegistry()
	data := EncodeSymbols(reg.Records)

	decoded, err := DecodeSymbols(data)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, "BTC-USDT", decoded[0].Canonical)
	require.NotNil(t, decoded[0].SourceSymbols[model.BinanceSpot])
	assert.Equal(t, "BTCUSDT", *decoded[0].SourceSymbols[model.BinanceSpot])
	require.NotNil(t, decoded[1].SourceSymbols[model.OkxSpot])
	assert.Equal(t, "ETH-USDT", *decoded[1].SourceSymbols[model.OkxSpot])
}

func TestEncodeSymbols_IsDeterministic(t *testing.T) {
	reg := sampleRegistry()
	a := EncodeSymbols(reg.Records)
	b := EncodeSymbols(reg.Records)
	assert.Equal(t, a, b, "identical input must encode byte-identically")
}

func TestEncodeDecodeDirections_RoundTrips(t *testing.T) {
	records := []model.DirectionRecord{
		{
			DirectionConfig: model.DirectionConfig{ID: 0, Name: "binance_cross", SpotSource: model.BinanceSpot, FuturesSource: model.BinanceFutures},
			Symbols:         []uint16{0, 1, 2},
		},
	}
	data := EncodeDirections(records)
	decoded, err := DecodeDirections(data)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, "binance_cross", decoded[0].Name)
	assert.Equal(t, []uint16{0, 1, 2}, decoded[0].Symbols)
}

func TestEmit_WritesAllSixArtifacts(t *testing.T) {
	dir := t.TempDir()
	e := NewEmitter(dir, false, zerolog.Nop())

	reg := sampleRegistry()
	directions := []model.DirectionRecord{
		{DirectionConfig: model.DirectionConfig{ID: 0, Name: "binance_cross", SpotSource: model.BinanceSpot, FuturesSource: model.BinanceFutures}},
	}
	results := []*model.ValidationResult{model.NewValidationResult(model.BinanceSpot)}

	require.NoError(t, e.Emit(reg, directions, results, 1, time.Unix(0, 0), "test-run"))

	for _, name := range []string{"symbols.bin", "directions.bin", "metadata.json", "symbols.txt", "directions.txt", "validation_report.txt"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoErrorf(t, err, "expected %s to exist", name)
	}
	_, err := os.Stat(filepath.Join(dir, "symbols.bin.tmp"))
	assert.True(t, os.IsNotExist(err), "expected no leftover .tmp file after a successful emit")
}

func TestEmit_RepeatedEmitIsByteIdentical(t *testing.T) {
	dir := t.TempDir()
	e := NewEmitter(dir, false, zerolog.Nop())

	reg := sampleRegistry()
	directions := []model.DirectionRecord{}
	results := []*model.ValidationResult{}

	require.NoError(t, e.Emit(reg, directions, results, 1, time.Unix(0, 0), "test-run"))
	before, err := os.ReadFile(filepath.Join(dir, "symbols.bin"))
	require.NoError(t, err)

	// A second emit with identical input must reproduce byte-identical
	// output.
	require.NoError(t, e.Emit(reg, directions, results, 1, time.Unix(0, 0), "test-run"))
	after, err := os.ReadFile(filepath.Join(dir, "symbols.bin"))
	require.NoError(t, err)
	assert.Equal(t, before, after, "expected byte-identical symbols.bin across repeated emits of identical input")
}
