package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xspread/pairdisco/internal/model"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "config.toml", `
generated_dir = "/tmp/pairdisco-out"
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"USDT"}, c.QuoteFilter)
	assert.Equal(t, 6, c.MinSources)
	assert.Equal(t, 10_000, c.Timeouts.HTTPAttemptMS)
}

func TestLoad_MissingGeneratedDir(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "config.toml", `min_successful_sources = 6`)

	_, err := Load(path)
	assert.Error(t, err, "expected error when generated_dir is missing")
}

func TestLoad_RejectsNonUSDTOnlyFilter(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "config.toml", `
generated_dir = "/tmp/out"
quote_filter = ["USDC"]
`)

	_, err := Load(path)
	assert.Error(t, err, "expected error when quote_filter excludes USDT")
}

func TestLoad_RejectsOutOfRangeMinSources(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "config.toml", `
generated_dir = "/tmp/out"
min_successful_sources = 9
`)

	_, err := Load(path)
	assert.Error(t, err, "expected error when min_successful_sources exceeds source count")
}

func TestLoadExchanges_AllEightSourcesRequired(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "exchanges.toml", `
[[source]]
source = "binance_spot"
rest_base = "https://api.binance.com"
ws_base = "wss://stream.binance.com:9443"
batch_size = 200
`)

	_, err := LoadExchanges(path)
	assert.Error(t, err, "expected error when fewer than 8 sources are configured")
}

func TestLoadExchanges_Complete(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "exchanges.toml", sampleExchangesTOML)

	ex, err := LoadExchanges(path)
	require.NoError(t, err)
	ep, ok := ex.Get(model.OkxFutures)
	require.True(t, ok, "expected okx_futures entry to be present")
	assert.Equal(t, 30, ep.BatchSize)
}

func TestLoadDirections_ValidatesMarketTypes(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "directions.toml", `
[[direction]]
name = "binance_spot_vs_binance_futures"
spot_source = "binance_futures"
futures_source = "binance_futures"
`)

	_, err := LoadDirections(path)
	assert.Error(t, err, "expected error when spot_source is actually a futures market")
}

func TestLoadDirections_AssignsSequentialIDs(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "directions.toml", `
[[direction]]
name = "binance_cross"
spot_source = "binance_spot"
futures_source = "binance_futures"

[[direction]]
name = "bybit_cross"
spot_source = "bybit_spot"
futures_source = "bybit_futures"
`)

	dirs, err := LoadDirections(path)
	require.NoError(t, err)
	require.Len(t, dirs, 2)
	assert.Equal(t, 0, dirs[0].ID)
	assert.Equal(t, 1, dirs[1].ID)
}

func TestLoadDirections_HonorsExplicitID(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "directions.toml", `
[[direction]]
id = 7
name = "binance_cross"
spot_source = "binance_spot"
futures_source = "binance_futures"

[[direction]]
name = "bybit_cross"
spot_source = "bybit_spot"
futures_source = "bybit_futures"
`)

	dirs, err := LoadDirections(path)
	require.NoError(t, err)
	require.Len(t, dirs, 2)
	assert.Equal(t, 7, dirs[0].ID, "explicit id must be honored, not overwritten by file order")
	assert.Equal(t, 0, dirs[1].ID, "entry without an id falls back to the lowest unclaimed sequential id")
}

func TestLoadDirections_RejectsDuplicateExplicitID(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "directions.toml", `
[[direction]]
id = 3
name = "binance_cross"
spot_source = "binance_spot"
futures_source = "binance_futures"

[[direction]]
id = 3
name = "bybit_cross"
spot_source = "bybit_spot"
futures_source = "bybit_futures"
`)

	_, err := LoadDirections(path)
	assert.Error(t, err, "expected error when two tables claim the same explicit id")
}

const sampleExchangesTOML = `
[[source]]
source = "binance_spot"
rest_base = "https://api.binance.com"
ws_base = "wss://stream.binance.com:9443"
batch_size = 200

[[source]]
source = "binance_futures"
rest_base = "https://fapi.binance.com"
ws_base = "wss://fstream.binance.com"
batch_size = 200

[[source]]
source = "bybit_spot"
rest_base = "https://api.bybit.com"
ws_base = "wss://stream.bybit.com/v5/public/spot"
batch_size = 100

[[source]]
source = "bybit_futures"
rest_base = "https://api.bybit.com"
ws_base = "wss://stream.bybit.com/v5/public/linear"
batch_size = 100

[[source]]
source = "mexc_spot"
rest_base = "https://api.mexc.com"
ws_base = "wss://wbs.mexc.com/ws"
batch_size = 50

[[source]]
source = "mexc_futures"
rest_base = "https://contract.mexc.com"
ws_base = "wss://contract.mexc.com/ws"
batch_size = 50

[[source]]
source = "okx_spot"
rest_base = "https://www.okx.com"
ws_base = "wss://ws.okx.com:8443/ws/v5/public"
batch_size = 30

[[source]]
source = "okx_futures"
rest_base = "https://www.okx.com"
ws_base = "wss://ws.okx.com:8443/ws/v5/public"
batch_size = 30
`
