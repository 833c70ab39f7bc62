// Package direction implements stage C4: intersecting the registry's
// per-source slot presence across each configured (spot_source,
// futures_source) pair. No network activity occurs here.
package direction

import (
	"github.com/xspread/pairdisco/internal/model"
)

// Build computes one DirectionRecord per config, with Symbols sorted
// ascending by id.
func Build(reg *model.Registry, configs []model.DirectionConfig) []model.DirectionRecord {
	out := make([]model.DirectionRecord, 0, len(configs))
	for _, cfg := range configs {
		var symbols []uint16
		for _, rec := range reg.Records {
			if rec.HasSource(cfg.SpotSource) && rec.HasSource(cfg.FuturesSource) {
				symbols = append(symbols, rec.ID)
			}
		}
		out = append(out, model.DirectionRecord{DirectionConfig: cfg, Symbols: symbols})
	}
	return out
}
