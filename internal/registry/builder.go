// Package registry implements stage C3: folding the per-source normalized
// symbol lists into one globally-assigned Registry. Id assignment is a
// pure function of the sorted set of canonical names so that identical
// inputs, regardless of which source's goroutine finished fetching first,
// produce identical output.
package registry

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/xspread/pairdisco/internal/model"
)

type builder struct {
	canonical string
	sources   [model.NumSources]*model.NormalizedSymbol
}

// Build consumes one NormalizedSymbol slice per source (in model.AllSources
// order; an empty slice represents a failed or empty source) and returns
// the assigned Registry.
func Build(perSource [model.NumSources][]model.NormalizedSymbol, log zerolog.Logger) *model.Registry {
	builders := make(map[string]*builder)

	for _, s := range model.AllSources {
		for i := range perSource[s] {
			sym := &perSource[s][i]
			b, ok := builders[sym.Canonical]
			if !ok {
				b = &builder{canonical: sym.Canonical}
				builders[sym.Canonical] = b
			}
			if b.sources[s] != nil {
				log.Warn().Str("canonical", sym.Canonical).Str("source", s.String()).
					Msg("duplicate (source, canonical) pair in registry build; keeping first")
				continue
			}
			b.sources[s] = sym
		}
	}

	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) > model.MaxSymbols {
		log.Warn().Int("total", len(names)).Int("max", model.MaxSymbols).
			Msg("registry overflow; truncating high end of sorted canonical names")
		names = names[:model.MaxSymbols]
	}

	reg := &model.Registry{
		Records: make([]model.SymbolRecord, len(names)),
		Reverse: make(map[model.ReverseKey]uint16, len(names)*model.NumSources),
	}

	for i, name := range names {
		id := uint16(i)
		b := builders[name]
		rec := model.SymbolRecord{ID: id, Canonical: name}

		for _, s := range model.AllSources {
			sym := b.sources[s]
			if sym == nil {
				continue
			}
			symbol := sym.ExchangeSymbol
			rec.SourceSymbols[s] = &symbol
			rec.MinQty[s] = sym.MinQty
			rec.MaxQty[s] = sym.MaxQty
			rec.TickSize[s] = sym.TickSize
			rec.MinNotional[s] = sym.MinNotional

			reg.Reverse[model.ReverseKey{Source: s, Symbol: symbol}] = id
		}

		reg.Records[i] = rec
	}

	return reg
}
