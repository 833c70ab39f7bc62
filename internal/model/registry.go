package model

// MaxSymbols caps the registry size.
const MaxSymbols = 1024

// SymbolRecord is one global instrument: a 16-bit id, its canonical name,
// and per-source presence/attributes. A nil SourceSymbols[i] means the
// instrument is not listed on source i.
type SymbolRecord struct {
	ID        uint16
	Canonical string

	SourceSymbols [NumSources]*string

	MinQty      [NumSources]*float64
	MaxQty      [NumSources]*float64
	TickSize    [NumSources]*float64
	MinNotional [NumSources]*float64
}

// HasSource reports whether the record is populated for source s.
func (r *SymbolRecord) HasSource(s SourceID) bool {
	return r.SourceSymbols[s] != nil
}

// ClearSource removes source s's slot from the record, used by the live
// the post-validation pruning pass: the record survives,
// only the invalidated slot is cleared.
func (r *SymbolRecord) ClearSource(s SourceID) {
	r.SourceSymbols[s] = nil
	r.MinQty[s] = nil
	r.MaxQty[s] = nil
	r.TickSize[s] = nil
	r.MinNotional[s] = nil
}

// PopulatedSources returns the sources for which this record has a slot,
// in ascending SourceID order.
func (r *SymbolRecord) PopulatedSources() []SourceID {
	var out []SourceID
	for _, s := range AllSources {
		if r.HasSource(s) {
			out = append(out, s)
		}
	}
	return out
}

// ReverseKey is the reverse-map lookup key: a venue-native symbol on a
// specific source maps back to exactly one global id.
type ReverseKey struct {
	Source SourceID
	Symbol string
}

// Registry is the full, globally-assigned instrument inventory for one
// pipeline run. Records is indexed by id for ids still present; pruning
// clears source slots but never reassigns or repacks ids,
// so Records may contain entries whose slots are all empty after a run with
// heavy validation failure — callers filter those out at emission time
// rather than at registry-build time, keeping id stability visible end to
// end.
type Registry struct {
	Records []SymbolRecord
	Reverse map[ReverseKey]uint16
}

// Lookup resolves a venue symbol on a source back to its global id.
func (r *Registry) Lookup(s SourceID, symbol string) (uint16, bool) {
	id, ok := r.Reverse[ReverseKey{Source: s, Symbol: symbol}]
	return id, ok
}

// Get returns the record for id, if id is within range.
func (r *Registry) Get(id uint16) (*SymbolRecord, bool) {
	if int(id) >= len(r.Records) {
		return nil, false
	}
	return &r.Records[id], true
}
