package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/xspread/pairdisco/internal/model"
)

// directionEntry is one [[direction]] table in directions.toml. ID is a
// pointer so an absent `id` key can be told apart from an explicit `id = 0`.
type directionEntry struct {
	ID            *int   `toml:"id"`
	Name          string `toml:"name"`
	SpotSource    string `toml:"spot_source"`
	FuturesSource string `toml:"futures_source"`
}

// Directions is the parsed directions.toml document.
type Directions struct {
	Direction []directionEntry `toml:"direction"`
}

// LoadDirections reads and validates directions.toml, returning the
// configured DirectionConfig entries. Each table may set an explicit `id`;
// tables that omit it are assigned sequentially by file order, skipping any
// ids explicit tables already claimed. Mixing explicit and omitted ids
// within one file is allowed.
func LoadDirections(path string) ([]model.DirectionConfig, error) {
	var d Directions
	if _, err := toml.DecodeFile(path, &d); err != nil {
		return nil, fmt.Errorf("failed to read directions config: %w", err)
	}

	usedIDs := make(map[int]bool, len(d.Direction))
	for i, e := range d.Direction {
		if e.ID == nil {
			continue
		}
		if usedIDs[*e.ID] {
			return nil, fmt.Errorf("direction %d: duplicate id %d", i, *e.ID)
		}
		usedIDs[*e.ID] = true
	}

	out := make([]model.DirectionConfig, 0, len(d.Direction))
	seen := make(map[string]bool, len(d.Direction))
	nextAuto := 0
	for i, e := range d.Direction {
		if e.Name == "" {
			return nil, fmt.Errorf("direction %d: name is required", i)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("direction %q: duplicate name", e.Name)
		}
		seen[e.Name] = true

		spot, ok := sourceIDByName(e.SpotSource)
		if !ok {
			return nil, fmt.Errorf("direction %q: unknown spot_source %q", e.Name, e.SpotSource)
		}
		fut, ok := sourceIDByName(e.FuturesSource)
		if !ok {
			return nil, fmt.Errorf("direction %q: unknown futures_source %q", e.Name, e.FuturesSource)
		}
		if !fut.IsFutures() {
			return nil, fmt.Errorf("direction %q: futures_source %q is not a futures market", e.Name, e.FuturesSource)
		}
		if spot.IsFutures() {
			return nil, fmt.Errorf("direction %q: spot_source %q is not a spot market", e.Name, e.SpotSource)
		}

		id := 0
		if e.ID != nil {
			id = *e.ID
		} else {
			for usedIDs[nextAuto] {
				nextAuto++
			}
			id = nextAuto
			usedIDs[nextAuto] = true
			nextAuto++
		}

		out = append(out, model.DirectionConfig{
			ID:            id,
			Name:          e.Name,
			SpotSource:    spot,
			FuturesSource: fut,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("directions config: no [[direction]] tables found")
	}
	return out, nil
}
