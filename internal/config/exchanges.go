package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/xspread/pairdisco/internal/model"
)

// ExchangeEndpoint is the per-(venue,market) REST/WS wiring exchanges.toml
// supplies: base URLs and the batch size the live validator should use
// when subscribing on this source.
type ExchangeEndpoint struct {
	Source    string `toml:"source"`
	RESTBase  string `toml:"rest_base"`
	WSBase    string `toml:"ws_base"`
	BatchSize int    `toml:"batch_size"`
}

// Exchanges is the parsed exchanges.toml document: one [[source]] table per
// of the eight fixed SourceIDs.
type Exchanges struct {
	Source []ExchangeEndpoint `toml:"source"`

	byID map[model.SourceID]ExchangeEndpoint
}

// LoadExchanges reads and validates exchanges.toml at path.
func LoadExchanges(path string) (*Exchanges, error) {
	var e Exchanges
	if _, err := toml.DecodeFile(path, &e); err != nil {
		return nil, fmt.Errorf("failed to read exchanges config: %w", err)
	}
	if err := e.index(); err != nil {
		return nil, fmt.Errorf("invalid exchanges config: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("invalid exchanges config: %w", err)
	}
	return &e, nil
}

func (e *Exchanges) index() error {
	e.byID = make(map[model.SourceID]ExchangeEndpoint, len(e.Source))
	for _, ep := range e.Source {
		id, ok := sourceIDByName(ep.Source)
		if !ok {
			return fmt.Errorf("unknown source name %q", ep.Source)
		}
		e.byID[id] = ep
	}
	return nil
}

// Validate confirms all eight fixed sources are present and well-formed.
func (e *Exchanges) Validate() error {
	for _, s := range model.AllSources {
		ep, ok := e.byID[s]
		if !ok {
			return fmt.Errorf("missing exchange entry for %s", s)
		}
		if ep.RESTBase == "" {
			return fmt.Errorf("%s: rest_base is required", s)
		}
		if ep.WSBase == "" {
			return fmt.Errorf("%s: ws_base is required", s)
		}
		if ep.BatchSize <= 0 {
			return fmt.Errorf("%s: batch_size must be positive", s)
		}
	}
	return nil
}

// Get returns the endpoint configured for s.
func (e *Exchanges) Get(s model.SourceID) (ExchangeEndpoint, bool) {
	ep, ok := e.byID[s]
	return ep, ok
}

func sourceIDByName(name string) (model.SourceID, bool) {
	for _, s := range model.AllSources {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}
