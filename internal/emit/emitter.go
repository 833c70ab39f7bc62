// Package emit implements stage C6: serializing the validated registry,
// directions, and human-readable reports, and publishing them atomically.
package emit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/xspread/pairdisco/internal/model"
)

// Metadata is the metadata.json document.
type Metadata struct {
	Timestamp          string          `json:"timestamp"`
	RunID              string          `json:"run_id"`
	ConfigVersion      int64           `json:"config_version"`
	NumSymbols         int             `json:"num_symbols"`
	PerSourceCounts    map[string]int  `json:"per_source_counts"`
	PerDirectionCounts map[string]int  `json:"per_direction_counts"`
	ValidationStats    ValidationStats `json:"validation_stats"`
	ContentHash        string          `json:"content_hash"`
}

// ValidationStats summarizes C5's output for downstream observability.
type ValidationStats struct {
	TotalAttempted int                    `json:"total_attempted"`
	TotalValid     int                    `json:"total_valid"`
	TotalInvalid   int                    `json:"total_invalid"`
	PerSource      map[string]SourceStats `json:"per_source"`
}

type SourceStats struct {
	Attempted int `json:"attempted"`
	Valid     int `json:"valid"`
	Invalid   int `json:"invalid"`
}

// Emitter writes the three machine-readable artifacts atomically and the
// three human-readable mirrors best-effort, all into outputDir.
type Emitter struct {
	outputDir string
	fsyncDir  bool
	log       zerolog.Logger
}

func NewEmitter(outputDir string, fsyncDir bool, log zerolog.Logger) *Emitter {
	return &Emitter{outputDir: outputDir, fsyncDir: fsyncDir, log: log}
}

// Emit writes symbols.bin, directions.bin, metadata.json atomically, then
// symbols.txt, directions.txt, validation_report.txt best-effort. Records
// with no populated source slot are left out of every artifact; the
// remaining records keep their ids.
func (e *Emitter) Emit(reg *model.Registry, directions []model.DirectionRecord, results []*model.ValidationResult, configVersion int64, now time.Time, runID string) error {
	published := &model.Registry{Reverse: reg.Reverse}
	for _, rec := range reg.Records {
		if len(rec.PopulatedSources()) > 0 {
			published.Records = append(published.Records, rec)
		}
	}
	reg = published

	symbolsBin := EncodeSymbols(reg.Records)
	directionsBin := EncodeDirections(directions)
	meta := buildMetadata(reg, directions, results, configVersion, now, runID, symbolsBin, directionsBin)

	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("emit: marshal metadata: %w", err)
	}

	if err := writeAtomicFsynced(filepath.Join(e.outputDir, "symbols.bin"), symbolsBin, e.fsyncDir); err != nil {
		return fmt.Errorf("emit: write symbols.bin: %w", err)
	}
	if err := writeAtomicFsynced(filepath.Join(e.outputDir, "directions.bin"), directionsBin, e.fsyncDir); err != nil {
		return fmt.Errorf("emit: write directions.bin: %w", err)
	}
	if err := writeAtomicFsynced(filepath.Join(e.outputDir, "metadata.json"), metaJSON, e.fsyncDir); err != nil {
		return fmt.Errorf("emit: write metadata.json: %w", err)
	}

	if err := writeBestEffort(filepath.Join(e.outputDir, "symbols.txt"), symbolsText(reg.Records)); err != nil {
		e.log.Warn().Err(err).Msg("failed to write symbols.txt (best-effort)")
	}
	if err := writeBestEffort(filepath.Join(e.outputDir, "directions.txt"), directionsText(directions)); err != nil {
		e.log.Warn().Err(err).Msg("failed to write directions.txt (best-effort)")
	}
	if err := writeBestEffort(filepath.Join(e.outputDir, "validation_report.txt"), validationReportText(results)); err != nil {
		e.log.Warn().Err(err).Msg("failed to write validation_report.txt (best-effort)")
	}

	e.log.Info().Int("num_symbols", meta.NumSymbols).Str("content_hash", meta.ContentHash).Msg("publication complete")
	return nil
}

func buildMetadata(reg *model.Registry, directions []model.DirectionRecord, results []*model.ValidationResult, configVersion int64, now time.Time, runID string, symbolsBin, directionsBin []byte) Metadata {
	perSource := make(map[string]int, model.NumSources)
	for _, s := range model.AllSources {
		perSource[s.String()] = 0
	}
	for _, rec := range reg.Records {
		for _, s := range rec.PopulatedSources() {
			perSource[s.String()]++
		}
	}

	perDirection := make(map[string]int, len(directions))
	for _, d := range directions {
		perDirection[d.Name] = len(d.Symbols)
	}

	stats := ValidationStats{PerSource: make(map[string]SourceStats, len(results))}
	for _, r := range results {
		stats.TotalAttempted += r.Attempted
		stats.TotalValid += len(r.Valid)
		stats.TotalInvalid += len(r.Invalid)
		stats.PerSource[r.Source.String()] = SourceStats{
			Attempted: r.Attempted,
			Valid:     len(r.Valid),
			Invalid:   len(r.Invalid),
		}
	}

	hash := sha256.New()
	hash.Write(symbolsBin)
	hash.Write(directionsBin)

	return Metadata{
		Timestamp:          now.UTC().Format(time.RFC3339),
		RunID:              runID,
		ConfigVersion:      configVersion,
		NumSymbols:         len(reg.Records),
		PerSourceCounts:    perSource,
		PerDirectionCounts: perDirection,
		ValidationStats:    stats,
		ContentHash:        hex.EncodeToString(hash.Sum(nil)),
	}
}
