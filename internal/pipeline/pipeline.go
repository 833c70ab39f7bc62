// Package pipeline sequences C1 through C6 and maps the run's terminal
// state to the process exit codes defined below.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/xspread/pairdisco/internal/config"
	"github.com/xspread/pairdisco/internal/direction"
	"github.com/xspread/pairdisco/internal/emit"
	"github.com/xspread/pairdisco/internal/inventory"
	"github.com/xspread/pairdisco/internal/model"
	"github.com/xspread/pairdisco/internal/normalize"
	"github.com/xspread/pairdisco/internal/obs"
	"github.com/xspread/pairdisco/internal/registry"
	"github.com/xspread/pairdisco/internal/validate"
)

// Exit codes.
const (
	ExitOK                  = 0
	ExitIOOrConfigError     = 1
	ExitInsufficientSources = 2
	ExitValidationFailed    = 3
)

// Result carries everything a caller (cmd/pairdisco, tests) needs after a
// run: the chosen exit code and, when the run reached C6, the artifacts it
// produced.
type Result struct {
	ExitCode   int
	Err        error
	RunID      string
	Registry   *model.Registry
	Directions []model.DirectionRecord
}

// Run executes the full five-stage pipeline. It never panics on a venue
// failure; every terminal condition maps to one of the exit codes above.
// metrics may be nil, in which case no Prometheus observations are made.
func Run(ctx context.Context, cfg *config.Config, exchanges *config.Exchanges, directionConfigs []model.DirectionConfig, log zerolog.Logger, metrics *obs.Registry) Result {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeouts.RunHardBudget())
	defer cancel()

	runID := uuid.New().String()
	log = log.With().Str("run_id", runID).Logger()

	recordRun := func(exitCode int) {
		if metrics != nil {
			metrics.RunResult.WithLabelValues(fmt.Sprintf("%d", exitCode)).Inc()
		}
	}
	timeStage := func(stage string, fn func()) {
		start := time.Now()
		fn()
		if metrics != nil {
			metrics.ObserveStage(stage, time.Since(start))
		}
	}

	log.Info().Msg("starting inventory fetch (C1)")
	var fetchResults []model.FetchResult
	var fetchErr error
	timeStage("inventory", func() {
		fetcher := inventory.NewFetcher(exchanges, cfg, log)
		fetchResults, fetchErr = fetcher.FetchAll(ctx)
	})
	if metrics != nil {
		for _, fr := range fetchResults {
			v := 0.0
			if fr.Ok() {
				v = 1.0
			}
			metrics.SourceSuccess.WithLabelValues(fr.Source.String(), "inventory").Set(v)
		}
	}
	var insufficient *inventory.InsufficientSourcesError
	if fetchErr != nil {
		if errors.As(fetchErr, &insufficient) {
			log.Error().Err(fetchErr).Msg("insufficient sources at inventory stage; aborting without emission")
			recordRun(ExitInsufficientSources)
			return Result{ExitCode: ExitInsufficientSources, Err: fetchErr, RunID: runID}
		}
		recordRun(ExitIOOrConfigError)
		return Result{ExitCode: ExitIOOrConfigError, Err: fetchErr, RunID: runID}
	}

	log.Info().Msg("normalizing instruments (C2)")
	var perSource [model.NumSources][]model.NormalizedSymbol
	timeStage("normalize", func() {
		for _, fr := range fetchResults {
			if !fr.Ok() {
				continue
			}
			normalized, stats, _ := normalize.Normalize(fr.Source, fr.Instruments)
			perSource[fr.Source] = normalized
			log.Debug().Str("source", fr.Source.String()).Int("accepted", stats.Accepted).Msg("normalization complete")
		}
	})

	log.Info().Msg("building registry (C3)")
	var reg *model.Registry
	timeStage("registry", func() {
		reg = registry.Build(perSource, log)
	})
	log.Info().Int("num_symbols", len(reg.Records)).Msg("registry built")
	if metrics != nil {
		metrics.SymbolsEmitted.Set(float64(len(reg.Records)))
	}

	log.Info().Msg("building directions (C4)")
	var directions []model.DirectionRecord
	timeStage("direction", func() {
		directions = direction.Build(reg, directionConfigs)
	})

	log.Info().Msg("validating liveness (C5)")
	var validationResults []*model.ValidationResult
	var validateErr error
	timeStage("validate", func() {
		plans := validate.PlanFromRegistry(reg)
		validator := validate.NewValidator(exchanges, cfg, log)
		validationResults, validateErr = validator.ValidateAll(ctx, plans, cfg.MinSources)
	})
	if metrics != nil {
		for _, r := range validationResults {
			metrics.SourceSuccess.WithLabelValues(r.Source.String(), "validate").Set(1)
			if r.Attempted > 0 {
				metrics.ValidationYield.WithLabelValues(r.Source.String()).Set(float64(len(r.Valid)) / float64(r.Attempted))
			}
		}
	}
	if validateErr != nil {
		log.Error().Err(validateErr).Msg("validation quorum not met; aborting without emission")
		recordRun(ExitValidationFailed)
		return Result{ExitCode: ExitValidationFailed, Err: validateErr, RunID: runID}
	}

	applyValidation(reg, directions, validationResults)

	if err := ctx.Err(); err != nil {
		log.Error().Err(err).Msg("run cancelled before emission; previously published files left in place")
		recordRun(ExitIOOrConfigError)
		return Result{ExitCode: ExitIOOrConfigError, Err: err, RunID: runID}
	}

	log.Info().Msg("emitting artifacts (C6)")
	var emitErr error
	timeStage("emit", func() {
		emitter := emit.NewEmitter(cfg.GeneratedDir, true, log)
		configVersion := cfg.NextConfigVersion(time.Now())
		emitErr = emitter.Emit(reg, directions, validationResults, configVersion, time.Now(), runID)
	})
	if emitErr != nil {
		log.Error().Err(emitErr).Msg("emission failed")
		recordRun(ExitIOOrConfigError)
		return Result{ExitCode: ExitIOOrConfigError, Err: fmt.Errorf("emit: %w", emitErr), RunID: runID}
	}

	recordRun(ExitOK)
	return Result{ExitCode: ExitOK, RunID: runID, Registry: reg, Directions: directions}
}

// applyValidation implements the post-validation pruning described in
// slot-clear, retain record: a symbol record whose every
// populated slot was invalidated keeps its id (no reassignment) but loses
// every slot; direction symbol lists are rebuilt against the pruned
// presence.
func applyValidation(reg *model.Registry, directions []model.DirectionRecord, results []*model.ValidationResult) {
	validBySource := make(map[model.SourceID]map[uint16]bool, model.NumSources)
	for _, r := range results {
		validBySource[r.Source] = r.Valid
	}

	for i := range reg.Records {
		rec := &reg.Records[i]
		for _, s := range rec.PopulatedSources() {
			if !validBySource[s][rec.ID] {
				symbol := rec.SourceSymbols[s]
				rec.ClearSource(s)
				if symbol != nil {
					delete(reg.Reverse, model.ReverseKey{Source: s, Symbol: *symbol})
				}
			}
		}
	}

	for i, d := range directions {
		var kept []uint16
		for _, id := range d.Symbols {
			rec, ok := reg.Get(id)
			if !ok {
				continue
			}
			if rec.HasSource(d.SpotSource) && rec.HasSource(d.FuturesSource) {
				kept = append(kept, id)
			}
		}
		directions[i].Symbols = kept
	}
}
