// internal/service/service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"propsim/internal/autosim"
	"propsim/internal/cache"
	apperrors "propsim/internal/common/errors"
	"propsim/internal/common/logger"
	"propsim/internal/common/metrics"
	"propsim/internal/export"
	"propsim/internal/models"
	"propsim/internal/sim"
	"propsim/internal/storage"
	"propsim/internal/validation"
)

// cacheKeyPrefix namespaces simulation results in the shared cache.
const cacheKeyPrefix = "sim:"

// RunOutcome pairs the persisted run row with the full simulation result
// it was derived from.
type RunOutcome struct {
	Run    *models.Run `json:"run"`
	Result *sim.Result `json:"result"`
}

// Service orchestrates storage, validation, the result cache, the engine,
// and CSV export behind one API shared by the CLI and the HTTP server.
type Service struct {
	repo     storage.Repository
	cache    cache.Repository
	runsDir  string
	cacheTTL time.Duration
	logger   logger.Logger
	now      func() time.Time
}

// New builds a Service. cacheRepo may be nil, which disables result
// caching; every simulation then computes from scratch.
func New(repo storage.Repository, cacheRepo cache.Repository, runsDir string, cacheTTL time.Duration, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		repo:     repo,
		cache:    cacheRepo,
		runsDir:  runsDir,
		cacheTTL: cacheTTL,
		logger:   log.WithFields(map[string]interface{}{"component": "service"}),
		now:      time.Now,
	}
}

// Simulate runs one full simulation for cfg, serving repeated identical
// configs from the result cache. Cache failures degrade to recomputation
// and never surface to the caller.
func (s *Service) Simulate(ctx context.Context, cfg sim.Config) (*sim.Result, error) {
	start := time.Now()

	engine, err := sim.New(cfg, s.logger)
	if err != nil {
		metrics.SimulationsFailed.WithLabelValues(string(apperrors.ErrCodeInvalidConfiguration)).Inc()
		return nil, apperrors.NewInvalidConfigurationError(err.Error())
	}

	key := cacheKeyPrefix + cfg.Hash()
	if raw, ok := s.cacheGet(ctx, key); ok {
		var cached sim.Result
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			s.logger.Debug("simulation served from cache", map[string]interface{}{"cacheKey": key})
			return &cached, nil
		}
		s.logger.Warn("discarding undecodable cache entry", map[string]interface{}{"cacheKey": key})
	}

	result, err := engine.Run()
	if err != nil {
		if errors.Is(err, sim.ErrInvalidConfig) {
			metrics.SimulationsFailed.WithLabelValues(string(apperrors.ErrCodeInvalidConfiguration)).Inc()
			return nil, apperrors.NewInvalidConfigurationError(err.Error())
		}
		metrics.SimulationsFailed.WithLabelValues(string(apperrors.ErrCodeInternal)).Inc()
		return nil, apperrors.NewInternalError(err)
	}

	s.cachePut(ctx, key, result)

	rental := string(cfg.RentalType)
	metrics.SimulationsCompleted.WithLabelValues(rental).Inc()
	metrics.SimulationDuration.WithLabelValues(rental).Observe(time.Since(start).Seconds())
	return result, nil
}

// SimulateParams parses a raw params document and simulates it. Used by
// the ad-hoc surfaces where the caller supplies JSON rather than a
// stored scenario.
func (s *Service) SimulateParams(ctx context.Context, params json.RawMessage) (*sim.Result, error) {
	cfg, err := s.parseParams(params)
	if err != nil {
		return nil, err
	}
	return s.Simulate(ctx, cfg)
}

// RunScenario executes a persisted scenario end to end: validate the
// stored params, simulate, record the run row, and materialize the CSV
// artifact next to it. Every invocation appends a new run row; history
// is the point.
func (s *Service) RunScenario(ctx context.Context, scenarioID int64) (*RunOutcome, error) {
	scenario, err := s.repo.GetScenario(ctx, scenarioID)
	if err != nil {
		return nil, apperrors.NewStorageQueryFailedError("get_scenario", err)
	}
	if scenario == nil {
		return nil, apperrors.NewNotFoundError("scenario", strconv.FormatInt(scenarioID, 10))
	}

	cfg, err := s.parseParams(scenario.Params)
	if err != nil {
		return nil, err
	}

	result, err := s.Simulate(ctx, cfg)
	if err != nil {
		return nil, err
	}

	run := runFromSummary(scenarioID, result.Summary)
	run.RunAt = s.now().UTC().Format(time.RFC3339)

	runID, err := s.repo.AddRun(ctx, run)
	if err != nil {
		return nil, s.storageErr("add_run", "scenario", scenarioID, err)
	}
	run.ID = runID

	csvPath, err := export.RunArtifact(s.runsDir, runID, result.Months)
	if err != nil {
		// The run row stays; only its artifact is missing.
		s.logger.WithError(err).Error("run artifact export failed", map[string]interface{}{"runID": runID})
		return nil, apperrors.NewExportFailedError(s.runsDir, err)
	}
	if err := s.repo.SetRunArtifact(ctx, runID, csvPath); err != nil {
		return nil, s.storageErr("set_run_artifact", "run", runID, err)
	}
	run.CSVPath = &csvPath

	s.logger.Info("scenario run recorded", map[string]interface{}{
		"scenarioID": scenarioID,
		"runID":      runID,
		"csvPath":    csvPath,
	})
	return &RunOutcome{Run: run, Result: result}, nil
}

// Sweep evaluates the down-payment sweep for cfg. Results are not
// persisted; sweeps answer what-if questions, runs record decisions.
func (s *Service) Sweep(ctx context.Context, cfg sim.Config, opts autosim.Options, progress autosim.Progress) (*autosim.Result, error) {
	sweeper, err := autosim.New(cfg, s.logger)
	if err != nil {
		metrics.SimulationsFailed.WithLabelValues(string(apperrors.ErrCodeInvalidConfiguration)).Inc()
		return nil, apperrors.NewInvalidConfigurationError(err.Error())
	}

	observer := func(current, total int, row autosim.Row) {
		metrics.SweepSamplesEvaluated.Inc()
		if progress != nil {
			progress(current, total, row)
		}
	}

	result, err := sweeper.DownPaymentForCashFlow(opts, observer)
	if err != nil {
		if errors.Is(err, autosim.ErrInvalidRange) {
			return nil, apperrors.NewInvalidConfigurationError(err.Error())
		}
		return nil, apperrors.NewInternalError(err)
	}
	return result, nil
}

// SweepParams parses a raw params document and sweeps it.
func (s *Service) SweepParams(ctx context.Context, params json.RawMessage, opts autosim.Options, progress autosim.Progress) (*autosim.Result, error) {
	cfg, err := s.parseParams(params)
	if err != nil {
		return nil, err
	}
	return s.Sweep(ctx, cfg, opts, progress)
}

// CreateScenario validates the params document before persisting it, so
// bad configs are rejected at write time instead of at run time.
func (s *Service) CreateScenario(ctx context.Context, propertyID int64, name string, params json.RawMessage) (int64, error) {
	if err := s.checkParams(params); err != nil {
		return 0, err
	}
	id, err := s.repo.CreateScenario(ctx, propertyID, name, params)
	if err != nil {
		return 0, s.storageErr("create_scenario", "property", propertyID, err)
	}
	return id, nil
}

// UpdateScenario applies the same write-time validation as CreateScenario.
func (s *Service) UpdateScenario(ctx context.Context, id int64, name string, params json.RawMessage) error {
	if err := s.checkParams(params); err != nil {
		return err
	}
	if err := s.repo.UpdateScenario(ctx, id, name, params); err != nil {
		return s.storageErr("update_scenario", "scenario", id, err)
	}
	return nil
}

// --- internals ---

// checkParams runs the schema over a raw params document.
func (s *Service) checkParams(doc json.RawMessage) error {
	check, err := validation.ValidateParams(doc)
	if err != nil {
		return apperrors.NewValidationFailedError(err.Error(), nil)
	}
	if !check.Valid {
		return apperrors.NewValidationFailedError("scenario params rejected by schema", check.FieldErrors())
	}
	return nil
}

// parseParams validates and decodes a params document into an engine
// config. Rejections count as failed simulations because the caller was
// trying to run one.
func (s *Service) parseParams(doc json.RawMessage) (sim.Config, error) {
	if err := s.checkParams(doc); err != nil {
		metrics.SimulationsFailed.WithLabelValues(string(apperrors.ErrCodeValidationFailed)).Inc()
		return sim.Config{}, err
	}
	cfg, err := sim.ParseConfig(doc)
	if err != nil {
		metrics.SimulationsFailed.WithLabelValues(string(apperrors.ErrCodeInvalidConfiguration)).Inc()
		return sim.Config{}, apperrors.NewInvalidConfigurationError(err.Error())
	}
	return cfg, nil
}

// storageErr maps a repository failure onto the standard error taxonomy,
// preserving not-found semantics for writes that lost a race with a
// delete.
func (s *Service) storageErr(op, resource string, id int64, err error) *apperrors.StandardError {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.NewNotFoundError(resource, strconv.FormatInt(id, 10))
	}
	return apperrors.NewStorageQueryFailedError(op, err)
}

func (s *Service) cacheGet(ctx context.Context, key string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	val, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheRequests.WithLabelValues("error").Inc()
		s.logger.WithError(err).Warn("cache lookup failed, recomputing", map[string]interface{}{"cacheKey": key})
		return "", false
	}
	if !ok {
		metrics.CacheRequests.WithLabelValues("miss").Inc()
		return "", false
	}
	metrics.CacheRequests.WithLabelValues("hit").Inc()
	return val, true
}

func (s *Service) cachePut(ctx context.Context, key string, result *sim.Result) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(data), s.cacheTTL); err != nil {
		metrics.CacheRequests.WithLabelValues("error").Inc()
		s.logger.WithError(err).Warn("cache store failed", map[string]interface{}{"cacheKey": key})
	}
}

// runFromSummary shapes a summary into the run row the history table keeps.
func runFromSummary(scenarioID int64, sum sim.Summary) *models.Run {
	return &models.Run{
		ScenarioID:       scenarioID,
		MonthlyMortgage:  sum.MonthlyMortgage,
		InitialCoC:       sum.InitialCashOnCashPercent,
		EndingMonthlyCF:  sum.EndingMonthlyCashFlow,
		CumulativeCF:     sum.CumulativeCashFlow,
		TerminalEquity:   sum.TerminalEquity,
		TotalInvestedEst: sum.TotalInvestedEst,
		TotalReturnEst:   sum.TotalReturnEst,
		PaybackMonth:     sum.PaybackMonthOnUpfront,
	}
}
