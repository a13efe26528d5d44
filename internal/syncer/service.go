package syncer

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rpattn/rulesync/internal/changegate"
	"github.com/rpattn/rulesync/internal/domain"
	"github.com/rpattn/rulesync/internal/extract"
	"github.com/rpattn/rulesync/internal/fetch"
	"github.com/rpattn/rulesync/internal/repository"
)

// Fetcher supplies the raw source artifact for one run.
type Fetcher interface {
	Fetch(ctx context.Context) (fetch.Artifact, error)
}

// Service drives one synchronization run to a terminal outcome:
// fetch → change detection → extraction → publish. It never returns an
// error or panics across its boundary; every exit path, internal faults
// included, yields a structured Outcome and removes the fetched temp
// artifact.
type Service struct {
	fetcher   Fetcher
	gate      *changegate.Gate
	extractor *extract.Extractor
	rules     repository.RuleStore
	logger    *zap.Logger
	now       func() time.Time
}

// Option customizes the service.
type Option func(*Service)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the synchronizer from its collaborators.
func NewService(
	fetcher Fetcher,
	gate *changegate.Gate,
	extractor *extract.Extractor,
	rules repository.RuleStore,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		fetcher:   fetcher,
		gate:      gate,
		extractor: extractor,
		rules:     rules,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one synchronization. An empty executionID gets a
// generated short id. Exactly one publish attempt occurs, and only when
// the gate reports changed content and extraction produced at least one
// valid record.
func (s *Service) Run(ctx context.Context, executionID string) (outcome domain.Outcome) {
	if executionID == "" {
		executionID = uuid.NewString()[:8]
	}
	start := s.now()
	logger := s.logger.With(zap.String("execution_id", executionID))

	var artifactPath string
	defer func() {
		s.cleanupArtifact(logger, artifactPath)
		if r := recover(); r != nil {
			logger.Error("synchronization panicked", zap.Any("panic", r))
			outcome = s.newOutcome(start, executionID, false, 0,
				fmt.Sprintf("synchronization failed: %v", r), domain.StatusFault)
		}
	}()

	logger.Info("starting rule synchronization")

	artifact, err := s.fetcher.Fetch(ctx)
	if err != nil {
		logger.Error("failed to fetch source artifact", zap.Error(err))
		return s.newOutcome(start, executionID, false, 0,
			fmt.Sprintf("failed to fetch source artifact: %v", err), domain.StatusFault)
	}
	artifactPath = artifact.Path
	logger.Info("source artifact fetched",
		zap.String("file", artifact.Name),
		zap.Int("size_bytes", len(artifact.Data)))

	check := s.gate.Check(ctx, artifact.Data)
	if !check.Changed {
		logger.Info("source content unchanged, skipping publish",
			zap.String("fingerprint", check.Current))
		return s.newOutcome(start, executionID, true, 0,
			"source unchanged, nothing to publish", domain.StatusUnchangedSkip)
	}

	src, err := extract.Open(artifact.Name, artifact.Data)
	if err != nil {
		logger.Error("failed to open source artifact", zap.Error(err))
		return s.newOutcome(start, executionID, false, 0,
			fmt.Sprintf("failed to open source artifact: %v", err), domain.StatusFault)
	}

	records, manifest, err := s.extractor.Extract(src)
	if err != nil {
		logger.Error("failed to extract rules", zap.Error(err))
		return s.newOutcome(start, executionID, false, 0,
			fmt.Sprintf("failed to extract rules: %v", err), domain.StatusFault)
	}

	if len(records) == 0 {
		logger.Warn("no valid rules extracted",
			zap.Int("sheets_skipped", len(manifest.SheetsSkipped)),
			zap.Int("row_faults", len(manifest.RowFaults)),
			zap.Int("filtered_rows", manifest.FilteredRows))
		return s.newOutcome(start, executionID, false, 0,
			"source contains no valid rules", domain.StatusNoValidRules)
	}

	if err := s.rules.Replace(ctx, records); err != nil {
		logger.Error("publish failed",
			zap.Error(err),
			zap.Int("rules", len(records)))
		return s.newOutcome(start, executionID, false, 0,
			fmt.Sprintf("failed to publish rules: %v", err), domain.StatusFault)
	}

	// The fingerprint is committed only after the store acknowledged the
	// publish, so a failed publish is retried on the next run.
	if err := s.gate.Commit(ctx, check); err != nil {
		logger.Warn("failed to record fingerprint, next run will republish", zap.Error(err))
	}

	logger.Info("rules published",
		zap.Int("rules", len(records)),
		zap.Int("row_faults", len(manifest.RowFaults)))
	return s.newOutcome(start, executionID, true, len(records),
		fmt.Sprintf("%d rules published", len(records)), domain.StatusPublished)
}

func (s *Service) newOutcome(start time.Time, executionID string, success bool, count int, message string, status domain.Status) domain.Outcome {
	elapsed := s.now().Sub(start).Seconds()
	return domain.Outcome{
		Success:       success,
		RulesCount:    count,
		Message:       message,
		Status:        status,
		ExecutionID:   executionID,
		ExecutionTime: math.Round(elapsed*1000) / 1000,
	}
}

func (s *Service) cleanupArtifact(logger *zap.Logger, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove temp artifact",
			zap.String("path", path),
			zap.Error(err))
		return
	}
	logger.Debug("temp artifact removed", zap.String("path", path))
}
