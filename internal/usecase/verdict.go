package usecase

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/imageproof/internal/analysis"
	"github.com/example/imageproof/internal/logging"
	"github.com/example/imageproof/internal/repository"
)

// Analyzer is the image integrity engine used by the verification flow.
type Analyzer interface {
	Analyze(path string, aiDeclared bool) analysis.Report
}

// VerdictRepository defines the persistence operations needed by the use case.
type VerdictRepository interface {
	SaveLog(ctx context.Context, log *repository.VerdictLog) error
	FindByRequestIDAndUser(ctx context.Context, requestID, userID string) (*repository.VerdictLog, error)
	FindDuplicatesByHash(ctx context.Context, userID, sha1Hash, excludeRequestID string) ([]*repository.VerdictLog, error)
	ListRecentByUser(ctx context.Context, userID, excludeRequestID string, limit int) ([]*repository.VerdictLog, error)
	AggregateMetrics(ctx context.Context) (*repository.MetricsAggregation, error)
}

// VerdictUseCase encapsulates business logic around image verification:
// analysis, persistence, caching, and duplicate reporting.
type VerdictUseCase struct {
	repo           VerdictRepository
	cache          Cache
	analyzer       Analyzer
	logger         *zap.Logger
	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

type cachedVerdict struct {
	RequestID string          `json:"request_id"`
	UserID    string          `json:"user_id"`
	Report    analysis.Report `json:"report"`
	Hash      string          `json:"sha1_hash"`
	DHash     string          `json:"dhash"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewVerdictUseCase constructs a new use case instance.
func NewVerdictUseCase(repo VerdictRepository, cache Cache, analyzer Analyzer, logger *zap.Logger) *VerdictUseCase {
	return &VerdictUseCase{
		repo:           repo,
		cache:          cache,
		analyzer:       analyzer,
		logger:         logger.Named("verdict_usecase"),
		retryAttempts:  3,
		initialBackoff: 50 * time.Millisecond,
		maxBackoff:     time.Second,
	}
}

// VerifyUpload analyzes an uploaded image and records the verdict. The
// original filename matters: raw-format detection is extension based, so the
// bytes are staged under a temp file that keeps the extension.
func (uc *VerdictUseCase) VerifyUpload(ctx context.Context, userID, filename string, imageBytes []byte, aiDeclared bool) (string, analysis.Report, error) {
	requestID := uuid.NewString()
	opLogger := logging.WithOperation(uc.logger, "usecase.verify_upload", requestID)

	cacheKey := verdictCacheKey(requestID)
	if err := uc.withRedisRetry(ctx, requestID, "cache.set.processing", func() error {
		return uc.cache.Set(ctx, cacheKey, "processing", time.Minute)
	}); err != nil {
		opLogger.Error("failed to set processing flag", zap.Error(err))
		return "", analysis.Report{}, err
	}

	path, cleanup, err := stageUpload(filename, imageBytes)
	if err != nil {
		wrapped := logging.NewOperationError("usecase.stage_upload", requestID, err)
		opLogger.Error("failed to stage upload", zap.Error(wrapped))
		return "", analysis.Report{}, wrapped
	}
	defer cleanup()

	report := uc.analyzer.Analyze(path, aiDeclared)
	report.File = filepath.Base(filename)
	opLogger.Info("image analyzed", logging.VerdictFields(report.File, report.Status, report.Risk)...)

	hash := sha1.Sum(imageBytes)
	hashHex := hex.EncodeToString(hash[:])
	dhash := differenceHash(imageBytes)

	checks, err := json.Marshal(report.Checks)
	if err != nil {
		opLogger.Error("failed to serialize checks", zap.Error(err))
		return "", analysis.Report{}, err
	}

	log := &repository.VerdictLog{
		RequestID: requestID,
		UserID:    userID,
		File:      report.File,
		Status:    report.Status,
		Risk:      report.Risk,
		Reason:    report.Reason,
		Checks:    string(checks),
		SHA1Hash:  hashHex,
		DHash:     dhash,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.repo.SaveLog(ctx, log); err != nil {
		wrapped := logging.NewOperationError("usecase.save_log", requestID, err)
		opLogger.Error("failed to persist verdict", zap.Error(wrapped))
		return "", analysis.Report{}, wrapped
	}

	cached := cachedVerdict{
		RequestID: requestID,
		UserID:    userID,
		Report:    report,
		Hash:      hashHex,
		DHash:     dhash,
		CreatedAt: log.CreatedAt,
	}
	serialized, err := json.Marshal(cached)
	if err != nil {
		opLogger.Error("failed to serialize verdict", zap.Error(err))
		return "", analysis.Report{}, err
	}
	if err := uc.withRedisRetry(ctx, requestID, "cache.set.result", func() error {
		return uc.cache.Set(ctx, cacheKey, string(serialized), 5*time.Minute)
	}); err != nil {
		opLogger.Error("failed to cache verdict", zap.Error(err))
		return "", analysis.Report{}, err
	}

	return requestID, report, nil
}

// GetResult retrieves a cached verdict or falls back to persistence.
func (uc *VerdictUseCase) GetResult(ctx context.Context, userID, requestID string) (*repository.VerdictLog, error) {
	cacheKey := verdictCacheKey(requestID)
	if cached, err := uc.withRedisGet(ctx, requestID, "cache.get.result", cacheKey); err == nil {
		var payload cachedVerdict
		if err := json.Unmarshal([]byte(cached), &payload); err != nil {
			logging.WithOperation(uc.logger, "usecase.get_result", requestID).Warn("failed to decode cached verdict", zap.Error(err))
		} else if payload.RequestID != "" {
			checks, _ := json.Marshal(payload.Report.Checks)
			log := &repository.VerdictLog{
				RequestID: payload.RequestID,
				UserID:    userID,
				File:      payload.Report.File,
				Status:    payload.Report.Status,
				Risk:      payload.Report.Risk,
				Reason:    payload.Report.Reason,
				Checks:    string(checks),
				SHA1Hash:  payload.Hash,
				DHash:     payload.DHash,
				CreatedAt: payload.CreatedAt,
			}
			if payload.UserID != "" {
				log.UserID = payload.UserID
			}
			return log, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		logging.WithOperation(uc.logger, "usecase.get_result", requestID).Warn("failed to read cache", zap.Error(err))
	}

	return uc.repo.FindByRequestIDAndUser(ctx, requestID, userID)
}

// DuplicateReport lists resubmissions of the same content: byte-identical
// matches by SHA-1 and perceptually identical matches by difference hash.
type DuplicateReport struct {
	Request *repository.VerdictLog
	Exact   []*repository.VerdictLog
	Near    []*repository.VerdictLog
}

// nearDuplicateCandidates bounds how many recent verdicts the in-memory
// perceptual comparison considers.
const nearDuplicateCandidates = 200

// GetDuplicateReport builds the duplicate report for a verification request.
func (uc *VerdictUseCase) GetDuplicateReport(ctx context.Context, userID, requestID string) (*DuplicateReport, error) {
	log, err := uc.repo.FindByRequestIDAndUser(ctx, requestID, userID)
	if err != nil {
		return nil, err
	}

	exact, err := uc.repo.FindDuplicatesByHash(ctx, userID, log.SHA1Hash, log.RequestID)
	if err != nil {
		return nil, err
	}

	report := &DuplicateReport{Request: log, Exact: exact}
	if log.DHash == "" {
		return report, nil
	}

	candidates, err := uc.repo.ListRecentByUser(ctx, userID, log.RequestID, nearDuplicateCandidates)
	if err != nil {
		return nil, err
	}
	for _, candidate := range candidates {
		if candidate.SHA1Hash == log.SHA1Hash {
			continue // already reported as exact
		}
		if dist, ok := hammingDistanceHex(log.DHash, candidate.DHash); ok && dist <= nearDuplicateThreshold {
			report.Near = append(report.Near, candidate)
		}
	}
	return report, nil
}

func verdictCacheKey(requestID string) string {
	return fmt.Sprintf("verdict:%s", requestID)
}

// stageUpload writes the upload to a temp file preserving its extension and
// returns the path with a cleanup func.
func stageUpload(filename string, data []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "imageproof-*"+filepath.Ext(filename))
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", nil, err
	}
	return path, func() { os.Remove(path) }, nil
}

func (uc *VerdictUseCase) withRedisRetry(ctx context.Context, requestID, operation string, fn func() error) error {
	if uc.retryAttempts <= 1 {
		return logging.NewOperationError(operation, requestID, fn())
	}

	backoff := uc.initialBackoff
	opLogger := logging.WithOperation(uc.logger, operation, requestID)
	var err error
	for attempt := 0; attempt < uc.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return logging.NewOperationError(operation, requestID, ctx.Err())
			case <-time.After(backoff):
			}
			if next := backoff * 2; next <= uc.maxBackoff {
				backoff = next
			}
		}

		err = fn()
		if err == nil {
			if attempt > 0 {
				opLogger.Info("redis operation succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return nil
		}

		if !isTransientError(err) || attempt == uc.retryAttempts-1 {
			opLogger.Error("redis operation failed", zap.Error(err), zap.Int("attempt", attempt+1))
			return logging.NewOperationError(operation, requestID, err)
		}

		opLogger.Warn("transient redis error", zap.Error(err), zap.Int("attempt", attempt+1))
	}
	return logging.NewOperationError(operation, requestID, err)
}

func (uc *VerdictUseCase) withRedisGet(ctx context.Context, requestID, operation, cacheKey string) (string, error) {
	var result string
	err := uc.withRedisRetry(ctx, requestID, operation, func() error {
		value, err := uc.cache.Get(ctx, cacheKey)
		if err != nil {
			return err
		}
		result = value
		return nil
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var temporary interface{ Temporary() bool }
	if errors.As(err, &temporary) && temporary.Temporary() {
		return true
	}

	return false
}
