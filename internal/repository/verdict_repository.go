package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/imageproof/internal/logging"
)

// VerdictLog is a persisted integrity verdict for one analyzed image.
type VerdictLog struct {
	ID        uint      `gorm:"primaryKey"`
	RequestID string    `gorm:"column:request_id;uniqueIndex;size:64"`
	UserID    string    `gorm:"column:user_id;index;size:64"`
	File      string    `gorm:"column:file;size:255"`
	Status    string    `gorm:"column:status;size:32"`
	Risk      int       `gorm:"column:risk"`
	Reason    string    `gorm:"column:reason;type:text"`
	Checks    string    `gorm:"column:checks;type:text"`
	SHA1Hash  string    `gorm:"column:sha1_hash;index;size:40"`
	DHash     string    `gorm:"column:dhash;size:16"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName overrides the default table name.
func (VerdictLog) TableName() string {
	return "verdict_logs"
}

// MetricsAggregation holds the per-status counts and average risk computed
// over all persisted verdicts.
type MetricsAggregation struct {
	TotalCount       int64
	PassCount        int64
	NeedsReviewCount int64
	PolicyIssueCount int64
	AverageRisk      float64
}

// VerdictRepository provides persistence APIs for verdict logs.
type VerdictRepository struct {
	db             *gorm.DB
	logger         *zap.Logger
	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewVerdictRepository creates a new repository instance.
func NewVerdictRepository(db *gorm.DB, logger *zap.Logger) *VerdictRepository {
	return &VerdictRepository{
		db:             db,
		logger:         logger.Named("verdict_repository"),
		retryAttempts:  3,
		initialBackoff: 50 * time.Millisecond,
		maxBackoff:     time.Second,
	}
}

// AutoMigrate ensures the schema is available.
func (r *VerdictRepository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&VerdictLog{})
}

// SaveLog persists a verdict log entry.
func (r *VerdictRepository) SaveLog(ctx context.Context, log *VerdictLog) error {
	return r.executeWithRetry(ctx, "repository.save_log", log.RequestID, func() error {
		return r.db.WithContext(ctx).Create(log).Error
	})
}

// FindByRequestIDAndUser retrieves the verdict matching the request and owner.
func (r *VerdictRepository) FindByRequestIDAndUser(ctx context.Context, requestID, userID string) (*VerdictLog, error) {
	var log VerdictLog
	if err := r.db.WithContext(ctx).First(&log, "request_id = ? AND user_id = ?", requestID, userID).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

// FindDuplicatesByHash lists other verdicts of the same user whose content
// hash matches exactly.
func (r *VerdictRepository) FindDuplicatesByHash(ctx context.Context, userID, sha1Hash, excludeRequestID string) ([]*VerdictLog, error) {
	var logs []*VerdictLog
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND sha1_hash = ? AND request_id <> ?", userID, sha1Hash, excludeRequestID).
		Order("created_at DESC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// ListRecentByUser returns the user's latest verdicts, excluding one request.
// It feeds the perceptual near-duplicate comparison, which runs in memory.
func (r *VerdictRepository) ListRecentByUser(ctx context.Context, userID, excludeRequestID string, limit int) ([]*VerdictLog, error) {
	var logs []*VerdictLog
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND request_id <> ?", userID, excludeRequestID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// AggregateMetrics computes verdict counts and average risk across all logs.
func (r *VerdictRepository) AggregateMetrics(ctx context.Context) (*MetricsAggregation, error) {
	var agg MetricsAggregation
	err := r.db.WithContext(ctx).
		Model(&VerdictLog{}).
		Select(
			`COUNT(*) AS total_count,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pass_count,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS needs_review_count,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS policy_issue_count,
			COALESCE(AVG(risk), 0) AS average_risk`,
			"Pass", "Needs review", "Policy issue",
		).
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

func (r *VerdictRepository) executeWithRetry(ctx context.Context, operation, requestID string, fn func() error) error {
	if r.retryAttempts <= 1 {
		return logging.NewOperationError(operation, requestID, fn())
	}

	backoff := r.initialBackoff
	opLogger := logging.WithOperation(r.logger, operation, requestID)
	var err error
	for attempt := 0; attempt < r.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return logging.NewOperationError(operation, requestID, ctx.Err())
			case <-time.After(backoff):
			}
			if next := backoff * 2; next <= r.maxBackoff {
				backoff = next
			}
		}

		err = fn()
		if err == nil {
			if attempt > 0 {
				opLogger.Info("database operation succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return nil
		}

		if !isTransientError(err) || attempt == r.retryAttempts-1 {
			opLogger.Error("database operation failed", zap.Error(err), zap.Int("attempt", attempt+1))
			return logging.NewOperationError(operation, requestID, err)
		}

		opLogger.Warn("transient database error", zap.Error(err), zap.Int("attempt", attempt+1))
	}
	return logging.NewOperationError(operation, requestID, err)
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
