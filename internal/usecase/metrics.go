package usecase

import "context"

// MetricsSummary represents aggregated verdict insights.
type MetricsSummary struct {
	TotalRequests    int64   `json:"total_requests"`
	PassCount        int64   `json:"pass_count"`
	NeedsReviewCount int64   `json:"needs_review_count"`
	PolicyIssueCount int64   `json:"policy_issue_count"`
	PassRate         float64 `json:"pass_rate"`
	AverageRisk      float64 `json:"average_risk"`
}

// GetMetricsSummary aggregates verdict metrics from persisted logs.
func (uc *VerdictUseCase) GetMetricsSummary(ctx context.Context) (*MetricsSummary, error) {
	aggregation, err := uc.repo.AggregateMetrics(ctx)
	if err != nil {
		return nil, err
	}

	summary := &MetricsSummary{
		TotalRequests:    aggregation.TotalCount,
		PassCount:        aggregation.PassCount,
		NeedsReviewCount: aggregation.NeedsReviewCount,
		PolicyIssueCount: aggregation.PolicyIssueCount,
		AverageRisk:      aggregation.AverageRisk,
	}

	if aggregation.TotalCount > 0 {
		summary.PassRate = float64(aggregation.PassCount) / float64(aggregation.TotalCount)
	}

	return summary, nil
}
