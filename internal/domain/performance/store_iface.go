package performance

import (
	"context"
	"time"
)

// StoreAPI is the persistence surface the service runs against. InReviewTx
// and InCycleTx hand a transaction-scoped StoreAPI to fn; every store call
// made through it shares one transaction and the advisory locks that
// serialize mutations per (employee, reviewed month) and per cycle.
type StoreAPI interface {
	InReviewTx(ctx context.Context, cycleID int, employeeID string, year, month int, fn func(StoreAPI) error) error
	InCycleTx(ctx context.Context, cycleID int, fn func(StoreAPI) error) error

	CycleByID(ctx context.Context, id int) (Cycle, error)
	CycleCovering(ctx context.Context, date time.Time) (Cycle, error)
	ActiveCycle(ctx context.Context) (Cycle, error)
	ListCycles(ctx context.Context) ([]Cycle, error)
	CreateCycle(ctx context.Context, cycle Cycle) (Cycle, error)
	MarkCycleClosed(ctx context.Context, id int, closedAt time.Time) error
	FreezeCycleSummaries(ctx context.Context, cycleID int, frozenAt time.Time) error

	ReviewByID(ctx context.Context, id string) (Review, error)
	ReviewsForMonth(ctx context.Context, employeeID string, year, month int) ([]Review, error)
	ReviewsForCycle(ctx context.Context, employeeID string, cycleID int) ([]Review, error)
	ListReviews(ctx context.Context, filter ReviewFilter, limit, offset int) ([]Review, int, error)
	InsertReview(ctx context.Context, review Review) (Review, error)
	UpdateReview(ctx context.Context, review Review) error
	DeleteReview(ctx context.Context, id string) error
	SumCycleAmounts(ctx context.Context, employeeID string, cycleID int) (incentive, penalty float64, count int, err error)

	MonthlySummary(ctx context.Context, employeeID string, year, month int) (MonthlySummary, error)
	MonthlySummariesForCycle(ctx context.Context, employeeID string, cycleID int) ([]MonthlySummary, error)
	WarningSummaries(ctx context.Context, cycleID int) ([]MonthlySummary, error)
	UpsertMonthlySummary(ctx context.Context, summary MonthlySummary) error
	DeleteMonthlySummary(ctx context.Context, employeeID string, year, month int) error

	CycleSummary(ctx context.Context, employeeID string, cycleID int) (CycleSummary, error)
	CycleSummariesForCycle(ctx context.Context, cycleID int) ([]CycleSummary, error)
	UpsertCycleSummary(ctx context.Context, summary CycleSummary) error
	DeleteCycleSummary(ctx context.Context, employeeID string, cycleID int) error
}
