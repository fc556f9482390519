package performance

import (
	"context"
	"errors"
	"log/slog"
)

// recomputeMonth rebuilds one employee's monthly summary from the full
// review set of that month. It reports whether the rebuild produced a
// notice-period warning that was not present before. Always a full
// recompute from source; retried or raced recomputes converge.
func (s *Service) recomputeMonth(ctx context.Context, st StoreAPI, employeeID string, year, month int) (bool, error) {
	hadWarning := false
	if previous, err := st.MonthlySummary(ctx, employeeID, year, month); err == nil {
		hadWarning = previous.NoticePeriodWarning
	} else if !errors.Is(err, ErrSummaryNotFound) {
		return false, err
	}

	reviews, err := st.ReviewsForMonth(ctx, employeeID, year, month)
	if err != nil {
		return false, err
	}
	if len(reviews) == 0 {
		return false, st.DeleteMonthlySummary(ctx, employeeID, year, month)
	}

	prevYear, prevMonth := PreviousMonth(year, month)
	var prev *MonthlySummary
	if prevSummary, err := st.MonthlySummary(ctx, employeeID, prevYear, prevMonth); err == nil {
		prev = &prevSummary
	} else if !errors.Is(err, ErrSummaryNotFound) {
		return false, err
	}

	summary := BuildMonthlySummary(reviews, prev)
	if err := st.UpsertMonthlySummary(ctx, summary); err != nil {
		return false, err
	}
	return summary.NoticePeriodWarning && !hadWarning, nil
}

// recomputeCycle rebuilds one employee's cycle summary from its monthly
// summaries. A frozen summary is left untouched: closed cycles are
// historical snapshots.
func (s *Service) recomputeCycle(ctx context.Context, st StoreAPI, employeeID string, cycleID int) error {
	if existing, err := st.CycleSummary(ctx, employeeID, cycleID); err == nil {
		if existing.Frozen {
			slog.Warn("skipping recompute of frozen cycle summary",
				"employeeId", employeeID, "cycleId", cycleID)
			return nil
		}
	} else if !errors.Is(err, ErrSummaryNotFound) {
		return err
	}

	months, err := st.MonthlySummariesForCycle(ctx, employeeID, cycleID)
	if err != nil {
		return err
	}
	if len(months) == 0 {
		return st.DeleteCycleSummary(ctx, employeeID, cycleID)
	}

	incentive, penalty, reviewCount, err := st.SumCycleAmounts(ctx, employeeID, cycleID)
	if err != nil {
		return err
	}
	return st.UpsertCycleSummary(ctx, BuildCycleSummary(months, incentive, penalty, reviewCount))
}

// RecomputeEmployeeCycle re-runs the cycle aggregation outside any review
// mutation, the repair path when drift is suspected.
func (s *Service) RecomputeEmployeeCycle(ctx context.Context, employeeID string, cycleID int) error {
	return s.store.InCycleTx(ctx, cycleID, func(st StoreAPI) error {
		return s.recomputeCycle(ctx, st, employeeID, cycleID)
	})
}
