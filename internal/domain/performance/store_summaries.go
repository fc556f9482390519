package performance

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

const monthlyColumns = `id, employee_id, cycle_id, review_year, review_month, cycle_position,
    review_ids, review_count, average_score, ceiling_average, monthly_tag,
    total_incentive, total_penalty, net_amount, is_low, consecutive_low_count,
    notice_period_warning`

const cycleSummaryColumns = `id, employee_id, cycle_id, total_reviews, months_reviewed,
    average_score, ceiling_average, final_tag, outstanding_months, very_good_months,
    average_months, below_average_months, worst_months, total_incentive, total_penalty,
    net_amount, had_consecutive_low, had_warning, frozen, frozen_at`

func (s *Store) MonthlySummary(ctx context.Context, employeeID string, year, month int) (MonthlySummary, error) {
	row := s.q.QueryRow(ctx, `
    SELECT `+monthlyColumns+`
    FROM monthly_performance_summaries
    WHERE employee_id = $1 AND review_year = $2 AND review_month = $3
  `, employeeID, year, month)
	return scanMonthlySummary(row)
}

func (s *Store) MonthlySummariesForCycle(ctx context.Context, employeeID string, cycleID int) ([]MonthlySummary, error) {
	rows, err := s.q.Query(ctx, `
    SELECT `+monthlyColumns+`
    FROM monthly_performance_summaries
    WHERE employee_id = $1 AND cycle_id = $2
    ORDER BY review_year, review_month
  `, employeeID, cycleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMonthlySummaries(rows)
}

func (s *Store) WarningSummaries(ctx context.Context, cycleID int) ([]MonthlySummary, error) {
	rows, err := s.q.Query(ctx, `
    SELECT `+monthlyColumns+`
    FROM monthly_performance_summaries
    WHERE cycle_id = $1 AND notice_period_warning
    ORDER BY employee_id, review_year, review_month
  `, cycleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMonthlySummaries(rows)
}

func (s *Store) UpsertMonthlySummary(ctx context.Context, summary MonthlySummary) error {
	_, err := s.q.Exec(ctx, `
    INSERT INTO monthly_performance_summaries (
      employee_id, cycle_id, review_year, review_month, cycle_position, review_ids,
      review_count, average_score, ceiling_average, monthly_tag, total_incentive,
      total_penalty, net_amount, is_low, consecutive_low_count, notice_period_warning
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
    ON CONFLICT (employee_id, review_year, review_month) DO UPDATE SET
      cycle_id = EXCLUDED.cycle_id,
      cycle_position = EXCLUDED.cycle_position,
      review_ids = EXCLUDED.review_ids,
      review_count = EXCLUDED.review_count,
      average_score = EXCLUDED.average_score,
      ceiling_average = EXCLUDED.ceiling_average,
      monthly_tag = EXCLUDED.monthly_tag,
      total_incentive = EXCLUDED.total_incentive,
      total_penalty = EXCLUDED.total_penalty,
      net_amount = EXCLUDED.net_amount,
      is_low = EXCLUDED.is_low,
      consecutive_low_count = EXCLUDED.consecutive_low_count,
      notice_period_warning = EXCLUDED.notice_period_warning,
      updated_at = now()
  `, summary.EmployeeID, summary.CycleID, summary.ReviewYear, summary.ReviewMonth,
		summary.CyclePosition, summary.ReviewIDs, summary.ReviewCount, summary.AverageScore,
		summary.CeilingAverage, summary.MonthlyTag, summary.TotalIncentive,
		summary.TotalPenalty, summary.NetAmount, summary.IsLow,
		summary.ConsecutiveLowCount, summary.NoticePeriodWarning)
	return err
}

func (s *Store) DeleteMonthlySummary(ctx context.Context, employeeID string, year, month int) error {
	_, err := s.q.Exec(ctx, `
    DELETE FROM monthly_performance_summaries
    WHERE employee_id = $1 AND review_year = $2 AND review_month = $3
  `, employeeID, year, month)
	return err
}

func (s *Store) CycleSummary(ctx context.Context, employeeID string, cycleID int) (CycleSummary, error) {
	row := s.q.QueryRow(ctx, `
    SELECT `+cycleSummaryColumns+`
    FROM cycle_performance_summaries
    WHERE employee_id = $1 AND cycle_id = $2
  `, employeeID, cycleID)
	return scanCycleSummary(row)
}

func (s *Store) CycleSummariesForCycle(ctx context.Context, cycleID int) ([]CycleSummary, error) {
	rows, err := s.q.Query(ctx, `
    SELECT `+cycleSummaryColumns+`
    FROM cycle_performance_summaries
    WHERE cycle_id = $1
    ORDER BY employee_id
  `, cycleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []CycleSummary
	for rows.Next() {
		summary, err := scanCycleSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func (s *Store) UpsertCycleSummary(ctx context.Context, summary CycleSummary) error {
	_, err := s.q.Exec(ctx, `
    INSERT INTO cycle_performance_summaries (
      employee_id, cycle_id, total_reviews, months_reviewed, average_score,
      ceiling_average, final_tag, outstanding_months, very_good_months, average_months,
      below_average_months, worst_months, total_incentive, total_penalty, net_amount,
      had_consecutive_low, had_warning
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
    ON CONFLICT (employee_id, cycle_id) DO UPDATE SET
      total_reviews = EXCLUDED.total_reviews,
      months_reviewed = EXCLUDED.months_reviewed,
      average_score = EXCLUDED.average_score,
      ceiling_average = EXCLUDED.ceiling_average,
      final_tag = EXCLUDED.final_tag,
      outstanding_months = EXCLUDED.outstanding_months,
      very_good_months = EXCLUDED.very_good_months,
      average_months = EXCLUDED.average_months,
      below_average_months = EXCLUDED.below_average_months,
      worst_months = EXCLUDED.worst_months,
      total_incentive = EXCLUDED.total_incentive,
      total_penalty = EXCLUDED.total_penalty,
      net_amount = EXCLUDED.net_amount,
      had_consecutive_low = EXCLUDED.had_consecutive_low,
      had_warning = EXCLUDED.had_warning,
      updated_at = now()
  `, summary.EmployeeID, summary.CycleID, summary.TotalReviews, summary.MonthsReviewed,
		summary.AverageScore, summary.CeilingAverage, summary.FinalTag,
		summary.OutstandingMonths, summary.VeryGoodMonths, summary.AverageMonths,
		summary.BelowAverageMonths, summary.WorstMonths, summary.TotalIncentive,
		summary.TotalPenalty, summary.NetAmount, summary.HadConsecutiveLow, summary.HadWarning)
	return err
}

func (s *Store) DeleteCycleSummary(ctx context.Context, employeeID string, cycleID int) error {
	_, err := s.q.Exec(ctx, `
    DELETE FROM cycle_performance_summaries
    WHERE employee_id = $1 AND cycle_id = $2 AND NOT frozen
  `, employeeID, cycleID)
	return err
}

func collectMonthlySummaries(rows pgx.Rows) ([]MonthlySummary, error) {
	var summaries []MonthlySummary
	for rows.Next() {
		summary, err := scanMonthlySummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func scanMonthlySummary(row pgx.Row) (MonthlySummary, error) {
	var summary MonthlySummary
	err := row.Scan(&summary.ID, &summary.EmployeeID, &summary.CycleID, &summary.ReviewYear,
		&summary.ReviewMonth, &summary.CyclePosition, &summary.ReviewIDs, &summary.ReviewCount,
		&summary.AverageScore, &summary.CeilingAverage, &summary.MonthlyTag,
		&summary.TotalIncentive, &summary.TotalPenalty, &summary.NetAmount,
		&summary.IsLow, &summary.ConsecutiveLowCount, &summary.NoticePeriodWarning)
	if errors.Is(err, pgx.ErrNoRows) {
		return MonthlySummary{}, ErrSummaryNotFound
	}
	if err != nil {
		return MonthlySummary{}, err
	}
	return summary, nil
}

func scanCycleSummary(row pgx.Row) (CycleSummary, error) {
	var summary CycleSummary
	err := row.Scan(&summary.ID, &summary.EmployeeID, &summary.CycleID, &summary.TotalReviews,
		&summary.MonthsReviewed, &summary.AverageScore, &summary.CeilingAverage,
		&summary.FinalTag, &summary.OutstandingMonths, &summary.VeryGoodMonths,
		&summary.AverageMonths, &summary.BelowAverageMonths, &summary.WorstMonths,
		&summary.TotalIncentive, &summary.TotalPenalty, &summary.NetAmount,
		&summary.HadConsecutiveLow, &summary.HadWarning, &summary.Frozen, &summary.FrozenAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return CycleSummary{}, ErrSummaryNotFound
	}
	if err != nil {
		return CycleSummary{}, err
	}
	return summary, nil
}
