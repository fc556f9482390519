package performance

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const reviewColumns = `id, employee_id, reviewer_id, cycle_id, submitted_at, reviewed_month,
    review_year, review_month, cycle_position, score, feedback, performance_tag,
    incentive_amount, penalty_amount, incentive_override, penalty_override,
    override_reason, created_at, updated_at`

func (s *Store) ReviewByID(ctx context.Context, id string) (Review, error) {
	row := s.q.QueryRow(ctx, "SELECT "+reviewColumns+" FROM performance_reviews WHERE id = $1", id)
	return scanReviewRow(row)
}

func (s *Store) ReviewsForMonth(ctx context.Context, employeeID string, year, month int) ([]Review, error) {
	rows, err := s.q.Query(ctx, `
    SELECT `+reviewColumns+`
    FROM performance_reviews
    WHERE employee_id = $1 AND review_year = $2 AND review_month = $3
    ORDER BY submitted_at, id
  `, employeeID, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReviews(rows)
}

func (s *Store) ReviewsForCycle(ctx context.Context, employeeID string, cycleID int) ([]Review, error) {
	rows, err := s.q.Query(ctx, `
    SELECT `+reviewColumns+`
    FROM performance_reviews
    WHERE employee_id = $1 AND cycle_id = $2
    ORDER BY review_year, review_month, submitted_at
  `, employeeID, cycleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReviews(rows)
}

func (s *Store) ListReviews(ctx context.Context, filter ReviewFilter, limit, offset int) ([]Review, int, error) {
	where := " WHERE 1=1"
	var args []any
	next := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.EmployeeID != "" {
		where += " AND r.employee_id = " + next(filter.EmployeeID)
	}
	if filter.CycleID != 0 {
		where += " AND r.cycle_id = " + next(filter.CycleID)
	}
	if filter.Year != 0 {
		where += " AND r.review_year = " + next(filter.Year)
	}
	if filter.Month != 0 {
		where += " AND r.review_month = " + next(filter.Month)
	}
	if filter.Tag != "" {
		where += " AND r.performance_tag = " + next(filter.Tag)
	}
	if filter.Warning != nil {
		where += ` AND ` + next(*filter.Warning) + ` = EXISTS (
      SELECT 1 FROM monthly_performance_summaries m
      WHERE m.employee_id = r.employee_id
        AND m.review_year = r.review_year
        AND m.review_month = r.review_month
        AND m.notice_period_warning
    )`
	}

	var total int
	if err := s.q.QueryRow(ctx, "SELECT COUNT(1) FROM performance_reviews r"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + prefixColumns("r.", reviewColumns) + " FROM performance_reviews r" + where +
		" ORDER BY r.review_year DESC, r.review_month DESC, r.submitted_at DESC" +
		" LIMIT " + next(limit) + " OFFSET " + next(offset)
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	reviews, err := collectReviews(rows)
	return reviews, total, err
}

func (s *Store) InsertReview(ctx context.Context, review Review) (Review, error) {
	row := s.q.QueryRow(ctx, `
    INSERT INTO performance_reviews (
      employee_id, reviewer_id, cycle_id, reviewed_month, review_year, review_month,
      cycle_position, score, feedback, performance_tag, incentive_amount, penalty_amount,
      incentive_override, penalty_override, override_reason
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
    RETURNING `+reviewColumns+`
  `, review.EmployeeID, review.ReviewerID, review.CycleID, review.ReviewedMonth,
		review.ReviewYear, review.ReviewMonth, review.CyclePosition, review.Score,
		review.Feedback, review.PerformanceTag, review.IncentiveAmount, review.PenaltyAmount,
		review.IncentiveOverride, review.PenaltyOverride, nullIfEmpty(review.OverrideReason))
	return scanReviewRow(row)
}

func (s *Store) UpdateReview(ctx context.Context, review Review) error {
	tag, err := s.q.Exec(ctx, `
    UPDATE performance_reviews
    SET score = $1, feedback = $2, performance_tag = $3,
        incentive_amount = $4, penalty_amount = $5,
        incentive_override = $6, penalty_override = $7, override_reason = $8,
        updated_at = now()
    WHERE id = $9
  `, review.Score, review.Feedback, review.PerformanceTag,
		review.IncentiveAmount, review.PenaltyAmount,
		review.IncentiveOverride, review.PenaltyOverride, nullIfEmpty(review.OverrideReason),
		review.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (s *Store) DeleteReview(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, "DELETE FROM performance_reviews WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// SumCycleAmounts totals incentive/penalty over the reviews of one
// employee in one cycle. Cycle summaries take financial totals from here,
// not from monthly summaries.
func (s *Store) SumCycleAmounts(ctx context.Context, employeeID string, cycleID int) (float64, float64, int, error) {
	var incentive, penalty float64
	var count int
	err := s.q.QueryRow(ctx, `
    SELECT COALESCE(SUM(incentive_amount),0), COALESCE(SUM(penalty_amount),0), COUNT(1)
    FROM performance_reviews
    WHERE employee_id = $1 AND cycle_id = $2
  `, employeeID, cycleID).Scan(&incentive, &penalty, &count)
	if err != nil {
		return 0, 0, 0, err
	}
	return incentive, penalty, count, nil
}

func collectReviews(rows pgx.Rows) ([]Review, error) {
	var reviews []Review
	for rows.Next() {
		review, err := scanReviewRow(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

func scanReviewRow(row pgx.Row) (Review, error) {
	var review Review
	var overrideReason *string
	err := row.Scan(&review.ID, &review.EmployeeID, &review.ReviewerID, &review.CycleID,
		&review.SubmittedAt, &review.ReviewedMonth, &review.ReviewYear, &review.ReviewMonth,
		&review.CyclePosition, &review.Score, &review.Feedback, &review.PerformanceTag,
		&review.IncentiveAmount, &review.PenaltyAmount, &review.IncentiveOverride,
		&review.PenaltyOverride, &overrideReason, &review.CreatedAt, &review.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Review{}, ErrReviewNotFound
	}
	if err != nil {
		return Review{}, err
	}
	if overrideReason != nil {
		review.OverrideReason = *overrideReason
	}
	return review, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
