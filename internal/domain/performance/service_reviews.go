package performance

import (
	"context"
	"strings"
	"time"
)

// CreateReviewInput carries a review submission. ReviewedMonth is
// truncated to the first day of its month.
type CreateReviewInput struct {
	EmployeeID        string
	ReviewerID        string
	ReviewedMonth     time.Time
	Score             int
	Feedback          string
	IncentiveOverride *float64
	PenaltyOverride   *float64
	OverrideReason    string
}

// UpdateReviewInput carries the mutable fields of a review. Nil fields are
// left unchanged; employee, cycle and reviewed month are immutable.
type UpdateReviewInput struct {
	Score             *int
	Feedback          *string
	IncentiveOverride *float64
	PenaltyOverride   *float64
	ClearOverrides    bool
	OverrideReason    string
}

// CreateReview validates and persists a review, then synchronously rebuilds
// the monthly and cycle summaries for the affected employee inside one
// serialized unit. The returned flag reports whether a new notice-period
// warning was produced, which callers surface for HR escalation.
func (s *Service) CreateReview(ctx context.Context, input CreateReviewInput) (Review, bool, error) {
	if input.Score < 1 || input.Score > 5 {
		return Review{}, false, invalid("score", "must be between 1 and 5")
	}
	if strings.TrimSpace(input.Feedback) == "" {
		return Review{}, false, invalid("feedback", "must not be empty")
	}
	if (input.IncentiveOverride != nil || input.PenaltyOverride != nil) && strings.TrimSpace(input.OverrideReason) == "" {
		return Review{}, false, invalid("overrideReason", "required when an override is supplied")
	}
	if input.EmployeeID == "" {
		return Review{}, false, invalid("employeeId", "must not be empty")
	}
	if input.ReviewedMonth.IsZero() {
		return Review{}, false, invalid("reviewedMonth", "must be a valid month")
	}

	reviewedMonth := firstOfMonth(input.ReviewedMonth)
	cycle, err := s.ResolveCycleForDate(ctx, reviewedMonth)
	if err != nil {
		return Review{}, false, err
	}
	if cycle.AdminClosed() {
		return Review{}, false, ErrCycleClosed
	}

	incentive, penalty := DefaultAmounts(input.Score)
	if input.IncentiveOverride != nil {
		incentive = *input.IncentiveOverride
	}
	if input.PenaltyOverride != nil {
		penalty = *input.PenaltyOverride
	}

	review := Review{
		EmployeeID:        input.EmployeeID,
		ReviewerID:        input.ReviewerID,
		CycleID:           cycle.ID,
		ReviewedMonth:     reviewedMonth,
		ReviewYear:        reviewedMonth.Year(),
		ReviewMonth:       int(reviewedMonth.Month()),
		CyclePosition:     CyclePosition(cycle.StartDate, reviewedMonth),
		Score:             input.Score,
		Feedback:          input.Feedback,
		PerformanceTag:    TagForScore(input.Score),
		IncentiveAmount:   incentive,
		PenaltyAmount:     penalty,
		IncentiveOverride: input.IncentiveOverride,
		PenaltyOverride:   input.PenaltyOverride,
		OverrideReason:    strings.TrimSpace(input.OverrideReason),
	}

	var stored Review
	var warningRaised bool
	err = s.store.InReviewTx(ctx, cycle.ID, review.EmployeeID, review.ReviewYear, review.ReviewMonth, func(st StoreAPI) error {
		// Re-read under the cycle lock: a close may have committed between
		// the resolve above and lock acquisition.
		locked, err := st.CycleByID(ctx, cycle.ID)
		if err != nil {
			return err
		}
		if locked.AdminClosed() {
			return ErrCycleClosed
		}

		existing, err := st.ReviewsForMonth(ctx, review.EmployeeID, review.ReviewYear, review.ReviewMonth)
		if err != nil {
			return err
		}
		if len(existing) >= MaxReviewsPerMonth {
			return ErrMonthFull
		}

		stored, err = st.InsertReview(ctx, review)
		if err != nil {
			return err
		}

		warningRaised, err = s.recomputeMonth(ctx, st, review.EmployeeID, review.ReviewYear, review.ReviewMonth)
		if err != nil {
			return err
		}
		return s.recomputeCycle(ctx, st, review.EmployeeID, cycle.ID)
	})
	if err != nil {
		return Review{}, false, err
	}
	return stored, warningRaised, nil
}

// UpdateReview re-derives tag and amounts from the new score/overrides and
// replays both recomputes under the same serialization as create.
func (s *Service) UpdateReview(ctx context.Context, reviewID string, input UpdateReviewInput) (Review, bool, error) {
	current, err := s.store.ReviewByID(ctx, reviewID)
	if err != nil {
		return Review{}, false, err
	}
	cycle, err := s.store.CycleByID(ctx, current.CycleID)
	if err != nil {
		return Review{}, false, err
	}
	if cycle.AdminClosed() {
		return Review{}, false, ErrCycleClosed
	}

	if input.Score != nil {
		if *input.Score < 1 || *input.Score > 5 {
			return Review{}, false, invalid("score", "must be between 1 and 5")
		}
		current.Score = *input.Score
	}
	if input.Feedback != nil {
		if strings.TrimSpace(*input.Feedback) == "" {
			return Review{}, false, invalid("feedback", "must not be empty")
		}
		current.Feedback = *input.Feedback
	}
	if input.ClearOverrides {
		current.IncentiveOverride = nil
		current.PenaltyOverride = nil
		current.OverrideReason = ""
	}
	if input.IncentiveOverride != nil {
		current.IncentiveOverride = input.IncentiveOverride
	}
	if input.PenaltyOverride != nil {
		current.PenaltyOverride = input.PenaltyOverride
	}
	if reason := strings.TrimSpace(input.OverrideReason); reason != "" {
		current.OverrideReason = reason
	}
	if (current.IncentiveOverride != nil || current.PenaltyOverride != nil) && current.OverrideReason == "" {
		return Review{}, false, invalid("overrideReason", "required when an override is supplied")
	}

	current.PerformanceTag = TagForScore(current.Score)
	current.IncentiveAmount, current.PenaltyAmount = DefaultAmounts(current.Score)
	if current.IncentiveOverride != nil {
		current.IncentiveAmount = *current.IncentiveOverride
	}
	if current.PenaltyOverride != nil {
		current.PenaltyAmount = *current.PenaltyOverride
	}

	var warningRaised bool
	err = s.store.InReviewTx(ctx, current.CycleID, current.EmployeeID, current.ReviewYear, current.ReviewMonth, func(st StoreAPI) error {
		locked, err := st.CycleByID(ctx, current.CycleID)
		if err != nil {
			return err
		}
		if locked.AdminClosed() {
			return ErrCycleClosed
		}

		if err := st.UpdateReview(ctx, current); err != nil {
			return err
		}
		warningRaised, err = s.recomputeMonth(ctx, st, current.EmployeeID, current.ReviewYear, current.ReviewMonth)
		if err != nil {
			return err
		}
		return s.recomputeCycle(ctx, st, current.EmployeeID, current.CycleID)
	})
	if err != nil {
		return Review{}, false, err
	}
	return current, warningRaised, nil
}

// DeleteReview removes a review and rebuilds both summary layers. Deleting
// the last review of a month deletes the monthly summary.
func (s *Service) DeleteReview(ctx context.Context, reviewID string) error {
	current, err := s.store.ReviewByID(ctx, reviewID)
	if err != nil {
		return err
	}
	cycle, err := s.store.CycleByID(ctx, current.CycleID)
	if err != nil {
		return err
	}
	if cycle.AdminClosed() {
		return ErrCycleClosed
	}

	return s.store.InReviewTx(ctx, current.CycleID, current.EmployeeID, current.ReviewYear, current.ReviewMonth, func(st StoreAPI) error {
		locked, err := st.CycleByID(ctx, current.CycleID)
		if err != nil {
			return err
		}
		if locked.AdminClosed() {
			return ErrCycleClosed
		}

		if err := st.DeleteReview(ctx, reviewID); err != nil {
			return err
		}
		if _, err := s.recomputeMonth(ctx, st, current.EmployeeID, current.ReviewYear, current.ReviewMonth); err != nil {
			return err
		}
		return s.recomputeCycle(ctx, st, current.EmployeeID, current.CycleID)
	})
}

func (s *Service) ReviewByID(ctx context.Context, id string) (Review, error) {
	return s.store.ReviewByID(ctx, id)
}

func (s *Service) ListReviews(ctx context.Context, filter ReviewFilter, limit, offset int) ([]Review, int, error) {
	return s.store.ListReviews(ctx, filter, limit, offset)
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
