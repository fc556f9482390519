package performance

import (
	"context"
	"errors"
	"time"
)

// ResolveCycleForDate returns the half-year cycle covering date, lazily
// creating it when absent. A freshly created cycle is active only when its
// window contains the current time; historical backfill windows come into
// existence already closed (with no closed-at timestamp, so they stay
// editable until an administrator finalizes them).
func (s *Service) ResolveCycleForDate(ctx context.Context, date time.Time) (Cycle, error) {
	cycle, err := s.store.CycleCovering(ctx, date)
	if err == nil {
		return cycle, nil
	}
	if !errors.Is(err, ErrCycleNotFound) {
		return Cycle{}, err
	}

	year := date.Year()
	half := HalfOfMonth(date.Month())
	start, end := HalfWindow(year, half)

	status := CycleStatusClosed
	now := s.now().UTC()
	if !now.Before(start) && now.Before(end.AddDate(0, 0, 1)) {
		status = CycleStatusActive
	}

	return s.store.CreateCycle(ctx, Cycle{
		StartDate: start,
		EndDate:   end,
		Year:      year,
		Half:      half,
		Status:    status,
	})
}

// ActiveCycle returns the cycle presently marked active, lazily creating
// the current half-year's cycle when none exists.
func (s *Service) ActiveCycle(ctx context.Context) (Cycle, error) {
	cycle, err := s.store.ActiveCycle(ctx)
	if err == nil {
		return cycle, nil
	}
	if !errors.Is(err, ErrNoActiveCycle) {
		return Cycle{}, err
	}
	return s.ResolveCycleForDate(ctx, s.now().UTC())
}

func (s *Service) ListCycles(ctx context.Context) ([]Cycle, error) {
	return s.store.ListCycles(ctx)
}

func (s *Service) CycleByID(ctx context.Context, id int) (Cycle, error) {
	return s.store.CycleByID(ctx, id)
}

// CloseCycle irreversibly closes a cycle and freezes all of its cycle
// summaries. Serialized against review mutations for the same cycle: both
// paths take the cycle advisory lock first.
func (s *Service) CloseCycle(ctx context.Context, cycleID int) (Cycle, error) {
	var closed Cycle
	err := s.store.InCycleTx(ctx, cycleID, func(st StoreAPI) error {
		cycle, err := st.CycleByID(ctx, cycleID)
		if err != nil {
			return err
		}
		if cycle.AdminClosed() {
			return ErrCycleAlreadyDone
		}

		closedAt := s.now().UTC()
		if err := st.MarkCycleClosed(ctx, cycleID, closedAt); err != nil {
			return err
		}
		if err := st.FreezeCycleSummaries(ctx, cycleID, closedAt); err != nil {
			return err
		}

		cycle.Status = CycleStatusClosed
		cycle.ClosedAt = &closedAt
		closed = cycle
		return nil
	})
	if err != nil {
		return Cycle{}, err
	}
	return closed, nil
}
