package performance

import (
	"context"
	"errors"
	"log/slog"
)

// Leaderboard ranks employees within a cycle from cycle summaries alone;
// raw reviews are never read here. cycleID 0 targets the active cycle.
func (s *Service) Leaderboard(ctx context.Context, cycleID, limit int) (Cycle, []LeaderboardEntry, error) {
	cycle, err := s.targetCycle(ctx, cycleID)
	if err != nil {
		return Cycle{}, nil, err
	}

	summaries, err := s.store.CycleSummariesForCycle(ctx, cycle.ID)
	if err != nil {
		return Cycle{}, nil, err
	}

	ranked := RankLeaderboard(summaries, limit)
	entries := make([]LeaderboardEntry, 0, len(ranked))
	for i, summary := range ranked {
		entry := LeaderboardEntry{
			Rank:           i + 1,
			EmployeeID:     summary.EmployeeID,
			CeilingAverage: summary.CeilingAverage,
			FinalTag:       summary.FinalTag,
			MonthsReviewed: summary.MonthsReviewed,
			TotalReviews:   summary.TotalReviews,
			NetAmount:      summary.NetAmount,
		}
		s.decorate(ctx, &entry.Name, &entry.Title, &entry.AvatarURL, summary.EmployeeID)
		entries = append(entries, entry)
	}
	return cycle, entries, nil
}

// Warnings lists every monthly summary in the target cycle carrying a
// notice-period warning.
func (s *Service) Warnings(ctx context.Context, cycleID int) (Cycle, []MonthlySummary, error) {
	cycle, err := s.targetCycle(ctx, cycleID)
	if err != nil {
		return Cycle{}, nil, err
	}
	summaries, err := s.store.WarningSummaries(ctx, cycle.ID)
	if err != nil {
		return Cycle{}, nil, err
	}
	return cycle, summaries, nil
}

// EmployeeCycleView assembles the employee dashboard read model: the
// cycle, the employee's reviews and monthly summaries in it, and the cycle
// summary when one exists.
func (s *Service) EmployeeCycleView(ctx context.Context, employeeID string, cycleID int) (EmployeeView, error) {
	cycle, err := s.targetCycle(ctx, cycleID)
	if err != nil {
		return EmployeeView{}, err
	}

	reviews, err := s.store.ReviewsForCycle(ctx, employeeID, cycle.ID)
	if err != nil {
		return EmployeeView{}, err
	}
	months, err := s.store.MonthlySummariesForCycle(ctx, employeeID, cycle.ID)
	if err != nil {
		return EmployeeView{}, err
	}

	view := EmployeeView{
		EmployeeID:       employeeID,
		Cycle:            cycle,
		Reviews:          reviews,
		MonthlySummaries: months,
	}
	if summary, err := s.store.CycleSummary(ctx, employeeID, cycle.ID); err == nil {
		view.CycleSummary = &summary
	} else if !errors.Is(err, ErrSummaryNotFound) {
		return EmployeeView{}, err
	}
	s.decorate(ctx, &view.Name, &view.Title, &view.AvatarURL, employeeID)
	return view, nil
}

func (s *Service) MonthlySummaries(ctx context.Context, employeeID string, cycleID int) ([]MonthlySummary, error) {
	cycle, err := s.targetCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	return s.store.MonthlySummariesForCycle(ctx, employeeID, cycle.ID)
}

func (s *Service) EmployeeCycleSummary(ctx context.Context, employeeID string, cycleID int) (CycleSummary, error) {
	return s.store.CycleSummary(ctx, employeeID, cycleID)
}

func (s *Service) targetCycle(ctx context.Context, cycleID int) (Cycle, error) {
	if cycleID != 0 {
		return s.store.CycleByID(ctx, cycleID)
	}
	return s.ActiveCycle(ctx)
}

// decorate fills directory fields, best effort. Missing directory data
// never fails a read.
func (s *Service) decorate(ctx context.Context, name, title, avatar *string, employeeID string) {
	if s.dir == nil {
		return
	}
	employee, err := s.dir.Employee(ctx, employeeID)
	if err != nil {
		slog.Warn("employee directory lookup failed", "employeeId", employeeID, "err", err)
		return
	}
	*name = employee.Name
	*title = employee.Title
	*avatar = employee.AvatarURL
}
