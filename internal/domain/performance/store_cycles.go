package performance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

const cycleColumns = "id, start_date, end_date, cycle_year, half, status, closed_at"

func (s *Store) CycleByID(ctx context.Context, id int) (Cycle, error) {
	row := s.q.QueryRow(ctx, "SELECT "+cycleColumns+" FROM performance_cycles WHERE id = $1", id)
	return scanCycle(row)
}

func (s *Store) CycleCovering(ctx context.Context, date time.Time) (Cycle, error) {
	row := s.q.QueryRow(ctx, `
    SELECT `+cycleColumns+`
    FROM performance_cycles
    WHERE start_date <= $1 AND end_date >= $1
  `, date)
	return scanCycle(row)
}

func (s *Store) ActiveCycle(ctx context.Context) (Cycle, error) {
	row := s.q.QueryRow(ctx, `
    SELECT `+cycleColumns+`
    FROM performance_cycles
    WHERE status = $1
    ORDER BY id DESC
    LIMIT 1
  `, CycleStatusActive)
	cycle, err := scanCycle(row)
	if errors.Is(err, ErrCycleNotFound) {
		return Cycle{}, ErrNoActiveCycle
	}
	return cycle, err
}

func (s *Store) ListCycles(ctx context.Context) ([]Cycle, error) {
	rows, err := s.q.Query(ctx, "SELECT "+cycleColumns+" FROM performance_cycles ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cycles []Cycle
	for rows.Next() {
		var cycle Cycle
		if err := rows.Scan(&cycle.ID, &cycle.StartDate, &cycle.EndDate, &cycle.Year, &cycle.Half, &cycle.Status, &cycle.ClosedAt); err != nil {
			return nil, err
		}
		cycles = append(cycles, cycle)
	}
	return cycles, rows.Err()
}

// CreateCycle inserts a cycle for (year, half). Concurrent creations for
// the same window converge on the existing row via the unique constraint.
func (s *Store) CreateCycle(ctx context.Context, cycle Cycle) (Cycle, error) {
	row := s.q.QueryRow(ctx, `
    INSERT INTO performance_cycles (start_date, end_date, cycle_year, half, status)
    VALUES ($1,$2,$3,$4,$5)
    ON CONFLICT (cycle_year, half) DO UPDATE SET cycle_year = EXCLUDED.cycle_year
    RETURNING `+cycleColumns+`
  `, cycle.StartDate, cycle.EndDate, cycle.Year, cycle.Half, cycle.Status)
	return scanCycle(row)
}

func (s *Store) MarkCycleClosed(ctx context.Context, id int, closedAt time.Time) error {
	tag, err := s.q.Exec(ctx, `
    UPDATE performance_cycles
    SET status = $1, closed_at = $2
    WHERE id = $3
  `, CycleStatusClosed, closedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCycleNotFound
	}
	return nil
}

func (s *Store) FreezeCycleSummaries(ctx context.Context, cycleID int, frozenAt time.Time) error {
	_, err := s.q.Exec(ctx, `
    UPDATE cycle_performance_summaries
    SET frozen = TRUE, frozen_at = $1
    WHERE cycle_id = $2 AND NOT frozen
  `, frozenAt, cycleID)
	return err
}

func scanCycle(row pgx.Row) (Cycle, error) {
	var cycle Cycle
	err := row.Scan(&cycle.ID, &cycle.StartDate, &cycle.EndDate, &cycle.Year, &cycle.Half, &cycle.Status, &cycle.ClosedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Cycle{}, ErrCycleNotFound
	}
	if err != nil {
		return Cycle{}, err
	}
	return cycle, nil
}
