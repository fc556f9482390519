package performance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"
)

// fakeStore is an in-memory StoreAPI. Tests drive the service through it;
// the pgx store is covered by the integration journey test.
type fakeStore struct {
	cycles    map[int]Cycle
	reviews   map[string]Review
	monthly   map[string]MonthlySummary
	cycleSums map[string]CycleSummary
	nextID    int

	// Runs after lock acquisition but before the transaction body, so
	// tests can commit a competing change at exactly that point.
	beforeReviewTx func(f *fakeStore)
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cycles:    map[int]Cycle{},
		reviews:   map[string]Review{},
		monthly:   map[string]MonthlySummary{},
		cycleSums: map[string]CycleSummary{},
	}
}

func monthSumKey(employeeID string, year, month int) string {
	return fmt.Sprintf("%s|%04d-%02d", employeeID, year, month)
}

func cycleSumKey(employeeID string, cycleID int) string {
	return fmt.Sprintf("%s|%d", employeeID, cycleID)
}

func (f *fakeStore) InReviewTx(ctx context.Context, cycleID int, employeeID string, year, month int, fn func(StoreAPI) error) error {
	if f.beforeReviewTx != nil {
		f.beforeReviewTx(f)
	}
	return fn(f)
}

func (f *fakeStore) InCycleTx(ctx context.Context, cycleID int, fn func(StoreAPI) error) error {
	return fn(f)
}

func (f *fakeStore) CycleByID(ctx context.Context, id int) (Cycle, error) {
	cycle, ok := f.cycles[id]
	if !ok {
		return Cycle{}, ErrCycleNotFound
	}
	return cycle, nil
}

func (f *fakeStore) CycleCovering(ctx context.Context, date time.Time) (Cycle, error) {
	for _, cycle := range f.cycles {
		if !date.Before(cycle.StartDate) && !date.After(cycle.EndDate) {
			return cycle, nil
		}
	}
	return Cycle{}, ErrCycleNotFound
}

func (f *fakeStore) ActiveCycle(ctx context.Context) (Cycle, error) {
	best := Cycle{}
	found := false
	for _, cycle := range f.cycles {
		if cycle.Status == CycleStatusActive && (!found || cycle.ID > best.ID) {
			best = cycle
			found = true
		}
	}
	if !found {
		return Cycle{}, ErrNoActiveCycle
	}
	return best, nil
}

func (f *fakeStore) ListCycles(ctx context.Context) ([]Cycle, error) {
	var cycles []Cycle
	for _, cycle := range f.cycles {
		cycles = append(cycles, cycle)
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i].ID < cycles[j].ID })
	return cycles, nil
}

func (f *fakeStore) CreateCycle(ctx context.Context, cycle Cycle) (Cycle, error) {
	for _, existing := range f.cycles {
		if existing.Year == cycle.Year && existing.Half == cycle.Half {
			return existing, nil
		}
	}
	cycle.ID = len(f.cycles) + 1
	f.cycles[cycle.ID] = cycle
	return cycle, nil
}

func (f *fakeStore) MarkCycleClosed(ctx context.Context, id int, closedAt time.Time) error {
	cycle, ok := f.cycles[id]
	if !ok {
		return ErrCycleNotFound
	}
	cycle.Status = CycleStatusClosed
	cycle.ClosedAt = &closedAt
	f.cycles[id] = cycle
	return nil
}

func (f *fakeStore) FreezeCycleSummaries(ctx context.Context, cycleID int, frozenAt time.Time) error {
	for key, summary := range f.cycleSums {
		if summary.CycleID == cycleID && !summary.Frozen {
			summary.Frozen = true
			summary.FrozenAt = &frozenAt
			f.cycleSums[key] = summary
		}
	}
	return nil
}

func (f *fakeStore) ReviewByID(ctx context.Context, id string) (Review, error) {
	review, ok := f.reviews[id]
	if !ok {
		return Review{}, ErrReviewNotFound
	}
	return review, nil
}

func (f *fakeStore) ReviewsForMonth(ctx context.Context, employeeID string, year, month int) ([]Review, error) {
	var reviews []Review
	for _, review := range f.reviews {
		if review.EmployeeID == employeeID && review.ReviewYear == year && review.ReviewMonth == month {
			reviews = append(reviews, review)
		}
	}
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].ID < reviews[j].ID })
	return reviews, nil
}

func (f *fakeStore) ReviewsForCycle(ctx context.Context, employeeID string, cycleID int) ([]Review, error) {
	var reviews []Review
	for _, review := range f.reviews {
		if review.EmployeeID == employeeID && review.CycleID == cycleID {
			reviews = append(reviews, review)
		}
	}
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].ID < reviews[j].ID })
	return reviews, nil
}

func (f *fakeStore) ListReviews(ctx context.Context, filter ReviewFilter, limit, offset int) ([]Review, int, error) {
	var reviews []Review
	for _, review := range f.reviews {
		if filter.EmployeeID != "" && review.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.CycleID != 0 && review.CycleID != filter.CycleID {
			continue
		}
		if filter.Tag != "" && review.PerformanceTag != filter.Tag {
			continue
		}
		reviews = append(reviews, review)
	}
	return reviews, len(reviews), nil
}

func (f *fakeStore) InsertReview(ctx context.Context, review Review) (Review, error) {
	f.nextID++
	review.ID = fmt.Sprintf("review-%d", f.nextID)
	review.SubmittedAt = time.Now().UTC()
	review.CreatedAt = review.SubmittedAt
	f.reviews[review.ID] = review
	return review, nil
}

func (f *fakeStore) UpdateReview(ctx context.Context, review Review) error {
	if _, ok := f.reviews[review.ID]; !ok {
		return ErrReviewNotFound
	}
	f.reviews[review.ID] = review
	return nil
}

func (f *fakeStore) DeleteReview(ctx context.Context, id string) error {
	if _, ok := f.reviews[id]; !ok {
		return ErrReviewNotFound
	}
	delete(f.reviews, id)
	return nil
}

func (f *fakeStore) SumCycleAmounts(ctx context.Context, employeeID string, cycleID int) (float64, float64, int, error) {
	var incentive, penalty float64
	count := 0
	for _, review := range f.reviews {
		if review.EmployeeID == employeeID && review.CycleID == cycleID {
			incentive += review.IncentiveAmount
			penalty += review.PenaltyAmount
			count++
		}
	}
	return incentive, penalty, count, nil
}

func (f *fakeStore) MonthlySummary(ctx context.Context, employeeID string, year, month int) (MonthlySummary, error) {
	summary, ok := f.monthly[monthSumKey(employeeID, year, month)]
	if !ok {
		return MonthlySummary{}, ErrSummaryNotFound
	}
	return summary, nil
}

func (f *fakeStore) MonthlySummariesForCycle(ctx context.Context, employeeID string, cycleID int) ([]MonthlySummary, error) {
	var summaries []MonthlySummary
	for _, summary := range f.monthly {
		if summary.EmployeeID == employeeID && summary.CycleID == cycleID {
			summaries = append(summaries, summary)
		}
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].ReviewYear != summaries[j].ReviewYear {
			return summaries[i].ReviewYear < summaries[j].ReviewYear
		}
		return summaries[i].ReviewMonth < summaries[j].ReviewMonth
	})
	return summaries, nil
}

func (f *fakeStore) WarningSummaries(ctx context.Context, cycleID int) ([]MonthlySummary, error) {
	var summaries []MonthlySummary
	for _, summary := range f.monthly {
		if summary.CycleID == cycleID && summary.NoticePeriodWarning {
			summaries = append(summaries, summary)
		}
	}
	return summaries, nil
}

func (f *fakeStore) UpsertMonthlySummary(ctx context.Context, summary MonthlySummary) error {
	f.monthly[monthSumKey(summary.EmployeeID, summary.ReviewYear, summary.ReviewMonth)] = summary
	return nil
}

func (f *fakeStore) DeleteMonthlySummary(ctx context.Context, employeeID string, year, month int) error {
	delete(f.monthly, monthSumKey(employeeID, year, month))
	return nil
}

func (f *fakeStore) CycleSummary(ctx context.Context, employeeID string, cycleID int) (CycleSummary, error) {
	summary, ok := f.cycleSums[cycleSumKey(employeeID, cycleID)]
	if !ok {
		return CycleSummary{}, ErrSummaryNotFound
	}
	return summary, nil
}

func (f *fakeStore) CycleSummariesForCycle(ctx context.Context, cycleID int) ([]CycleSummary, error) {
	var summaries []CycleSummary
	for _, summary := range f.cycleSums {
		if summary.CycleID == cycleID {
			summaries = append(summaries, summary)
		}
	}
	return summaries, nil
}

func (f *fakeStore) UpsertCycleSummary(ctx context.Context, summary CycleSummary) error {
	key := cycleSumKey(summary.EmployeeID, summary.CycleID)
	if existing, ok := f.cycleSums[key]; ok && existing.Frozen {
		return nil
	}
	f.cycleSums[key] = summary
	return nil
}

func (f *fakeStore) DeleteCycleSummary(ctx context.Context, employeeID string, cycleID int) error {
	key := cycleSumKey(employeeID, cycleID)
	if existing, ok := f.cycleSums[key]; ok && existing.Frozen {
		return nil
	}
	delete(f.cycleSums, key)
	return nil
}

func newTestService(now time.Time) (*Service, *fakeStore) {
	store := newFakeStore()
	svc := NewService(store, nil)
	svc.now = func() time.Time { return now }
	return svc, store
}

func month(year int, m time.Month) time.Time {
	return time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
}

var testNow = time.Date(2025, time.October, 15, 9, 0, 0, 0, time.UTC)

func mustCreate(t *testing.T, svc *Service, input CreateReviewInput) (Review, bool) {
	t.Helper()
	review, warned, err := svc.CreateReview(context.Background(), input)
	if err != nil {
		t.Fatalf("create review: %v", err)
	}
	return review, warned
}

func TestCreateReviewDerivesFields(t *testing.T) {
	svc, store := newTestService(testNow)

	review, warned := mustCreate(t, svc, CreateReviewInput{
		EmployeeID:    "emp-1",
		ReviewerID:    "mgr-1",
		ReviewedMonth: month(2025, time.October),
		Score:         5,
		Feedback:      "excellent quarter",
	})

	if review.PerformanceTag != TagOutstanding {
		t.Fatalf("expected tag %q, got %q", TagOutstanding, review.PerformanceTag)
	}
	if review.IncentiveAmount != 1000 || review.PenaltyAmount != 0 {
		t.Fatalf("unexpected amounts: %+v", review)
	}
	if review.ReviewYear != 2025 || review.ReviewMonth != 10 {
		t.Fatalf("unexpected reviewed month: %+v", review)
	}
	if review.CyclePosition != 4 {
		t.Fatalf("October in a July cycle is position 4, got %d", review.CyclePosition)
	}
	if warned {
		t.Fatal("single high review must not raise a warning")
	}

	cycle := store.cycles[review.CycleID]
	if cycle.Half != 2 || cycle.Year != 2025 || cycle.Status != CycleStatusActive {
		t.Fatalf("unexpected owning cycle: %+v", cycle)
	}

	summary, err := store.MonthlySummary(context.Background(), "emp-1", 2025, 10)
	if err != nil {
		t.Fatalf("monthly summary missing: %v", err)
	}
	if summary.CeilingAverage != 5 || summary.MonthlyTag != TagOutstanding {
		t.Fatalf("unexpected monthly summary: %+v", summary)
	}
	if len(summary.ReviewIDs) != 1 || summary.ReviewIDs[0] != review.ID {
		t.Fatalf("summary must reference its reviews: %+v", summary)
	}

	cycleSummary, err := store.CycleSummary(context.Background(), "emp-1", review.CycleID)
	if err != nil {
		t.Fatalf("cycle summary missing: %v", err)
	}
	if cycleSummary.MonthsReviewed != 1 || cycleSummary.TotalReviews != 1 || cycleSummary.CeilingAverage != 5 {
		t.Fatalf("unexpected cycle summary: %+v", cycleSummary)
	}
}

func TestCreateReviewValidation(t *testing.T) {
	svc, store := newTestService(testNow)

	var verr *ValidationError
	_, _, err := svc.CreateReview(context.Background(), CreateReviewInput{
		EmployeeID: "emp-1", ReviewedMonth: month(2025, time.October), Score: 6, Feedback: "x",
	})
	if !errors.As(err, &verr) || verr.Field != "score" {
		t.Fatalf("expected score validation error, got %v", err)
	}

	_, _, err = svc.CreateReview(context.Background(), CreateReviewInput{
		EmployeeID: "emp-1", ReviewedMonth: month(2025, time.October), Score: 3, Feedback: "  ",
	})
	if !errors.As(err, &verr) || verr.Field != "feedback" {
		t.Fatalf("expected feedback validation error, got %v", err)
	}

	override := 25.0
	_, _, err = svc.CreateReview(context.Background(), CreateReviewInput{
		EmployeeID: "emp-1", ReviewedMonth: month(2025, time.October), Score: 3,
		Feedback: "ok", PenaltyOverride: &override,
	})
	if !errors.As(err, &verr) || verr.Field != "overrideReason" {
		t.Fatalf("expected override reason validation error, got %v", err)
	}

	if len(store.reviews) != 0 || len(store.monthly) != 0 {
		t.Fatal("validation failures must leave no side effects")
	}
}

func TestReviewCap(t *testing.T) {
	svc, store := newTestService(testNow)

	input := CreateReviewInput{
		EmployeeID: "emp-1", ReviewerID: "mgr-1",
		ReviewedMonth: month(2025, time.October), Score: 3, Feedback: "ok",
	}
	mustCreate(t, svc, input)
	mustCreate(t, svc, input)

	_, _, err := svc.CreateReview(context.Background(), input)
	if !errors.Is(err, ErrMonthFull) {
		t.Fatalf("expected ErrMonthFull, got %v", err)
	}
	if len(store.reviews) != 2 {
		t.Fatalf("exactly 2 reviews must remain, got %d", len(store.reviews))
	}

	summary, err := store.MonthlySummary(context.Background(), "emp-1", 2025, 10)
	if err != nil {
		t.Fatalf("monthly summary missing: %v", err)
	}
	if summary.ReviewCount != 2 {
		t.Fatalf("summary must still count 2 reviews, got %d", summary.ReviewCount)
	}
}

func TestOverridePrecedence(t *testing.T) {
	svc, _ := newTestService(testNow)

	penalty := 25.0
	review, _ := mustCreate(t, svc, CreateReviewInput{
		EmployeeID: "emp-1", ReviewerID: "mgr-1",
		ReviewedMonth: month(2025, time.October), Score: 5, Feedback: "great",
		PenaltyOverride: &penalty, OverrideReason: "policy",
	})

	if review.IncentiveAmount != 1000 {
		t.Fatalf("incentive must keep the table default, got %v", review.IncentiveAmount)
	}
	if review.PenaltyAmount != 25 {
		t.Fatalf("penalty override must win verbatim, got %v", review.PenaltyAmount)
	}
}

func TestEscalationAcrossYearBoundary(t *testing.T) {
	svc, store := newTestService(time.Date(2026, time.January, 20, 9, 0, 0, 0, time.UTC))

	_, warned := mustCreate(t, svc, CreateReviewInput{
		EmployeeID: "emp-1", ReviewerID: "mgr-1",
		ReviewedMonth: month(2025, time.December), Score: 1, Feedback: "missed targets",
	})
	if warned {
		t.Fatal("first low month must not raise a warning")
	}

	_, warned = mustCreate(t, svc, CreateReviewInput{
		EmployeeID: "emp-1", ReviewerID: "mgr-1",
		ReviewedMonth: month(2026, time.January), Score: 1, Feedback: "no improvement",
	})
	if !warned {
		t.Fatal("December to January low streak must raise a warning")
	}

	january, err := store.MonthlySummary(context.Background(), "emp-1", 2026, 1)
	if err != nil {
		t.Fatalf("january summary missing: %v", err)
	}
	if january.ConsecutiveLowCount != 2 || !january.NoticePeriodWarning {
		t.Fatalf("year rollover must not reset the streak: %+v", january)
	}
}

func TestWarningNotRepeatedOnSecondReview(t *testing.T) {
	svc, _ := newTestService(testNow)

	mustCreate(t, svc, CreateReviewInput{
		EmployeeID: "emp-1", ReviewerID: "mgr-1",
		ReviewedMonth: month(2025, time.September), Score: 1, Feedback: "low",
	})
	_, warned := mustCreate(t, svc, CreateReviewInput{
		EmployeeID: "emp-1", ReviewerID: "mgr-1",
		ReviewedMonth: month(2025, time.October), Score: 1, Feedback: "low again",
	})
	if !warned {
		t.Fatal("expected a fresh warning")
	}

	// Another low review in the already-warned month keeps the flag but
	// must not report it as newly raised.
	_, warned = mustCreate(t, svc, CreateReviewInput{
		EmployeeID: "emp-1", ReviewerID: "mgr-1",
		ReviewedMonth: month(2025, time.October), Score: 1, Feedback: "still low",
	})
	if warned {
		t.Fatal("existing warning must not be reported again")
	}
}

func TestUpdateReviewRecomputes(t *testing.T) {
	svc, store := newTestService(testNow)

	review, _ := mustCreate(t, svc, CreateReviewInput{
		EmployeeID: "emp-1", ReviewerID: "mgr-1",
		ReviewedMonth: month(2025, time.October), Score: 5, Feedback: "great",
	})

	newScore := 1
	updated, _, err := svc.UpdateReview(context.Background(), review.ID, UpdateReviewInput{Score: &newScore})
	if err != nil {
		t.Fatalf("update review: %v", err)
	}
	if updated.PerformanceTag != TagWorst || updated.PenaltyAmount != 500 || updated.IncentiveAmount != 0 {
		t.Fatalf("update must re-derive tag and amounts: %+v", updated)
	}

	summary, err := store.MonthlySummary(context.Background(), "emp-1", 2025, 10)
	if err != nil {
		t.Fatalf("monthly summary missing: %v", err)
	}
	if summary.CeilingAverage != 1 || !summary.IsLow {
		t.Fatalf("summary must reflect the new score: %+v", summary)
	}
}

func TestDeleteLastReviewRemovesSummaries(t *testing.T) {
	svc, store := newTestService(testNow)

	review, _ := mustCreate(t, svc, CreateReviewInput{
		EmployeeID: "emp-1", ReviewerID: "mgr-1",
		ReviewedMonth: month(2025, time.October), Score: 4, Feedback: "good",
	})

	if err := svc.DeleteReview(context.Background(), review.ID); err != nil {
		t.Fatalf("delete review: %v", err)
	}

	if _, err := store.MonthlySummary(context.Background(), "emp-1", 2025, 10); !errors.Is(err, ErrSummaryNotFound) {
		t.Fatalf("monthly summary must be deleted with its last review, got %v", err)
	}
	if _, err := store.CycleSummary(context.Background(), "emp-1", review.CycleID); !errors.Is(err, ErrSummaryNotFound) {
		t.Fatalf("cycle summary must be deleted with its last month, got %v", err)
	}
}

func TestResolveCycleLazyAndIdempotent(t *testing.T) {
	svc, _ := newTestService(testNow)
	ctx := context.Background()

	first, err := svc.ResolveCycleForDate(ctx, month(2025, time.August))
	if err != nil {
		t.Fatalf("resolve cycle: %v", err)
	}
	if first.Status != CycleStatusActive {
		t.Fatalf("current window must be active, got %q", first.Status)
	}

	again, err := svc.ResolveCycleForDate(ctx, month(2025, time.November))
	if err != nil {
		t.Fatalf("resolve cycle again: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("same window must resolve to the same cycle: %d vs %d", again.ID, first.ID)
	}

	backfill, err := svc.ResolveCycleForDate(ctx, month(2024, time.February))
	if err != nil {
		t.Fatalf("resolve historical cycle: %v", err)
	}
	if backfill.Status != CycleStatusClosed {
		t.Fatalf("historical window must be created closed, got %q", backfill.Status)
	}
	if backfill.AdminClosed() {
		t.Fatal("backfilled cycle must not count as administratively closed")
	}
}

func TestActiveCycleLazyCreation(t *testing.T) {
	svc, _ := newTestService(testNow)

	cycle, err := svc.ActiveCycle(context.Background())
	if err != nil {
		t.Fatalf("active cycle: %v", err)
	}
	if cycle.Year != 2025 || cycle.Half != 2 || cycle.Status != CycleStatusActive {
		t.Fatalf("unexpected active cycle: %+v", cycle)
	}
}

func TestCloseCycleFreezesSummaries(t *testing.T) {
	svc, store := newTestService(testNow)
	ctx := context.Background()

	review, _ := mustCreate(t, svc, CreateReviewInput{
		EmployeeID: "emp-1", ReviewerID: "mgr-1",
		ReviewedMonth: month(2025, time.October), Score: 4, Feedback: "good",
	})

	closed, err := svc.CloseCycle(ctx, review.CycleID)
	if err != nil {
		t.Fatalf("close cycle: %v", err)
	}
	if closed.Status != CycleStatusClosed || closed.ClosedAt == nil {
		t.Fatalf("unexpected closed cycle: %+v", closed)
	}

	summary, err := store.CycleSummary(ctx, "emp-1", review.CycleID)
	if err != nil {
		t.Fatalf("cycle summary missing: %v", err)
	}
	if !summary.Frozen || summary.FrozenAt == nil {
		t.Fatalf("close must freeze cycle summaries: %+v", summary)
	}

	if _, err := svc.CloseCycle(ctx, review.CycleID); !errors.Is(err, ErrCycleAlreadyDone) {
		t.Fatalf("second close must fail, got %v", err)
	}

	// Mutations inside the closed cycle are rejected.
	if _, _, err := svc.CreateReview(ctx, CreateReviewInput{
		EmployeeID: "emp-2", ReviewerID: "mgr-1",
		ReviewedMonth: month(2025, time.November), Score: 3, Feedback: "ok",
	}); !errors.Is(err, ErrCycleClosed) {
		t.Fatalf("create in closed cycle must fail, got %v", err)
	}
	if err := svc.DeleteReview(ctx, review.ID); !errors.Is(err, ErrCycleClosed) {
		t.Fatalf("delete in closed cycle must fail, got %v", err)
	}
}

func TestFrozenSummaryIgnoresRecompute(t *testing.T) {
	svc, store := newTestService(testNow)
	ctx := context.Background()

	review, _ := mustCreate(t, svc, CreateReviewInput{
		EmployeeID: "emp-1", ReviewerID: "mgr-1",
		ReviewedMonth: month(2025, time.October), Score: 5, Feedback: "great",
	})
	if _, err := svc.CloseCycle(ctx, review.CycleID); err != nil {
		t.Fatalf("close cycle: %v", err)
	}
	before, _ := store.CycleSummary(ctx, "emp-1", review.CycleID)

	// Mutate the underlying data behind the engine's back, then recompute.
	stored := store.reviews[review.ID]
	stored.Score = 1
	store.reviews[review.ID] = stored
	if err := svc.RecomputeEmployeeCycle(ctx, "emp-1", review.CycleID); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	after, _ := store.CycleSummary(ctx, "emp-1", review.CycleID)
	if after.CeilingAverage != before.CeilingAverage || after.TotalReviews != before.TotalReviews {
		t.Fatalf("frozen summary must stay a snapshot: before %+v after %+v", before, after)
	}
}

func TestLeaderboardAndWarningQueries(t *testing.T) {
	svc, _ := newTestService(testNow)
	ctx := context.Background()

	mustCreate(t, svc, CreateReviewInput{
		EmployeeID: "emp-top", ReviewerID: "mgr-1",
		ReviewedMonth: month(2025, time.September), Score: 5, Feedback: "strong",
	})
	mustCreate(t, svc, CreateReviewInput{
		EmployeeID: "emp-mid", ReviewerID: "mgr-1",
		ReviewedMonth: month(2025, time.September), Score: 3, Feedback: "fine",
	})
	mustCreate(t, svc, CreateReviewInput{
		EmployeeID: "emp-low", ReviewerID: "mgr-1",
		ReviewedMonth: month(2025, time.September), Score: 1, Feedback: "low",
	})
	mustCreate(t, svc, CreateReviewInput{
		EmployeeID: "emp-low", ReviewerID: "mgr-1",
		ReviewedMonth: month(2025, time.October), Score: 1, Feedback: "low again",
	})

	cycle, entries, err := svc.Leaderboard(ctx, 0, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].EmployeeID != "emp-top" || entries[0].Rank != 1 {
		t.Fatalf("unexpected leader: %+v", entries[0])
	}

	_, warnings, err := svc.Warnings(ctx, cycle.ID)
	if err != nil {
		t.Fatalf("warnings: %v", err)
	}
	if len(warnings) != 1 || warnings[0].EmployeeID != "emp-low" {
		t.Fatalf("expected one warning for emp-low, got %+v", warnings)
	}

	view, err := svc.EmployeeCycleView(ctx, "emp-low", cycle.ID)
	if err != nil {
		t.Fatalf("employee view: %v", err)
	}
	if len(view.Reviews) != 2 || len(view.MonthlySummaries) != 2 {
		t.Fatalf("unexpected employee view: %+v", view)
	}
	if view.CycleSummary == nil || !view.CycleSummary.HadWarning {
		t.Fatalf("cycle summary must inherit the warning: %+v", view.CycleSummary)
	}
}

func TestMutationRejectedWhenCloseWinsTheLock(t *testing.T) {
	svc, store := newTestService(testNow)

	review, _ := mustCreate(t, svc, CreateReviewInput{
		EmployeeID:    "emp-1",
		ReviewerID:    "mgr-1",
		ReviewedMonth: month(2025, time.October),
		Score:         4,
		Feedback:      "solid month",
	})

	closeCycle := func(f *fakeStore) {
		cycle := f.cycles[review.CycleID]
		closedAt := testNow
		cycle.Status = CycleStatusClosed
		cycle.ClosedAt = &closedAt
		f.cycles[cycle.ID] = cycle
	}
	reopenCycle := func() {
		cycle := store.cycles[review.CycleID]
		cycle.Status = CycleStatusActive
		cycle.ClosedAt = nil
		store.cycles[cycle.ID] = cycle
	}

	// A close commits between cycle resolution and the review transaction
	// taking the cycle lock. The in-transaction re-check must reject.
	store.beforeReviewTx = closeCycle
	_, _, err := svc.CreateReview(context.Background(), CreateReviewInput{
		EmployeeID:    "emp-1",
		ReviewerID:    "mgr-1",
		ReviewedMonth: month(2025, time.November),
		Score:         3,
		Feedback:      "late entry",
	})
	if !errors.Is(err, ErrCycleClosed) {
		t.Fatalf("expected ErrCycleClosed on create, got %v", err)
	}
	if len(store.reviews) != 1 {
		t.Fatalf("expected no review persisted into closed cycle, got %d", len(store.reviews))
	}

	reopenCycle()
	score := 2
	_, _, err = svc.UpdateReview(context.Background(), review.ID, UpdateReviewInput{Score: &score})
	if !errors.Is(err, ErrCycleClosed) {
		t.Fatalf("expected ErrCycleClosed on update, got %v", err)
	}
	if store.reviews[review.ID].Score != 4 {
		t.Fatalf("update must not persist after losing the race, got score %d", store.reviews[review.ID].Score)
	}

	reopenCycle()
	if err := svc.DeleteReview(context.Background(), review.ID); !errors.Is(err, ErrCycleClosed) {
		t.Fatalf("expected ErrCycleClosed on delete, got %v", err)
	}
	if _, ok := store.reviews[review.ID]; !ok {
		t.Fatal("delete must not persist after losing the race")
	}
}
