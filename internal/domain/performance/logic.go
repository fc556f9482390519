package performance

import (
	"math"
	"sort"
	"time"
)

// TagForScore maps an integer score (or ceiling average) to its tag.
// Anything outside [1,5] maps to "No Review".
func TagForScore(score int) string {
	if tag, ok := scoreTags[score]; ok {
		return tag
	}
	return TagNoReview
}

// DefaultAmounts returns the fixed incentive/penalty pair for a score.
func DefaultAmounts(score int) (incentive, penalty float64) {
	amounts := scoreDefaults[score]
	return amounts.Incentive, amounts.Penalty
}

// CeilingAverage returns the arithmetic mean of scores and its ceiling.
// The ceiling is what tagging and escalation read.
func CeilingAverage(scores []int) (float64, int) {
	if len(scores) == 0 {
		return 0, 0
	}
	total := 0
	for _, score := range scores {
		total += score
	}
	avg := float64(total) / float64(len(scores))
	return avg, int(math.Ceil(avg))
}

// HalfOfMonth returns 1 for Jan-Jun and 2 for Jul-Dec.
func HalfOfMonth(month time.Month) int {
	if month <= time.June {
		return 1
	}
	return 2
}

// HalfWindow returns the inclusive [start, end] dates of a half-year.
func HalfWindow(year, half int) (start, end time.Time) {
	if half == 1 {
		start = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(year, time.June, 30, 0, 0, 0, 0, time.UTC)
		return start, end
	}
	start = time.Date(year, time.July, 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	return start, end
}

// CyclePosition returns the 1-based slot of the reviewed month within a
// cycle starting at cycleStart, wrapping across a calendar-year boundary
// and clamped to [1, CycleMonths].
func CyclePosition(cycleStart time.Time, reviewed time.Time) int {
	position := (int(reviewed.Month())-int(cycleStart.Month())+12)%12 + 1
	if position < 1 {
		position = 1
	}
	if position > CycleMonths {
		position = CycleMonths
	}
	return position
}

// PreviousMonth steps one calendar month back, wrapping December to
// January of the previous year.
func PreviousMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// BuildMonthlySummary derives one employee's monthly aggregate from the
// full review set of that month. prev is the summary of the immediately
// preceding calendar month, nil when absent. reviews must be non-empty and
// all belong to the same (employee, year, month).
func BuildMonthlySummary(reviews []Review, prev *MonthlySummary) MonthlySummary {
	first := reviews[0]
	summary := MonthlySummary{
		EmployeeID:    first.EmployeeID,
		CycleID:       first.CycleID,
		ReviewYear:    first.ReviewYear,
		ReviewMonth:   first.ReviewMonth,
		CyclePosition: first.CyclePosition,
	}

	scores := make([]int, 0, len(reviews))
	for _, review := range reviews {
		summary.ReviewIDs = append(summary.ReviewIDs, review.ID)
		summary.TotalIncentive += review.IncentiveAmount
		summary.TotalPenalty += review.PenaltyAmount
		scores = append(scores, review.Score)
	}
	summary.ReviewCount = len(reviews)
	summary.AverageScore, summary.CeilingAverage = CeilingAverage(scores)
	summary.MonthlyTag = TagForScore(summary.CeilingAverage)
	summary.NetAmount = summary.TotalIncentive - summary.TotalPenalty
	summary.IsLow = summary.CeilingAverage <= 1

	if summary.IsLow {
		summary.ConsecutiveLowCount = 1
		if prev != nil && prev.IsLow {
			summary.ConsecutiveLowCount = prev.ConsecutiveLowCount + 1
		}
	}
	summary.NoticePeriodWarning = summary.ConsecutiveLowCount >= WarningThreshold
	return summary
}

// BuildCycleSummary derives one employee's cycle aggregate from its monthly
// summaries. Financial totals are summed over the underlying reviews, not
// over months, so they are passed in separately. months must be non-empty.
func BuildCycleSummary(months []MonthlySummary, totalIncentive, totalPenalty float64, totalReviews int) CycleSummary {
	first := months[0]
	summary := CycleSummary{
		EmployeeID:     first.EmployeeID,
		CycleID:        first.CycleID,
		TotalReviews:   totalReviews,
		MonthsReviewed: len(months),
		TotalIncentive: totalIncentive,
		TotalPenalty:   totalPenalty,
		NetAmount:      totalIncentive - totalPenalty,
	}

	ceilings := make([]int, 0, len(months))
	for _, month := range months {
		ceilings = append(ceilings, month.CeilingAverage)
		switch month.MonthlyTag {
		case TagOutstanding:
			summary.OutstandingMonths++
		case TagVeryGood:
			summary.VeryGoodMonths++
		case TagAverage:
			summary.AverageMonths++
		case TagBelowAverage:
			summary.BelowAverageMonths++
		case TagWorst:
			summary.WorstMonths++
		}
		if month.IsLow {
			summary.HadConsecutiveLow = true
		}
		if month.NoticePeriodWarning {
			summary.HadWarning = true
		}
	}
	summary.AverageScore, summary.CeilingAverage = CeilingAverage(ceilings)
	summary.FinalTag = TagForScore(summary.CeilingAverage)
	return summary
}

// RankLeaderboard orders cycle summaries for the leaderboard: employees
// with no qualifying review drop out, the rest sort by ceiling average
// descending with net amount as tie-break, truncated to limit.
func RankLeaderboard(summaries []CycleSummary, limit int) []CycleSummary {
	ranked := make([]CycleSummary, 0, len(summaries))
	for _, summary := range summaries {
		if summary.CeilingAverage == 0 {
			continue
		}
		ranked = append(ranked, summary)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].CeilingAverage != ranked[j].CeilingAverage {
			return ranked[i].CeilingAverage > ranked[j].CeilingAverage
		}
		return ranked[i].NetAmount > ranked[j].NetAmount
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
