package performance

const (
	CycleStatusActive = "active"
	CycleStatusClosed = "closed"

	TagOutstanding  = "Outstanding"
	TagVeryGood     = "Very Good"
	TagAverage      = "Average"
	TagBelowAverage = "Below Average"
	TagWorst        = "Worst"
	TagNoReview     = "No Review"

	// MaxReviewsPerMonth is the per-employee cap for one reviewed month.
	MaxReviewsPerMonth = 2

	// CycleMonths is the fixed length of a review cycle.
	CycleMonths = 6

	// WarningThreshold is the consecutive low-month count that raises a
	// notice-period warning.
	WarningThreshold = 2
)

var scoreTags = map[int]string{
	5: TagOutstanding,
	4: TagVeryGood,
	3: TagAverage,
	2: TagBelowAverage,
	1: TagWorst,
}

type scoreAmounts struct {
	Incentive float64
	Penalty   float64
}

var scoreDefaults = map[int]scoreAmounts{
	5: {Incentive: 1000},
	4: {Incentive: 500},
	3: {},
	2: {Penalty: 300},
	1: {Penalty: 500},
}
