package performance

import "time"

// Cycle is a fixed half-year review window. Cycles are numbered
// sequentially and created lazily on first access to a date inside them.
type Cycle struct {
	ID        int        `json:"id"`
	StartDate time.Time  `json:"startDate"`
	EndDate   time.Time  `json:"endDate"`
	Year      int        `json:"year"`
	Half      int        `json:"half"`
	Status    string     `json:"status"`
	ClosedAt  *time.Time `json:"closedAt,omitempty"`
}

// AdminClosed reports whether the cycle was explicitly closed by an
// administrator. A lazily backfilled historical cycle carries status
// "closed" but no timestamp and stays editable until finalized.
func (c Cycle) AdminClosed() bool {
	return c.ClosedAt != nil
}

// Review is one evaluation event. ReviewedMonth is the month being
// evaluated, chosen by the reviewer, independent of the submission date.
type Review struct {
	ID                string     `json:"id"`
	EmployeeID        string     `json:"employeeId"`
	ReviewerID        string     `json:"reviewerId"`
	CycleID           int        `json:"cycleId"`
	SubmittedAt       time.Time  `json:"submittedAt"`
	ReviewedMonth     time.Time  `json:"reviewedMonth"`
	ReviewYear        int        `json:"reviewYear"`
	ReviewMonth       int        `json:"reviewMonth"`
	CyclePosition     int        `json:"cyclePosition"`
	Score             int        `json:"score"`
	Feedback          string     `json:"feedback"`
	PerformanceTag    string     `json:"performanceTag"`
	IncentiveAmount   float64    `json:"incentiveAmount"`
	PenaltyAmount     float64    `json:"penaltyAmount"`
	IncentiveOverride *float64   `json:"incentiveOverride,omitempty"`
	PenaltyOverride   *float64   `json:"penaltyOverride,omitempty"`
	OverrideReason    string     `json:"overrideReason,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty"`
}

// MonthlySummary is the derived aggregate of one employee's reviews in one
// calendar month. It is never hand-edited; every review mutation rebuilds
// it from the full review set of the month.
type MonthlySummary struct {
	ID                  string   `json:"id"`
	EmployeeID          string   `json:"employeeId"`
	CycleID             int      `json:"cycleId"`
	ReviewYear          int      `json:"reviewYear"`
	ReviewMonth         int      `json:"reviewMonth"`
	CyclePosition       int      `json:"cyclePosition"`
	ReviewIDs           []string `json:"reviewIds"`
	ReviewCount         int      `json:"reviewCount"`
	AverageScore        float64  `json:"averageScore"`
	CeilingAverage      int      `json:"ceilingAverage"`
	MonthlyTag          string   `json:"monthlyTag"`
	TotalIncentive      float64  `json:"totalIncentive"`
	TotalPenalty        float64  `json:"totalPenalty"`
	NetAmount           float64  `json:"netAmount"`
	IsLow               bool     `json:"isLow"`
	ConsecutiveLowCount int      `json:"consecutiveLowCount"`
	NoticePeriodWarning bool     `json:"noticePeriodWarning"`
}

// CycleSummary is the derived aggregate of one employee's monthly summaries
// across one cycle. Once its cycle is administratively closed the summary
// is frozen and recomputes leave it untouched.
type CycleSummary struct {
	ID                 string     `json:"id"`
	EmployeeID         string     `json:"employeeId"`
	CycleID            int        `json:"cycleId"`
	TotalReviews       int        `json:"totalReviews"`
	MonthsReviewed     int        `json:"monthsReviewed"`
	AverageScore       float64    `json:"averageScore"`
	CeilingAverage     int        `json:"ceilingAverage"`
	FinalTag           string     `json:"finalTag"`
	OutstandingMonths  int        `json:"outstandingMonths"`
	VeryGoodMonths     int        `json:"veryGoodMonths"`
	AverageMonths      int        `json:"averageMonths"`
	BelowAverageMonths int        `json:"belowAverageMonths"`
	WorstMonths        int        `json:"worstMonths"`
	TotalIncentive     float64    `json:"totalIncentive"`
	TotalPenalty       float64    `json:"totalPenalty"`
	NetAmount          float64    `json:"netAmount"`
	HadConsecutiveLow  bool       `json:"hadConsecutiveLow"`
	HadWarning         bool       `json:"hadWarning"`
	Frozen             bool       `json:"frozen"`
	FrozenAt           *time.Time `json:"frozenAt,omitempty"`
}

// LeaderboardEntry is one ranked row of the cycle leaderboard, decorated
// with directory data when available.
type LeaderboardEntry struct {
	Rank           int     `json:"rank"`
	EmployeeID     string  `json:"employeeId"`
	Name           string  `json:"name,omitempty"`
	Title          string  `json:"title,omitempty"`
	AvatarURL      string  `json:"avatarUrl,omitempty"`
	CeilingAverage int     `json:"ceilingAverage"`
	FinalTag       string  `json:"finalTag"`
	MonthsReviewed int     `json:"monthsReviewed"`
	TotalReviews   int     `json:"totalReviews"`
	NetAmount      float64 `json:"netAmount"`
}

// EmployeeView is the read model behind the employee-facing dashboard.
type EmployeeView struct {
	EmployeeID       string           `json:"employeeId"`
	Name             string           `json:"name,omitempty"`
	Title            string           `json:"title,omitempty"`
	AvatarURL        string           `json:"avatarUrl,omitempty"`
	Cycle            Cycle            `json:"cycle"`
	Reviews          []Review         `json:"reviews"`
	MonthlySummaries []MonthlySummary `json:"monthlySummaries"`
	CycleSummary     *CycleSummary    `json:"cycleSummary,omitempty"`
}

// ReviewFilter narrows review listings.
type ReviewFilter struct {
	EmployeeID string
	CycleID    int
	Year       int
	Month      int
	Tag        string
	Warning    *bool
}
