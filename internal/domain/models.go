// Package domain defines the planner resources rendered by the admin UI and
// the wire shapes exchanged with the planner backend. Backend resources are
// read-only copies owned by the API; the UI never persists them.
package domain

// ItemType classifies planner items (e.g. "Credit", "Debit").
//
// Fields:
//   - ID: positive identifier assigned by the operator on create.
//   - Name: display name, non-blank, at most 75 characters.
type ItemType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TimePeriod is a recurrence bucket (weekly, monthly, ...) referenced by items.
type TimePeriod struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Item is a single credit or debit line owned by a user. Only the fields the
// admin pages display are modeled; schedule fields are kept for the detail
// view and tolerated when absent.
type Item struct {
	ID         int64       `json:"id"`
	UserID     string      `json:"userId"`
	Name       string      `json:"name"`
	Amount     float64     `json:"amount"`
	ItemType   *ItemType   `json:"itemType,omitempty"`
	TimePeriod *TimePeriod `json:"timePeriod,omitempty"`
	BeginDate  *string     `json:"beginDate,omitempty"`
	EndDate    *string     `json:"endDate,omitempty"`

	WeeklyDow    *int  `json:"weeklyDow,omitempty"`
	MonthlyDom   *int  `json:"monthlyDom,omitempty"`
	AnnualMoy    *int  `json:"annualMoy,omitempty"`
	AnnualDom    *int  `json:"annualDom,omitempty"`
	DateRangeReq *bool `json:"dateRangeReq,omitempty"`
}

// Envelope is the response wrapper the backend puts around every payload.
// The API client unwraps it before handing values to callers.
type Envelope[T any] struct {
	Data          T      `json:"data"`
	Message       string `json:"message"`
	Status        int    `json:"status"`
	CorrelationID string `json:"correlationId"`
	Timestamp     string `json:"timestamp"`
}

// ClientLog is the diagnostic record uploaded to POST /client-logs when an
// outbound request fails.
type ClientLog struct {
	Level         string `json:"level"`
	URL           string `json:"url"`
	Status        int    `json:"status"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId"`
	Details       any    `json:"details,omitempty"`
}
