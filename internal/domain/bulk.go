package domain

// Item error codes reported inside a BulkResult.
const (
	ItemErrorNotFound    = "NOT_FOUND"
	ItemErrorPersistence = "PERSISTENCE_ERROR"
)

// ItemError explains why a single card in a bulk action failed.
type ItemError struct {
	CardID  string `json:"card_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CapacityReport records that a redistribution was clamped to stay within
// the configured per-day maximum or recovery horizon.
type CapacityReport struct {
	Requested int    `json:"requested"`
	Applied   int    `json:"applied"`
	Reason    string `json:"reason"`
}

// BulkResult summarises a bulk action. Failed items are itemised; only the
// first few reasons are returned and the rest are counted in ErrorsTruncated.
type BulkResult struct {
	Action          string          `json:"action"`
	Succeeded       int             `json:"succeeded"`
	Failed          int             `json:"failed"`
	Errors          []ItemError     `json:"errors"`
	ErrorsTruncated int             `json:"errors_truncated,omitempty"`
	Policy          string          `json:"policy,omitempty"`
	Days            int             `json:"days,omitempty"`
	Capacity        *CapacityReport `json:"capacity,omitempty"`
}

// NewBulkResult creates an empty result for the named action.
func NewBulkResult(action string) *BulkResult {
	return &BulkResult{Action: action, Errors: []ItemError{}}
}

// Success reports whether the action did something useful: at least one
// item succeeded, or there was nothing to do and nothing failed.
func (r *BulkResult) Success() bool {
	return r.Succeeded > 0 || r.Failed == 0
}

// AddFailure records a failed item, keeping at most maxReported reasons.
func (r *BulkResult) AddFailure(item ItemError, maxReported int) {
	r.Failed++
	if maxReported > 0 && len(r.Errors) >= maxReported {
		r.ErrorsTruncated++
		return
	}
	r.Errors = append(r.Errors, item)
}
