package constants

// Status is the overall verdict of a reconciliation.
type Status string

// Stable values (rendered verbatim in reports and API payloads).
const (
	StatusApproved    Status = "APPROVED"
	StatusNeedsReview Status = "NEEDS_REVIEW"
)

// Issue tags one failed comparison criterion.
type Issue string

const (
	IssueVendorMismatch Issue = "VENDOR_MISMATCH"
	IssueTotalMismatch  Issue = "TOTAL_MISMATCH"
	IssueItemsMismatch  Issue = "ITEMS_MISMATCH"
)
