package requests

import "errors"

// Domain errors for load requests.
var (
	// ErrNotFound indicates the requested load request was not found.
	ErrNotFound = errors.New("load request not found")

	// Validation errors (local preconditions, rejected before persistence).
	ErrEmptyLines      = errors.New("cannot submit empty request")
	ErrBlankReason     = errors.New("rejection reason is required")
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	ErrInvalidPriority = errors.New("unknown priority")

	// Status transition errors.
	ErrNotDraft         = errors.New("can only modify DRAFT requests")
	ErrNotSubmitted     = errors.New("request is not awaiting decision")
	ErrAlreadyProcessed = errors.New("request was already processed")

	// ErrNotOwner indicates an LSR touched a request that belongs to someone else.
	ErrNotOwner = errors.New("request belongs to a different representative")
)
