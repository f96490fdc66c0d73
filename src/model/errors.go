package model

import "errors"

// Ledger error taxonomy. Repositories translate driver-level failures into
// one of these sentinels so callers can branch with errors.Is instead of
// inspecting driver codes or SQL state.
var (
	// ErrInvalidInput marks a request rejected before any write happened.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTradeNotFound means the referenced trade_id does not exist.
	ErrTradeNotFound = errors.New("trade not found")

	// ErrNoOpenPosition means no open trade matched the lookup keys.
	ErrNoOpenPosition = errors.New("no open position")

	// ErrDuplicateKey means an insert collided with an existing trade_id.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrAlreadyClosed means a close was attempted on a closed trade.
	ErrAlreadyClosed = errors.New("trade already closed")

	// ErrStorageUnavailable wraps I/O failures reaching the ledger database.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
