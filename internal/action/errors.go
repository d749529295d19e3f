package action

import "errors"

// Operation errors. Precondition failures (ErrBusy, ErrNoAccount,
// ErrNoSpender) are raised before any chain call; the rest classify
// collaborator failures at the orchestrator boundary.
var (
	ErrBusy          = errors.New("another operation is in progress")
	ErrNoAccount     = errors.New("no connected account")
	ErrNoSpender     = errors.New("no valid spender selected")
	ErrReadFailed    = errors.New("chain read failed")
	ErrWriteFailed   = errors.New("transaction failed")
	ErrUserCancelled = errors.New("cancelled")
)
