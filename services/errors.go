package services

import "errors"

// Expected, user-facing outcomes. Handlers branch on these with
// errors.Is; anything else is treated as a store fault.
var (
	ErrQuestNotFound         = errors.New("quest not found")
	ErrAlreadyCompleted      = errors.New("quest already completed")
	ErrPoolFull              = errors.New("pool has reached maximum participants")
	ErrPoolInsufficientFunds = errors.New("pool has insufficient funds")
	ErrNotCompleted          = errors.New("quest not completed yet")
	ErrAlreadyClaimed        = errors.New("reward already claimed")
	ErrNoSigningKey          = errors.New("signing key not configured")
	ErrPoolNotFound          = errors.New("pool not found")
	ErrPoolUnderfunded       = errors.New("total fund must cover reward per student times max participants")
	ErrCompanyExists         = errors.New("company with this email or wallet already exists")
	ErrInvalidCredentials    = errors.New("invalid credentials")
)
