package domain

import "errors"

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrAlreadyInitialized  = errors.New("pool already initialized")
	ErrNotInitialized      = errors.New("pool not initialized")
	ErrPoolInactive        = errors.New("pool inactive")
	ErrPoolPaused          = errors.New("pool paused")
	ErrNotPaused           = errors.New("pool not paused")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrMinimumStakeNotMet  = errors.New("minimum stake not met")
	ErrNoYieldAvailable    = errors.New("no yield available")
	ErrYieldNotYetDue      = errors.New("yield distribution not yet available")
	ErrOverflow            = errors.New("arithmetic overflow")
	ErrMintFailed          = errors.New("mint failed")
	ErrBurnFailed          = errors.New("burn failed")
	ErrNotFound            = errors.New("not found")
)
