package pool

import "errors"

var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("name or PIN incorrect")
	ErrNameTaken          = errors.New("that name is already taken in this pool")
	ErrRateLimited        = errors.New("too many sign-in attempts, try again shortly")

	ErrPoolLocked    = errors.New("pool is no longer accepting predictions")
	ErrPoolFinished  = errors.New("pool is finished")
	ErrPoolNotLocked = errors.New("lock the pool before entering results")

	ErrNotFound = errors.New("not found")
)
