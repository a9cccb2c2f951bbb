package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrRateLimited        = errors.New("rate limited")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidOrder       = errors.New("invalid order parameters")
	ErrOrderRejected      = errors.New("order rejected")
	ErrSigningFailed      = errors.New("signing failed")
	ErrProtocol           = errors.New("unexpected response shape")
	ErrScannerRunning     = errors.New("scanner already running")
	ErrScannerStopped     = errors.New("scanner not running")
	ErrUnparseableBracket = errors.New("unparseable bracket label")
)
