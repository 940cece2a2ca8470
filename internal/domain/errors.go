package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrRateLimited        = errors.New("rate limited")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInsufficientShares = errors.New("insufficient share balance")
	ErrAllowanceUnknown   = errors.New("allowance not yet known")
	ErrMarketNotTradable  = errors.New("market not tradable")
	ErrTxFailed           = errors.New("transaction reverted")
)
