package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrOutOfOrderBar       = errors.New("out of order bar")
	ErrInvalidBar          = errors.New("invalid bar")
	ErrInsufficientHistory = errors.New("insufficient history")
	ErrUnknownStrategy     = errors.New("unknown strategy")
)
