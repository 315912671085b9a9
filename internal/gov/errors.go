package gov

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrBoundaryData = errors.New("boundary data unusable")
)
