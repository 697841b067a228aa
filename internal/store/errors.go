package store

import "errors"

var (
	ErrVisitorNotFound = errors.New("visitor not found")
	ErrStatusChanged   = errors.New("visitor status changed concurrently")
)
