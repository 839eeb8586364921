// Copyright 2025 GOVRES Settlement Authority
//
// Database package errors

package database

import "errors"

// Common errors for the database package
var (
	ErrNilConfig       = errors.New("config cannot be nil")
	ErrEmptyURL        = errors.New("database URL cannot be empty")
	ErrAccountNotFound = errors.New("account not found")
	ErrBlockNotFound   = errors.New("block not found")
)
