package domain

import "errors"

var (
	// ErrNotReady is returned by every data operation when the data service
	// handle is unset or the identity is missing. No network call is made.
	ErrNotReady      = errors.New("data service not ready or user id missing")
	ErrNotFound      = errors.New("project not found")
	ErrMissingFields = errors.New("title, description and technologies are required")
)
