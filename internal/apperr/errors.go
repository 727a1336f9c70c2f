package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrEmptyQuery   = errors.New("query is empty")
	ErrNoCredential = errors.New("oracle credential not configured")
	ErrEmptyGraph   = errors.New("no graph loaded")
)
