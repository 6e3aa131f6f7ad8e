package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyRegistered  = errors.New("already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoSentiment        = errors.New("no sentiment")
	ErrInvalidInput       = errors.New("invalid input")
)
