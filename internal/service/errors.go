package service

import "errors"

var (
	ErrValidation          = errors.New("validation failed")
	ErrConflict            = errors.New("conflict")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrUserNotFound        = errors.New("user not found")
	ErrSessionNotFound     = errors.New("quiz session state not found")
	ErrNoQuizData          = errors.New("no quiz data for session")
	ErrNoScore             = errors.New("no score in session")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
