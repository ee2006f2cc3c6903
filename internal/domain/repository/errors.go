package repository

import "errors"

var (
	// ErrSignalNotFound is returned when a signal id does not exist.
	ErrSignalNotFound = errors.New("signal not found")

	// ErrAlreadyEvaluated is returned when an outcome update targets a
	// signal that already carries one. Evaluation is set-once.
	ErrAlreadyEvaluated = errors.New("signal already evaluated")

	// ErrSignalRejected is returned when an outcome update targets a
	// rejected signal. Rejected signals never receive outcomes.
	ErrSignalRejected = errors.New("rejected signal cannot be evaluated")
)
