package errors

import "github.com/pkg/errors"

var (
	// connection errors
	ErrConnectionLost    = errors.New("mailbox connection lost")
	ErrConnectionTimeout = errors.New("connection timeout")

	// run errors
	ErrRunInProgress = errors.New("a classification run is already in progress")
	ErrNoActiveRun   = errors.New("no classification run in progress")

	// rule errors
	ErrInvalidRuleFormat = errors.New("invalid rule file format: expected a list")
	ErrInvalidRule       = errors.New("invalid rule")

	// folder and action errors
	ErrFolderCreation    = errors.New("folder creation failed")
	ErrFolderUnavailable = errors.New("folder unavailable")
	ErrActionFailed      = errors.New("action failed")
)
