package errors

import "errors"

// Error messages.
var (
	ErrInvalidLanguageType       = errors.New("invalid language type")
	ErrInvalidVersion            = errors.New("invalid version supplied")
	ErrInvalidSubmission         = errors.New("invalid submission")
	ErrCompilationFailed         = errors.New("compilation failed")
	ErrToolchainUnavailable      = errors.New("compiler toolchain unavailable")
	ErrProblemNotFound           = errors.New("problem not found")
	ErrUnknownAcceptanceCriteria = errors.New("unknown acceptance criteria")
	ErrMissingUser               = errors.New("user id is required for submit")
	ErrFailedToGetFreeWorker     = errors.New("failed to get free worker")
	ErrUnknownMessageType        = errors.New("unknown message type")
	ErrContainerTimeout          = errors.New("container runtime timed out")
	ErrContainerFailed           = errors.New("container failed to execute")
	ErrFailedToStoreSubmission   = errors.New("failed to store the submission record")
	ErrFailedToPublishSubmission = errors.New("failed to publish submission event")
	ErrResponderClosed           = errors.New("responder is closed")
	ErrJudgeAborted              = errors.New("judge invocation aborted")
	ErrInvalidProblemPackage     = errors.New("invalid problem package")
)
