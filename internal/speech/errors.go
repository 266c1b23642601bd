package speech

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEngineConfigured indicates no speech engine has been selected.
	ErrNoEngineConfigured = errors.New("no speech engine configured - specify --tts gtts, piper or mock")

	// ErrInvalidEngine indicates an unknown engine was specified.
	ErrInvalidEngine = errors.New("invalid speech engine specified")

	// ErrEmptyText indicates there is nothing to read.
	ErrEmptyText = errors.New("nothing to read")

	// ErrTextTooLong indicates the text exceeds the engine limit.
	ErrTextTooLong = errors.New("text too long")

	// ErrNoVoices indicates the engine offers no voices.
	ErrNoVoices = errors.New("no voices available")
)

// ErrorCode classifies speech failures.
type ErrorCode string

const (
	ErrorCodeEngineUnavailable ErrorCode = "ENGINE_UNAVAILABLE"
	ErrorCodeSynthesis         ErrorCode = "SYNTHESIS"
	ErrorCodeTimeout           ErrorCode = "TIMEOUT"
	ErrorCodeAudio             ErrorCode = "AUDIO"
	ErrorCodeInvalidInput      ErrorCode = "INVALID_INPUT"
)

// Error is a speech failure with a code and an underlying cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// NewError returns an Error.
func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether trying again may succeed.
func (e *Error) IsRetryable() bool {
	return e.Code == ErrorCodeTimeout
}

// CodeOf returns the ErrorCode in err's chain, or "" if there is none.
func CodeOf(err error) ErrorCode {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
