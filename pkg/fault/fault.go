package fault

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUniqueViolation     = errors.New("unique violation")
	ErrForeignKeyViolation = errors.New("restricted for deletion")
	ErrForbidden           = errors.New("access denied")

	ErrInvalidSurvey            = errors.New("invalid survey")
	ErrInactiveSurvey           = errors.New("survey is not active")
	ErrAnswerTooLong            = errors.New("answer exceeds maximum length")
	ErrDuplicateCompanyQuestion = errors.New("only one company question is allowed per survey")
	ErrDuplicateOption          = errors.New("option already exists")
)

type ErrorType int

const (
	ErrClient ErrorType = iota
	ErrInternal
)

// Fault carries a message meant for the person using the survey next to
// the error that caused it.
type Fault struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Fault) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.typeString(), e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.typeString(), e.Message)
}

func (e *Fault) Unwrap() error {
	return e.Err
}

func (e *Fault) typeString() string {
	switch e.Type {
	case ErrClient:
		return "ClientError"
	case ErrInternal:
		return "InternalError"
	default:
		return "UnknownError"
	}
}

// NewClientError reports a mistake the caller can correct.
func NewClientError(msg string, err error) error {
	return &Fault{Type: ErrClient, Message: msg, Err: err}
}

// NewInternalError reports a failure of our own. Its message is never shown.
func NewInternalError(msg string, err error) error {
	return &Fault{Type: ErrInternal, Message: msg, Err: err}
}

func IsClientError(err error) bool {
	return typeOf(err) == ErrClient
}

func IsInternalError(err error) bool {
	return typeOf(err) == ErrInternal
}

// Notice returns the message to surface for err. Client faults give their
// own message, sentinels their text and anything else a generic notice.
func Notice(err error) string {
	var f *Fault
	switch {
	case errors.As(err, &f) && f.Type == ErrClient:
		return f.Message
	case errors.As(err, &f):
		return "something went wrong, please try again"
	}

	for _, sentinel := range []error{ErrNotFound, ErrForbidden, ErrUniqueViolation, ErrForeignKeyViolation} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "something went wrong, please try again"
}

func typeOf(err error) ErrorType {
	var f *Fault
	if errors.As(err, &f) {
		return f.Type
	}
	return -1
}
