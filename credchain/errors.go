package credchain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoCredentials is matched by the error returned when every source fails.
	ErrNoCredentials = errors.New("no valid credentials found in chain")

	errMissingKeys = errors.New("source returned credentials without keys")
)

// SourceError records the failure of one chain source.
//
// The original underlying error can be accessed via errors.Unwrap.
type SourceError struct {
	Source string
	cause  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.cause)
}

func (e *SourceError) Unwrap() error { return e.cause }

// NoCredentialsError is returned when no source in the chain succeeds.
// It unwraps to one *SourceError per attempted source.
type NoCredentialsError struct {
	Errors []error
}

func (e *NoCredentialsError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%s: [%s]", ErrNoCredentials, strings.Join(msgs, "; "))
}

func (e *NoCredentialsError) Unwrap() []error { return e.Errors }

// Is reports whether target is ErrNoCredentials.
func (e *NoCredentialsError) Is(target error) bool { return target == ErrNoCredentials }
