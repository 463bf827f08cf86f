package stsrole

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// ErrAssumeRole is matched by every error returned from Provider.Retrieve.
var ErrAssumeRole = errors.New("assume role failed")

// AuthError reports a failed role exchange.
//
// The original underlying error can be accessed via errors.Unwrap.
type AuthError struct {
	RoleARN string
	// Code is the STS error code (e.g. AccessDenied), empty for non-API errors.
	Code  string
	cause error
}

func newAuthError(roleARN string, err error) *AuthError {
	e := &AuthError{RoleARN: roleARN, cause: err}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		e.Code = apiErr.ErrorCode()
	}

	return e
}

func (e *AuthError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("assume role %s (code: %s): %v", e.RoleARN, e.Code, e.cause)
	}
	return fmt.Sprintf("assume role %s: %v", e.RoleARN, e.cause)
}

func (e *AuthError) Unwrap() error { return e.cause }

// Is reports whether target is ErrAssumeRole.
func (e *AuthError) Is(target error) bool { return target == ErrAssumeRole }
