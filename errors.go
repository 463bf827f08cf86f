package s3connect

import (
	"errors"

	"github.com/hupe1980/s3connect/credchain"
	"github.com/hupe1980/s3connect/stsrole"
)

// IsAuthError reports whether err was caused by failing to obtain
// credentials, either from the credential chain or from the role exchange.
// It sees through the wrapping done by SDK operations.
func IsAuthError(err error) bool {
	return errors.Is(err, credchain.ErrNoCredentials) || errors.Is(err, stsrole.ErrAssumeRole)
}
