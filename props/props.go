// Package props carries process-level override properties.
//
// The embedding process decides the values (from flags, a vault, a test).
// They take precedence over the environment in both the credential and the
// region chain.
package props

import "strings"

// Well-known property names.
const (
	AccessKeyID     = "aws.accessKeyId"
	SecretAccessKey = "aws.secretAccessKey"
	// SecretKey is the legacy alias of SecretAccessKey.
	SecretKey    = "aws.secretKey"
	SessionToken = "aws.sessionToken"
	Region       = "aws.region"
)

// Properties is an immutable-by-convention set of override properties.
// A nil Properties is valid and empty.
type Properties map[string]string

// Lookup returns the trimmed value of key and whether it is non-blank.
func (p Properties) Lookup(key string) (string, bool) {
	v := strings.TrimSpace(p[key])
	return v, v != ""
}

// Clone returns a copy that does not share storage with p.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	c := make(Properties, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}
