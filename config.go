package s3connect

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hupe1980/s3connect/stsrole"
)

// ClientConfig is the resolved configuration of one client.
// Region is never empty.
type ClientConfig struct {
	Region       string
	RegionSource string
	Credentials  aws.CredentialsProvider

	// Endpoint is passed verbatim as the base endpoint. Empty selects the
	// AWS endpoint of Region.
	Endpoint     string
	UsePathStyle bool

	// DisableChecksumValidation limits checksums to operations that require
	// them. Many S3-compatible stores reject the newer defaults.
	DisableChecksumValidation bool

	HTTPClient aws.HTTPClient

	clientOptions []func(*s3.Options)
}

// RoleARN returns the assumed role, or "" when base credentials are used.
func (c ClientConfig) RoleARN() string {
	if p, ok := c.Credentials.(*stsrole.Provider); ok {
		return p.RoleARN()
	}
	return ""
}

// AWSConfig returns an aws.Config carrying region, credentials and HTTP client.
func (c ClientConfig) AWSConfig() aws.Config {
	cfg := aws.Config{
		Region:      c.Region,
		Credentials: c.Credentials,
	}
	if c.HTTPClient != nil {
		cfg.HTTPClient = c.HTTPClient
	}
	if c.DisableChecksumValidation {
		cfg.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		cfg.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	}
	return cfg
}

// NewClient builds an S3 client. optFns are applied last.
func (c ClientConfig) NewClient(optFns ...func(*s3.Options)) *s3.Client {
	fns := make([]func(*s3.Options), 0, 1+len(c.clientOptions)+len(optFns))
	fns = append(fns, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
		o.UsePathStyle = c.UsePathStyle
	})
	fns = append(fns, c.clientOptions...)
	fns = append(fns, optFns...)

	return s3.NewFromConfig(c.AWSConfig(), fns...)
}
