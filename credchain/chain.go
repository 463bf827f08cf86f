package credchain

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/hupe1980/s3connect/props"
)

// Source names, in chain order.
const (
	SourceProperties       = "properties"
	SourceEnvironment      = "environment"
	SourceConfig           = "config"
	SourceProfile          = "profile"
	SourceContainer        = "container"
	SourceInstanceMetadata = "instance-metadata"
)

// Options configures Resolve.
type Options struct {
	// Properties are the process-level overrides consulted first.
	Properties props.Properties

	// HTTPClient is used by the container and instance-metadata sources.
	// Nil selects the SDK default.
	HTTPClient aws.HTTPClient

	// OnRetrieve, if set, is called after every Retrieve. source is empty
	// when no source succeeded.
	OnRetrieve func(ctx context.Context, source string, duration time.Duration, err error)
}

// Source is one named entry of a Chain.
type Source struct {
	Name     string
	Provider aws.CredentialsProvider
}

// Chain is an aws.CredentialsProvider trying its sources in order.
// It is safe for concurrent use.
type Chain struct {
	sources    []Source
	onRetrieve func(ctx context.Context, source string, duration time.Duration, err error)
}

// Compile-time check that Chain implements aws.CredentialsProvider.
var _ aws.CredentialsProvider = (*Chain)(nil)

// Resolve builds the credential chain. The explicit pair is included only
// when both values are non-blank. Nothing is read until Retrieve is called.
func Resolve(accessKeyID, secretAccessKey string, optFns ...func(*Options)) *Chain {
	var o Options
	for _, fn := range optFns {
		fn(&o)
	}

	sources := []Source{
		{Name: SourceProperties, Provider: &propertiesProvider{props: o.Properties.Clone()}},
		{Name: SourceEnvironment, Provider: envProvider{}},
	}

	accessKeyID = strings.TrimSpace(accessKeyID)
	secretAccessKey = strings.TrimSpace(secretAccessKey)
	if accessKeyID != "" && secretAccessKey != "" {
		sources = append(sources, Source{
			Name:     SourceConfig,
			Provider: credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		})
	}

	sources = append(sources,
		Source{Name: SourceProfile, Provider: profileProvider{}},
		Source{Name: SourceContainer, Provider: containerProvider{httpClient: o.HTTPClient}},
		Source{Name: SourceInstanceMetadata, Provider: instanceProvider{httpClient: o.HTTPClient}},
	)

	return NewChain(sources, o.OnRetrieve)
}

// NewChain returns a chain over arbitrary sources. onRetrieve may be nil.
func NewChain(sources []Source, onRetrieve func(ctx context.Context, source string, duration time.Duration, err error)) *Chain {
	return &Chain{
		sources:    append([]Source(nil), sources...),
		onRetrieve: onRetrieve,
	}
}

// Sources returns the names of the chain's sources in order.
func (c *Chain) Sources() []string {
	names := make([]string, len(c.sources))
	for i, s := range c.sources {
		names[i] = s.Name
	}
	return names
}

// Retrieve returns the credentials of the first source that succeeds.
func (c *Chain) Retrieve(ctx context.Context) (aws.Credentials, error) {
	start := time.Now()
	errs := make([]error, 0, len(c.sources))

	for _, s := range c.sources {
		if err := ctx.Err(); err != nil {
			c.report(ctx, "", start, err)
			return aws.Credentials{}, err
		}

		creds, err := s.Provider.Retrieve(ctx)
		if err == nil && !creds.HasKeys() {
			err = errMissingKeys
		}
		if err != nil {
			errs = append(errs, &SourceError{Source: s.Name, cause: err})
			continue
		}

		if creds.Source == "" {
			creds.Source = s.Name
		}
		c.report(ctx, s.Name, start, nil)
		return creds, nil
	}

	err := &NoCredentialsError{Errors: errs}
	c.report(ctx, "", start, err)
	return aws.Credentials{}, err
}

func (c *Chain) report(ctx context.Context, source string, start time.Time, err error) {
	if c.onRetrieve != nil {
		c.onRetrieve(ctx, source, time.Since(start), err)
	}
}
