package stsrole

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// DefaultSessionName is used when no session name is configured.
const DefaultSessionName = "s3connect"

// Options configures Exchange.
type Options struct {
	// Client overrides the STS client. Nil builds one for the given region,
	// authenticated by the base credentials.
	Client stscreds.AssumeRoleAPIClient

	// HTTPClient is used by the default STS client.
	HTTPClient aws.HTTPClient

	// Duration requested for the role session. Zero leaves the STS default.
	Duration time.Duration

	// ExpiryWindow and RetryInterval are passed to the refresh cache.
	ExpiryWindow  time.Duration
	RetryInterval time.Duration

	// OnRefresh, if set, is called after every AssumeRole attempt.
	OnRefresh func(ctx context.Context, duration time.Duration, err error)

	// Clock overrides the cache clock, mainly for tests.
	Clock func() time.Time
}

// Provider yields temporary credentials for a role.
type Provider struct {
	roleARN     string
	sessionName string
	region      string
	cache       *Cache
}

// Compile-time check that Provider implements aws.CredentialsProvider.
var _ aws.CredentialsProvider = (*Provider)(nil)

// Exchange returns a provider that assumes roleARN using base as the caller
// identity. A blank sessionName selects DefaultSessionName. No request is
// made until the first Retrieve.
func Exchange(base aws.CredentialsProvider, roleARN, sessionName, region string, optFns ...func(*Options)) *Provider {
	var o Options
	for _, fn := range optFns {
		fn(&o)
	}

	if strings.TrimSpace(sessionName) == "" {
		sessionName = DefaultSessionName
	}

	client := o.Client
	if client == nil {
		stsOpts := sts.Options{
			Region:      region,
			Credentials: base,
		}
		if o.HTTPClient != nil {
			stsOpts.HTTPClient = o.HTTPClient
		}
		client = sts.New(stsOpts)
	}

	assume := stscreds.NewAssumeRoleProvider(client, roleARN, func(ao *stscreds.AssumeRoleOptions) {
		ao.RoleSessionName = sessionName
		if o.Duration > 0 {
			ao.Duration = o.Duration
		}
	})

	return &Provider{
		roleARN:     roleARN,
		sessionName: sessionName,
		region:      region,
		cache: NewCache(assume, func(co *CacheOptions) {
			co.ExpiryWindow = o.ExpiryWindow
			co.RetryInterval = o.RetryInterval
			co.OnRefresh = o.OnRefresh
			co.Clock = o.Clock
		}),
	}
}

// RoleARN returns the role being assumed.
func (p *Provider) RoleARN() string { return p.roleARN }

// SessionName returns the effective role session name.
func (p *Provider) SessionName() string { return p.sessionName }

// Region returns the region of the STS endpoint.
func (p *Provider) Region() string { return p.region }

// Retrieve returns temporary credentials, assuming the role when needed.
// Errors match ErrAssumeRole and unwrap to *AuthError, except cancellation
// and deadline errors, which are returned as is.
func (p *Provider) Retrieve(ctx context.Context) (aws.Credentials, error) {
	creds, err := p.cache.Retrieve(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return aws.Credentials{}, err
		}
		return aws.Credentials{}, newAuthError(p.roleARN, err)
	}

	return creds, nil
}

// Invalidate forces the next Retrieve to assume the role again.
func (p *Provider) Invalidate() { p.cache.Invalidate() }
