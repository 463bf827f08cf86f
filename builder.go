package s3connect

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hupe1980/s3connect/credchain"
	"github.com/hupe1980/s3connect/object"
	"github.com/hupe1980/s3connect/region"
	"github.com/hupe1980/s3connect/stsrole"
)

// Builder is an immutable fluent builder for S3 clients.
// Each method returns a new builder with the updated configuration, so a
// builder can be shared and derived from safely.
//
// Example:
//
//	client, err := s3connect.New().
//	    Endpoint("http://localhost:9000").
//	    AccessKeyID("minioadmin").
//	    SecretAccessKey("minioadmin").
//	    Build(ctx)
type Builder struct {
	endpoint        string
	region          string
	accessKeyID     string
	secretAccessKey string
	stsRoleARN      string
	stsSessionName  string
	stsRegion       string
	opts            options
}

// New returns an empty builder.
func New(opts ...Option) Builder {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return Builder{opts: o}
}

// EndpointURI sets a non-AWS endpoint. Nil clears it.
func (b Builder) EndpointURI(u *url.URL) Builder {
	if u == nil {
		b.endpoint = ""
		return b
	}
	b.endpoint = u.String()
	return b
}

// Endpoint sets a non-AWS endpoint such as http://localhost:9000.
// Setting an endpoint switches the client to path-style addressing.
func (b Builder) Endpoint(endpoint string) Builder {
	b.endpoint = strings.TrimSpace(endpoint)
	return b
}

// Region sets the configured region. Malformed values are ignored at
// resolution time.
func (b Builder) Region(r string) Builder {
	b.region = r
	return b
}

// AccessKeyID sets the configured access key ID.
func (b Builder) AccessKeyID(id string) Builder {
	b.accessKeyID = id
	return b
}

// SecretAccessKey sets the configured secret access key.
func (b Builder) SecretAccessKey(secret string) Builder {
	b.secretAccessKey = secret
	return b
}

// STSRoleARN sets a role to assume with the resolved base credentials.
func (b Builder) STSRoleARN(arn string) Builder {
	b.stsRoleARN = arn
	return b
}

// STSSessionName sets the role session name.
// Default: stsrole.DefaultSessionName.
func (b Builder) STSSessionName(name string) Builder {
	b.stsSessionName = name
	return b
}

// STSRegion sets the region of the STS endpoint.
// Default: the effective client region.
func (b Builder) STSRegion(r string) Builder {
	b.stsRegion = r
	return b
}

// ForObject overlays the non-empty connection fields of loc.
func (b Builder) ForObject(loc *object.Locator) Builder {
	if loc == nil {
		return b
	}
	if loc.Endpoint != "" {
		b = b.Endpoint(loc.Endpoint)
	}
	if loc.Region != "" {
		b.region = loc.Region
	}
	if loc.AccessKeyID.IsSet() {
		b.accessKeyID = loc.AccessKeyID.Reveal()
	}
	if loc.SecretAccessKey.IsSet() {
		b.secretAccessKey = loc.SecretAccessKey.Reveal()
	}
	if loc.STSRoleARN != "" {
		b.stsRoleARN = loc.STSRoleARN
	}
	if loc.STSSessionName != "" {
		b.stsSessionName = loc.STSSessionName
	}
	if loc.STSRegion != "" {
		b.stsRegion = loc.STSRegion
	}
	return b
}

// Config resolves region and credentials. Credential sources are not
// contacted until the first request signs.
func (b Builder) Config(ctx context.Context) ClientConfig {
	b.opts = b.opts.withDefaults()

	res := region.Resolve(ctx, b.region, func(o *region.Options) {
		o.Properties = b.opts.properties
		o.HTTPClient = b.opts.httpClient
	})
	b.opts.metrics.RecordRegionResolve(res.Source)
	b.opts.logger.LogRegionResolved(ctx, res.Region, res.Source)

	var creds aws.CredentialsProvider = credchain.Resolve(b.accessKeyID, b.secretAccessKey, func(o *credchain.Options) {
		o.Properties = b.opts.properties
		o.HTTPClient = b.opts.httpClient
		o.OnRetrieve = func(ctx context.Context, source string, d time.Duration, err error) {
			b.opts.metrics.RecordCredentialRetrieve(source, d, err)
			b.opts.logger.LogCredentialRetrieve(ctx, source, d, err)
		}
	})

	if roleARN := strings.TrimSpace(b.stsRoleARN); roleARN != "" {
		stsRegion := res.Region
		if r, ok := region.Parse(b.stsRegion); ok {
			stsRegion = r
		}

		creds = stsrole.Exchange(creds, roleARN, b.stsSessionName, stsRegion, func(o *stsrole.Options) {
			o.Client = b.opts.roleClient
			o.HTTPClient = b.opts.httpClient
			o.OnRefresh = func(ctx context.Context, d time.Duration, err error) {
				b.opts.metrics.RecordRoleRefresh(d, err)
				b.opts.logger.LogRoleRefresh(ctx, roleARN, d, err)
			}
		})
	}

	return ClientConfig{
		Region:                    res.Region,
		RegionSource:              res.Source,
		Credentials:               creds,
		Endpoint:                  b.endpoint,
		UsePathStyle:              b.endpoint != "",
		DisableChecksumValidation: true,
		HTTPClient:                b.opts.httpClient,
		clientOptions:             b.opts.clientOptions,
	}
}

// Build resolves the configuration and returns a new client. It fails only
// when ctx is done; credential problems surface on the first request.
func (b Builder) Build(ctx context.Context) (*s3.Client, error) {
	_, client, err := b.build(ctx)
	return client, err
}

// build returns the client together with the configuration it was built from.
func (b Builder) build(ctx context.Context) (ClientConfig, *s3.Client, error) {
	if err := ctx.Err(); err != nil {
		return ClientConfig{}, nil, err
	}

	b.opts = b.opts.withDefaults()

	start := time.Now()
	cfg := b.Config(ctx)
	if err := ctx.Err(); err != nil {
		return ClientConfig{}, nil, err
	}

	client := cfg.NewClient()

	d := time.Since(start)
	b.opts.metrics.RecordClientBuild(d)
	b.opts.logger.LogClientBuilt(ctx, cfg, d)

	return cfg, client, nil
}
