// Package region resolves the AWS region through an ordered fallback chain.
//
// Order, first success wins:
//
//  1. system: the aws.region property, then AWS_REGION / AWS_DEFAULT_REGION
//  2. config: the value supplied by application configuration
//  3. profile: region of the active shared config profile
//  4. instance-metadata: region reported by IMDS
//
// Resolve never fails. When every source comes up empty it returns
// DefaultRegion, because S3 clients need a region for request signing even
// when they talk to a non-AWS endpoint.
package region

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"

	"github.com/hupe1980/s3connect/internal/awsenv"
	"github.com/hupe1980/s3connect/props"
)

// DefaultRegion is used when no source yields a region.
const DefaultRegion = "us-east-1"

// Source names.
const (
	SourceSystem           = "system"
	SourceConfig           = "config"
	SourceProfile          = "profile"
	SourceInstanceMetadata = "instance-metadata"
	SourceDefault          = "default"
)

// DefaultIMDSTimeout bounds the instance metadata lookup.
const DefaultIMDSTimeout = time.Second

var (
	// ErrNotFound is returned by Chain.Resolve when no source yields a region.
	ErrNotFound = errors.New("region not found")

	errNotSet          = errors.New("not set")
	errMalformed       = errors.New("malformed region")
	errInstanceMetaOff = errors.New("instance metadata service disabled")
)

// regionPattern accepts AWS names (us-gov-west-1) and the shapes used by
// S3-compatible stores: fr-par, us-west-004, nyc3.
var regionPattern = regexp.MustCompile(`^(?:[a-z]{2}(?:-[a-z]+)+(?:-\d{1,3})?|[a-z]{3}\d{1,2})$`)

// pseudoRegions are accepted by S3-compatible stores that ignore regions (Cloudflare R2).
var pseudoRegions = map[string]bool{"auto": true}

// Parse validates a region name. Malformed or blank input reports false.
func Parse(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if pseudoRegions[s] || regionPattern.MatchString(s) {
		return s, true
	}
	return "", false
}

// Result is a resolved region and the source that produced it.
type Result struct {
	Region string
	Source string
}

// Provider yields a region or an error meaning "absent".
type Provider interface {
	Region(ctx context.Context) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (string, error)

// Region implements Provider.
func (f ProviderFunc) Region(ctx context.Context) (string, error) { return f(ctx) }

// Source is one named entry of a Chain.
type Source struct {
	Name     string
	Provider Provider
}

// Chain tries its sources in order.
type Chain struct {
	sources []Source
}

// NewChain returns a chain over sources.
func NewChain(sources ...Source) *Chain {
	return &Chain{sources: append([]Source(nil), sources...)}
}

// Resolve returns the first valid region. Values failing Parse count as absent.
func (c *Chain) Resolve(ctx context.Context) (Result, error) {
	var errs []error
	for _, s := range c.sources {
		raw, err := s.Provider.Region(ctx)
		if err == nil {
			r, ok := Parse(raw)
			if ok {
				return Result{Region: r, Source: s.Name}, nil
			}
			err = fmt.Errorf("%w: %q", errMalformed, raw)
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
	}
	return Result{}, fmt.Errorf("%w: %w", ErrNotFound, errors.Join(errs...))
}

// Options configures Resolve.
type Options struct {
	Properties  props.Properties
	HTTPClient  aws.HTTPClient
	IMDSTimeout time.Duration
}

// Resolve resolves the effective region for a configured value. It falls back
// to DefaultRegion and never returns an error.
func Resolve(ctx context.Context, configured string, optFns ...func(*Options)) Result {
	o := Options{IMDSTimeout: DefaultIMDSTimeout}
	for _, fn := range optFns {
		fn(&o)
	}

	chain := NewChain(
		Source{Name: SourceSystem, Provider: systemProvider(o.Properties)},
		Source{Name: SourceConfig, Provider: ProviderFunc(func(context.Context) (string, error) {
			if configured == "" {
				return "", errNotSet
			}
			return configured, nil
		})},
		Source{Name: SourceProfile, Provider: ProviderFunc(profileRegion)},
		Source{Name: SourceInstanceMetadata, Provider: imdsProvider(o.HTTPClient, o.IMDSTimeout)},
	)

	res, err := chain.Resolve(ctx)
	if err != nil {
		return Result{Region: DefaultRegion, Source: SourceDefault}
	}
	return res
}

func systemProvider(p props.Properties) Provider {
	return ProviderFunc(func(context.Context) (string, error) {
		if v, ok := p.Lookup(props.Region); ok {
			if r, ok := Parse(v); ok {
				return r, nil
			}
		}
		env, err := awsenv.Load()
		if err != nil {
			return "", err
		}
		if env.Region == "" {
			return "", errNotSet
		}
		return env.Region, nil
	})
}

func profileRegion(ctx context.Context) (string, error) {
	env, err := awsenv.Load()
	if err != nil {
		return "", err
	}
	sc, err := awsenv.LoadProfile(ctx, env)
	if err != nil {
		return "", err
	}
	if sc.Region == "" {
		return "", errNotSet
	}
	return sc.Region, nil
}

func imdsProvider(httpClient aws.HTTPClient, timeout time.Duration) Provider {
	return ProviderFunc(func(ctx context.Context) (string, error) {
		env, err := awsenv.Load()
		if err != nil {
			return "", err
		}
		if env.EC2IMDSClientEnableState == imds.ClientDisabled {
			return "", errInstanceMetaOff
		}

		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		out, err := awsenv.NewIMDSClient(env, httpClient).GetRegion(ctx, &imds.GetRegionInput{})
		if err != nil {
			return "", err
		}
		return out.Region, nil
	})
}
