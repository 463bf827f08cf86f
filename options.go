package s3connect

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hupe1980/s3connect/props"
)

type options struct {
	logger        *Logger
	metrics       MetricsCollector
	httpClient    aws.HTTPClient
	properties    props.Properties
	clientOptions []func(*s3.Options)
	roleClient    stscreds.AssumeRoleAPIClient
}

func defaultOptions() options {
	return options{}.withDefaults()
}

// withDefaults fills in what a zero Builder leaves unset.
func (o options) withDefaults() options {
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metrics == nil {
		o.metrics = NoopMetricsCollector{}
	}
	return o
}

// Option configures New.
type Option func(*options)

// WithLogger sets the structured logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector.
// If nil is passed, NoopMetricsCollector is used.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithHTTPClient sets the HTTP client shared by the S3 client, the STS
// client and the container/instance metadata credential sources.
func WithHTTPClient(c aws.HTTPClient) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithProperties supplies process-level settings (see the props package)
// that take precedence over environment variables. The map is copied.
func WithProperties(p props.Properties) Option {
	return func(o *options) {
		o.properties = p.Clone()
	}
}

// WithClientOptions appends functions applied to every s3.Options after the
// resolved configuration.
//
// Example:
//
//	s3connect.New(s3connect.WithClientOptions(func(o *s3.Options) {
//	    o.RetryMaxAttempts = 5
//	}))
func WithClientOptions(fns ...func(*s3.Options)) Option {
	return func(o *options) {
		o.clientOptions = append(o.clientOptions[:len(o.clientOptions):len(o.clientOptions)], fns...)
	}
}

// WithRoleClient overrides the STS client used for role exchange.
func WithRoleClient(c stscreds.AssumeRoleAPIClient) Option {
	return func(o *options) {
		o.roleClient = c
	}
}
