// Package awsenv loads the AWS SDK environment conventions shared by the
// credential and region chains.
//
// Every function reads the process environment at call time. Nothing is
// cached, so a chain built at startup still observes variables exported
// later (container agents inject them lazily).
package awsenv

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
)

// DefaultProfile is the shared config profile used when AWS_PROFILE is unset.
const DefaultProfile = "default"

// Load returns the SDK environment configuration (AWS_* variables).
func Load() (config.EnvConfig, error) {
	return config.NewEnvConfig()
}

// Profile returns the shared config profile selected by the environment.
func Profile(env config.EnvConfig) string {
	if env.SharedConfigProfile != "" {
		return env.SharedConfigProfile
	}
	return DefaultProfile
}

// SharedFiles points shared config loading at the files named by
// AWS_SHARED_CREDENTIALS_FILE and AWS_CONFIG_FILE, if set.
func SharedFiles(env config.EnvConfig) func(*config.LoadSharedConfigOptions) {
	return func(o *config.LoadSharedConfigOptions) {
		if env.SharedCredentialsFile != "" {
			o.CredentialsFiles = []string{env.SharedCredentialsFile}
		}
		if env.SharedConfigFile != "" {
			o.ConfigFiles = []string{env.SharedConfigFile}
		}
	}
}

// LoadProfile loads the active shared config profile.
func LoadProfile(ctx context.Context, env config.EnvConfig) (config.SharedConfig, error) {
	return config.LoadSharedConfigProfile(ctx, Profile(env), SharedFiles(env))
}

// NewIMDSClient returns an instance metadata client honouring
// AWS_EC2_METADATA_DISABLED, AWS_EC2_METADATA_SERVICE_ENDPOINT and
// AWS_EC2_METADATA_SERVICE_ENDPOINT_MODE. httpClient may be nil.
func NewIMDSClient(env config.EnvConfig, httpClient aws.HTTPClient) *imds.Client {
	return imds.New(imds.Options{
		Endpoint:          env.EC2IMDSEndpoint,
		EndpointMode:      env.EC2IMDSEndpointMode,
		ClientEnableState: env.EC2IMDSClientEnableState,
		HTTPClient:        httpClient,
	})
}
