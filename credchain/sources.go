package credchain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials/ec2rolecreds"
	"github.com/aws/aws-sdk-go-v2/credentials/endpointcreds"
	"github.com/aws/aws-sdk-go-v2/credentials/processcreds"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"

	"github.com/hupe1980/s3connect/internal/awsenv"
	"github.com/hupe1980/s3connect/props"
)

const (
	containerRelativeURIEnv = "AWS_CONTAINER_CREDENTIALS_RELATIVE_URI"
	containerFullURIEnv     = "AWS_CONTAINER_CREDENTIALS_FULL_URI"
	containerTokenEnv       = "AWS_CONTAINER_AUTHORIZATION_TOKEN"
	containerTokenFileEnv   = "AWS_CONTAINER_AUTHORIZATION_TOKEN_FILE"

	// ECS task metadata host used with relative URIs.
	containerHost = "http://169.254.170.2"
)

var (
	errPropertiesNotSet      = errors.New("aws.accessKeyId and aws.secretAccessKey properties not set")
	errEnvNotSet             = errors.New("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY not set")
	errContainerNotSet       = errors.New("container credential endpoint not set")
	errInstanceMetadataOff   = errors.New("instance metadata service disabled")
	errContainerHostRejected = errors.New("container credential endpoint must use https or a loopback host")
)

// allowedContainerHosts may be reached over plain http besides loopback.
var allowedContainerHosts = map[string]bool{
	"169.254.170.2":  true, // ECS
	"169.254.170.23": true, // EKS pod identity
	"fd00:ec2::23":   true,
}

type propertiesProvider struct {
	props props.Properties
}

func (p *propertiesProvider) Retrieve(context.Context) (aws.Credentials, error) {
	id, ok := p.props.Lookup(props.AccessKeyID)
	if !ok {
		return aws.Credentials{}, errPropertiesNotSet
	}
	secret, ok := p.props.Lookup(props.SecretAccessKey)
	if !ok {
		secret, ok = p.props.Lookup(props.SecretKey)
	}
	if !ok {
		return aws.Credentials{}, errPropertiesNotSet
	}
	token, _ := p.props.Lookup(props.SessionToken)

	return aws.Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    token,
		Source:          SourceProperties,
	}, nil
}

type envProvider struct{}

func (envProvider) Retrieve(context.Context) (aws.Credentials, error) {
	env, err := awsenv.Load()
	if err != nil {
		return aws.Credentials{}, err
	}
	if !env.Credentials.HasKeys() {
		return aws.Credentials{}, errEnvNotSet
	}
	return env.Credentials, nil
}

type profileProvider struct{}

func (profileProvider) Retrieve(ctx context.Context) (aws.Credentials, error) {
	env, err := awsenv.Load()
	if err != nil {
		return aws.Credentials{}, err
	}

	sc, err := awsenv.LoadProfile(ctx, env)
	if err != nil {
		return aws.Credentials{}, err
	}

	switch {
	case sc.Credentials.HasKeys():
		return sc.Credentials, nil
	case sc.CredentialProcess != "":
		return processcreds.NewProvider(sc.CredentialProcess).Retrieve(ctx)
	default:
		return aws.Credentials{}, fmt.Errorf("profile %q has neither static keys nor credential_process", awsenv.Profile(env))
	}
}

type containerProvider struct {
	httpClient aws.HTTPClient
}

func (p containerProvider) Retrieve(ctx context.Context) (aws.Credentials, error) {
	endpoint, err := containerEndpoint()
	if err != nil {
		return aws.Credentials{}, err
	}

	token, err := containerToken()
	if err != nil {
		return aws.Credentials{}, err
	}

	provider := endpointcreds.New(endpoint, func(o *endpointcreds.Options) {
		if p.httpClient != nil {
			o.HTTPClient = p.httpClient
		}
		o.AuthorizationToken = token
	})

	return provider.Retrieve(ctx)
}

func containerEndpoint() (string, error) {
	if rel := os.Getenv(containerRelativeURIEnv); rel != "" {
		return containerHost + rel, nil
	}

	full := os.Getenv(containerFullURIEnv)
	if full == "" {
		return "", errContainerNotSet
	}

	u, err := url.Parse(full)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", containerFullURIEnv, err)
	}
	if u.Scheme == "https" {
		return full, nil
	}

	host := u.Hostname()
	if host == "localhost" || allowedContainerHosts[host] {
		return full, nil
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return full, nil
	}

	return "", fmt.Errorf("%w: %s", errContainerHostRejected, host)
}

func containerToken() (string, error) {
	if path := os.Getenv(containerTokenFileEnv); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", containerTokenFileEnv, err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	return os.Getenv(containerTokenEnv), nil
}

type instanceProvider struct {
	httpClient aws.HTTPClient
}

func (p instanceProvider) Retrieve(ctx context.Context) (aws.Credentials, error) {
	env, err := awsenv.Load()
	if err != nil {
		return aws.Credentials{}, err
	}
	if env.EC2IMDSClientEnableState == imds.ClientDisabled {
		return aws.Credentials{}, errInstanceMetadataOff
	}

	provider := ec2rolecreds.New(func(o *ec2rolecreds.Options) {
		o.Client = awsenv.NewIMDSClient(env, p.httpClient)
	})

	return provider.Retrieve(ctx)
}
