// Command s3probe checks that an object is reachable with the connection
// settings taken from the environment.
//
// Settings are read from S3PROBE_* variables; a .env file in the working
// directory is loaded first when present:
//
//	S3PROBE_ENDPOINT=http://localhost:9000
//	S3PROBE_ACCESS_KEY_ID=minioadmin
//	S3PROBE_SECRET_ACCESS_KEY=minioadmin
//	S3PROBE_BUCKET=images
//	S3PROBE_KEY=cat.jpg
//
// S3PROBE_WHOAMI=true additionally prints the caller identity reported by STS
// (S3PROBE_STS_ENDPOINT overrides its endpoint). The identity call signs with
// the same credentials as the HEAD request, so an assumed role is assumed once.
//
// The probe resolves credentials and region like any other s3connect client,
// issues a single HEAD request and prints the resulting object locator with
// its length filled in. Exit status is 2 when no usable credentials were
// found and 1 on any other failure.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/s3connect"
	"github.com/hupe1980/s3connect/object"
	s3prom "github.com/hupe1980/s3connect/prometheus"
)

const envPrefix = "S3PROBE_"

type config struct {
	Endpoint        string        `env:"ENDPOINT"`
	Region          string        `env:"REGION"`
	AccessKeyID     string        `env:"ACCESS_KEY_ID"`
	SecretAccessKey string        `env:"SECRET_ACCESS_KEY"`
	RoleARN         string        `env:"ROLE_ARN"`
	SessionName     string        `env:"SESSION_NAME"`
	STSRegion       string        `env:"STS_REGION"`
	Bucket          string        `env:"BUCKET,required"`
	Key             string        `env:"KEY,required"`
	WhoAmI          bool          `env:"WHOAMI"`
	STSEndpoint     string        `env:"STS_ENDPOINT"`
	Timeout         time.Duration `env:"TIMEOUT" envDefault:"30s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON         bool          `env:"LOG_JSON"`
	MetricsFile     string        `env:"METRICS_FILE"`
}

func loadConfig(environ map[string]string) (config, error) {
	var cfg config
	if err := env.ParseWithOptions(&cfg, env.Options{
		Environment: environ,
		Prefix:      envPrefix,
	}); err != nil {
		return config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (c config) locator() *object.Locator {
	loc := object.New(c.Bucket, c.Key)
	loc.Endpoint = c.Endpoint
	loc.Region = c.Region
	loc.AccessKeyID = object.Secret(c.AccessKeyID)
	loc.SecretAccessKey = object.Secret(c.SecretAccessKey)
	loc.STSRoleARN = c.RoleARN
	loc.STSSessionName = c.SessionName
	loc.STSRegion = c.STSRegion
	return loc
}

func newLogger(w io.Writer, c config) (*s3connect.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.LogJSON {
		return s3connect.NewLogger(slog.NewJSONHandler(w, opts)), nil
	}
	return s3connect.NewLogger(slog.NewTextHandler(w, opts)), nil
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "s3probe:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, env.ToMap(os.Environ()), os.Stdout, os.Stderr)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "s3probe:", err)
		if s3connect.IsAuthError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, environ map[string]string, stdout, stderr io.Writer, opts ...s3connect.Option) error {
	cfg, err := loadConfig(environ)
	if err != nil {
		return err
	}

	logger, err := newLogger(stderr, cfg)
	if err != nil {
		return err
	}

	loc := cfg.locator()
	if err := loc.Validate(); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	mc, err := s3prom.New(reg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	base := s3connect.New(append([]s3connect.Option{
		s3connect.WithLogger(logger),
		s3connect.WithMetricsCollector(mc),
	}, opts...)...)

	probeErr := probe(ctx, base, loc, cfg, stdout, logger)

	if cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, reg); err != nil {
			return errors.Join(probeErr, fmt.Errorf("write metrics: %w", err))
		}
	}

	return probeErr
}

func probe(ctx context.Context, base s3connect.Builder, loc *object.Locator, cfg config, w io.Writer, logger *s3connect.Logger) error {
	logger = logger.WithObject(loc)
	pool := s3connect.NewPool(base)

	if cfg.WhoAmI {
		clientCfg, err := pool.Config(ctx, loc)
		if err != nil {
			return err
		}
		if err := callerIdentity(ctx, clientCfg, cfg.STSEndpoint, w); err != nil {
			return err
		}
	}

	client, err := pool.Client(ctx, loc)
	if err != nil {
		return err
	}

	start := time.Now()
	out, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		logger.ErrorContext(ctx, "head object failed", "error", err, "auth", s3connect.IsAuthError(err))
		return fmt.Errorf("head %s/%s: %w", loc.Bucket, loc.Key, err)
	}

	loc.Length = aws.ToInt64(out.ContentLength)
	logger.InfoContext(ctx, "object reachable",
		"length", loc.Length,
		"duration", time.Since(start),
	)

	_, err = fmt.Fprintln(w, loc)
	return err
}

// callerIdentity prints who the pooled credentials belong to. cfg comes from
// the pool, so an assumed role session is shared with the S3 client.
func callerIdentity(ctx context.Context, cfg s3connect.ClientConfig, endpoint string, w io.Writer) error {
	client := sts.NewFromConfig(cfg.AWSConfig(), func(o *sts.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	out, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return fmt.Errorf("get caller identity: %w", err)
	}

	_, err = fmt.Fprintf(w, "identity: %s (account %s)\n",
		strings.TrimSpace(aws.ToString(out.Arn)), aws.ToString(out.Account))
	return err
}
