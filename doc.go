// Package s3connect builds clients for Amazon S3 and S3-compatible stores.
//
// Two settings are resolved through ordered fallback chains when a client is
// built. Credentials (package credchain) come from process properties,
// environment variables, explicitly configured keys, the shared profile,
// the container credential endpoint and finally instance metadata. The
// region (package region) comes from process properties or the environment,
// the configured value, the shared profile, instance metadata and finally
// us-east-1. When a role ARN is configured, the resolved credentials are
// exchanged for temporary role credentials (package stsrole) that refresh
// themselves before they expire.
//
// # Quick Start
//
//	client, err := s3connect.New().
//	    Region("eu-central-1").
//	    Build(ctx)
//
// S3-compatible store (path-style addressing is enabled automatically):
//
//	client, err := s3connect.New().
//	    Endpoint("http://localhost:9000").
//	    AccessKeyID("minioadmin").
//	    SecretAccessKey("minioadmin").
//	    Build(ctx)
//
// Assume a role:
//
//	client, err := s3connect.New().
//	    STSRoleARN("arn:aws:iam::123456789012:role/reader").
//	    STSRegion("eu-west-1").
//	    Build(ctx)
//
// # Per-object clients
//
// An object.Locator carries the connection fields for one object. A Pool
// reuses one client per distinct set of connection fields:
//
//	pool := s3connect.NewPool(s3connect.New(s3connect.WithLogger(logger)))
//	client, err := pool.Client(ctx, loc)
//
// # Errors
//
// Building never fails because of missing credentials. They surface on the
// first request and can be recognised with IsAuthError.
package s3connect
