// Package credchain resolves AWS credentials through an ordered fallback chain.
//
// # Usage
//
//	chain := credchain.Resolve(cfg.AccessKeyID, cfg.SecretAccessKey)
//	creds, err := chain.Retrieve(ctx)
//
// # Order
//
// Sources are tried on every Retrieve, first success wins:
//
//  1. properties: process-level overrides (aws.accessKeyId, aws.secretAccessKey)
//  2. environment: AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_SESSION_TOKEN
//  3. config: the explicit pair passed to Resolve, only when both are non-blank
//  4. profile: shared config/credentials files (static keys or credential_process)
//  5. container: ECS/EKS container credential endpoint
//  6. instance-metadata: EC2 instance role via IMDS
//
// The explicit pair sits between the environment and the profile so that
// operators can still override application configuration with environment
// variables while application configuration beats a developer's local profile.
//
// The chain does not cache. Wrap it in an aws.CredentialsCache (service
// clients do this automatically) when retrieving outside a client.
package credchain
