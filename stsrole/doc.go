// Package stsrole exchanges base credentials for temporary role credentials.
//
// # Usage
//
//	base := credchain.Resolve(accessKeyID, secretAccessKey)
//	provider := stsrole.Exchange(base, "arn:aws:iam::123456789012:role/reader", "", "us-east-1")
//
//	client := s3.NewFromConfig(aws.Config{Region: "us-east-1", Credentials: provider})
//
// Exchange never talks to the network. The first Retrieve issues the
// AssumeRole call, authenticated by base, and later calls refresh the
// temporary credentials before they expire.
//
// # Refresh
//
// Credentials are cached together with their expiry. Within ExpiryWindow of
// expiry the next caller triggers a refresh. Concurrent callers share one
// in-flight AssumeRole request and all observe its result, including its
// failure. A failed refresh is not retried more often than RetryInterval;
// meanwhile credentials that have not yet expired keep being served.
package stsrole
