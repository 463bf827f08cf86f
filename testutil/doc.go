// Package testutil provides testing utilities for s3connect.
//
// This package is intended for use in tests only. It isolates tests from the
// AWS configuration of the machine running them and writes shared profile
// files on demand.
//
// # Hermetic Environment
//
//	func TestSomething(t *testing.T) {
//	    env := testutil.IsolateAWSEnv(t)
//	    env.WriteConfig(t, "[default]\nregion = eu-west-1\n")
//	    ...
//	}
//
// IsolateAWSEnv clears every AWS_* variable the chains consult, points the
// shared files at empty paths inside t.TempDir() and disables the instance
// metadata service, so no test ever talks to 169.254.169.254.
package testutil
