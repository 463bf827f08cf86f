package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// awsEnvVars lists every variable consulted by the credential and region chains.
var awsEnvVars = []string{
	"AWS_ACCESS_KEY_ID",
	"AWS_ACCESS_KEY",
	"AWS_SECRET_ACCESS_KEY",
	"AWS_SECRET_KEY",
	"AWS_SESSION_TOKEN",
	"AWS_ACCOUNT_ID",
	"AWS_REGION",
	"AWS_DEFAULT_REGION",
	"AWS_PROFILE",
	"AWS_DEFAULT_PROFILE",
	"AWS_CONTAINER_CREDENTIALS_RELATIVE_URI",
	"AWS_CONTAINER_CREDENTIALS_FULL_URI",
	"AWS_CONTAINER_AUTHORIZATION_TOKEN",
	"AWS_CONTAINER_AUTHORIZATION_TOKEN_FILE",
	"AWS_EC2_METADATA_SERVICE_ENDPOINT",
	"AWS_EC2_METADATA_SERVICE_ENDPOINT_MODE",
	"AWS_WEB_IDENTITY_TOKEN_FILE",
	"AWS_ROLE_ARN",
	"AWS_ROLE_SESSION_NAME",
}

// AWSEnv describes the isolated environment created by IsolateAWSEnv.
type AWSEnv struct {
	// CredentialsFile is the value of AWS_SHARED_CREDENTIALS_FILE.
	CredentialsFile string
	// ConfigFile is the value of AWS_CONFIG_FILE.
	ConfigFile string
}

// IsolateAWSEnv clears the AWS environment for the duration of the test.
// Tests using it must not call t.Parallel.
func IsolateAWSEnv(t testing.TB) AWSEnv {
	t.Helper()

	for _, k := range awsEnvVars {
		t.Setenv(k, "")
	}

	dir := t.TempDir()
	env := AWSEnv{
		CredentialsFile: filepath.Join(dir, "credentials"),
		ConfigFile:      filepath.Join(dir, "config"),
	}

	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", env.CredentialsFile)
	t.Setenv("AWS_CONFIG_FILE", env.ConfigFile)
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	return env
}

// WriteCredentials writes the shared credentials file.
func (e AWSEnv) WriteCredentials(t testing.TB, content string) {
	t.Helper()
	writeFile(t, e.CredentialsFile, content)
}

// WriteConfig writes the shared config file.
func (e AWSEnv) WriteConfig(t testing.TB, content string) {
	t.Helper()
	writeFile(t, e.ConfigFile, content)
}

// EnableIMDS re-enables the instance metadata service and points it at endpoint.
func (e AWSEnv) EnableIMDS(t testing.TB, endpoint string) {
	t.Helper()
	t.Setenv("AWS_EC2_METADATA_DISABLED", "false")
	t.Setenv("AWS_EC2_METADATA_SERVICE_ENDPOINT", endpoint)
}

func writeFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
