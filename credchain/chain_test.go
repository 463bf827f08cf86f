package credchain

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/s3connect/props"
	"github.com/hupe1980/s3connect/testutil"
)

const profileCredentials = `[default]
aws_access_key_id = AKIAPROFILE
aws_secret_access_key = profile-secret
`

func TestResolve_Sources(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		secret string
		want   []string
	}{
		{
			name:   "explicit pair between environment and profile",
			id:     "AKIACONFIG",
			secret: "config-secret",
			want: []string{
				SourceProperties, SourceEnvironment, SourceConfig,
				SourceProfile, SourceContainer, SourceInstanceMetadata,
			},
		},
		{
			name:   "missing secret",
			id:     "AKIACONFIG",
			secret: "",
			want: []string{
				SourceProperties, SourceEnvironment,
				SourceProfile, SourceContainer, SourceInstanceMetadata,
			},
		},
		{
			name:   "blank values",
			id:     "   ",
			secret: "\t",
			want: []string{
				SourceProperties, SourceEnvironment,
				SourceProfile, SourceContainer, SourceInstanceMetadata,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.id, tt.secret).Sources())
		})
	}
}

func TestChain_ConfigBeatsProfile(t *testing.T) {
	env := testutil.IsolateAWSEnv(t)
	env.WriteCredentials(t, profileCredentials)

	creds, err := Resolve("AKIACONFIG", "config-secret").Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIACONFIG", creds.AccessKeyID)
	assert.Equal(t, "config-secret", creds.SecretAccessKey)
}

func TestChain_EnvironmentBeatsConfig(t *testing.T) {
	env := testutil.IsolateAWSEnv(t)
	env.WriteCredentials(t, profileCredentials)
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIAENV")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "env-secret")
	t.Setenv("AWS_SESSION_TOKEN", "env-token")

	creds, err := Resolve("AKIACONFIG", "config-secret").Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIAENV", creds.AccessKeyID)
	assert.Equal(t, "env-token", creds.SessionToken)
}

func TestChain_PropertiesBeatEnvironment(t *testing.T) {
	testutil.IsolateAWSEnv(t)
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIAENV")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "env-secret")

	chain := Resolve("AKIACONFIG", "config-secret", func(o *Options) {
		o.Properties = props.Properties{
			props.AccessKeyID: "AKIAPROP",
			props.SecretKey:   "prop-secret",
		}
	})

	creds, err := chain.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIAPROP", creds.AccessKeyID)
	assert.Equal(t, "prop-secret", creds.SecretAccessKey)
	assert.Equal(t, SourceProperties, creds.Source)
}

func TestChain_PropertiesAreCopied(t *testing.T) {
	testutil.IsolateAWSEnv(t)

	p := props.Properties{
		props.AccessKeyID:     "AKIAPROP",
		props.SecretAccessKey: "prop-secret",
	}
	chain := Resolve("", "", func(o *Options) { o.Properties = p })
	delete(p, props.AccessKeyID)

	creds, err := chain.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIAPROP", creds.AccessKeyID)
}

func TestChain_Profile(t *testing.T) {
	env := testutil.IsolateAWSEnv(t)
	env.WriteCredentials(t, profileCredentials+`
[dev]
aws_access_key_id = AKIADEV
aws_secret_access_key = dev-secret
`)

	creds, err := Resolve("", "").Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIAPROFILE", creds.AccessKeyID)

	t.Setenv("AWS_PROFILE", "dev")

	creds, err = Resolve("", "").Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIADEV", creds.AccessKeyID)
}

func TestChain_ProfileCredentialProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("credential_process script requires a POSIX shell")
	}

	env := testutil.IsolateAWSEnv(t)

	script := filepath.Join(t.TempDir(), "creds.sh")
	body := "#!/bin/sh\necho '{\"Version\": 1, \"AccessKeyId\": \"AKIAPROCESS\", \"SecretAccessKey\": \"process-secret\"}'\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o700))

	env.WriteConfig(t, "[default]\ncredential_process = "+script+"\n")

	creds, err := Resolve("", "").Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIAPROCESS", creds.AccessKeyID)
}

func TestChain_Container(t *testing.T) {
	testutil.IsolateAWSEnv(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "container-auth" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"AccessKeyId": "AKIACONTAINER",
			"SecretAccessKey": "container-secret",
			"Token": "container-token",
			"Expiration": "2099-01-01T00:00:00Z"
		}`))
	}))
	defer srv.Close()

	t.Setenv("AWS_CONTAINER_CREDENTIALS_FULL_URI", srv.URL+"/v2/credentials")
	t.Setenv("AWS_CONTAINER_AUTHORIZATION_TOKEN", "container-auth")

	creds, err := Resolve("", "").Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIACONTAINER", creds.AccessKeyID)
	assert.Equal(t, "container-token", creds.SessionToken)
	assert.True(t, creds.CanExpire)
}

func TestContainerEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		relative string
		full     string
		want     string
		wantErr  bool
	}{
		{name: "unset", wantErr: true},
		{name: "relative", relative: "/v2/creds", want: "http://169.254.170.2/v2/creds"},
		{name: "https", full: "https://creds.example.com/x", want: "https://creds.example.com/x"},
		{name: "loopback", full: "http://127.0.0.1:8080/x", want: "http://127.0.0.1:8080/x"},
		{name: "eks pod identity", full: "http://169.254.170.23/v1/credentials", want: "http://169.254.170.23/v1/credentials"},
		{name: "remote http rejected", full: "http://creds.example.com/x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(containerRelativeURIEnv, tt.relative)
			t.Setenv(containerFullURIEnv, tt.full)

			got, err := containerEndpoint()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContainerToken_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("from-file\n"), 0o600))

	t.Setenv(containerTokenEnv, "from-env")
	t.Setenv(containerTokenFileEnv, path)

	token, err := containerToken()
	require.NoError(t, err)
	assert.Equal(t, "from-file", token)
}

func TestChain_InstanceMetadata(t *testing.T) {
	env := testutil.IsolateAWSEnv(t)
	srv := testutil.NewIMDSServer(t, testutil.IMDSConfig{
		RoleName:        "web",
		AccessKeyID:     "AKIAINSTANCE",
		SecretAccessKey: "instance-secret",
		Token:           "instance-token",
	})
	env.EnableIMDS(t, srv.URL)

	creds, err := Resolve("", "").Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIAINSTANCE", creds.AccessKeyID)
	assert.Equal(t, "instance-token", creds.SessionToken)
}

func TestChain_NoCredentials(t *testing.T) {
	testutil.IsolateAWSEnv(t)

	_, err := Resolve("", "").Retrieve(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoCredentials)

	var nce *NoCredentialsError
	require.ErrorAs(t, err, &nce)
	require.Len(t, nce.Errors, 5)

	var se *SourceError
	require.ErrorAs(t, nce.Errors[0], &se)
	assert.Equal(t, SourceProperties, se.Source)
	assert.ErrorIs(t, nce.Errors[4], errInstanceMetadataOff)
	assert.Contains(t, err.Error(), SourceContainer)
}

func TestChain_Lazy(t *testing.T) {
	testutil.IsolateAWSEnv(t)

	chain := Resolve("", "")

	t.Setenv("AWS_ACCESS_KEY_ID", "AKIALATE")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "late-secret")

	creds, err := chain.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIALATE", creds.AccessKeyID)
}

type fakeProvider struct {
	creds aws.Credentials
	err   error
	calls atomic.Int64
}

func (f *fakeProvider) Retrieve(context.Context) (aws.Credentials, error) {
	f.calls.Add(1)
	return f.creds, f.err
}

func TestNewChain_OrderAndHook(t *testing.T) {
	first := &fakeProvider{err: errors.New("boom")}
	empty := &fakeProvider{}
	third := &fakeProvider{creds: aws.Credentials{AccessKeyID: "AKIA3", SecretAccessKey: "s3"}}
	never := &fakeProvider{creds: aws.Credentials{AccessKeyID: "AKIA4", SecretAccessKey: "s4"}}

	var gotSource string
	var gotErr error
	chain := NewChain([]Source{
		{Name: "first", Provider: first},
		{Name: "empty", Provider: empty},
		{Name: "third", Provider: third},
		{Name: "never", Provider: never},
	}, func(_ context.Context, source string, _ time.Duration, err error) {
		gotSource, gotErr = source, err
	})

	creds, err := chain.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIA3", creds.AccessKeyID)
	assert.Equal(t, "third", creds.Source)
	assert.Equal(t, "third", gotSource)
	assert.NoError(t, gotErr)
	assert.Equal(t, int64(1), first.calls.Load())
	assert.Equal(t, int64(1), empty.calls.Load())
	assert.Zero(t, never.calls.Load())
}

func TestChain_ContextCanceled(t *testing.T) {
	p := &fakeProvider{creds: aws.Credentials{AccessKeyID: "AKIA", SecretAccessKey: "s"}}
	chain := NewChain([]Source{{Name: "p", Provider: p}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := chain.Retrieve(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, p.calls.Load())
}
