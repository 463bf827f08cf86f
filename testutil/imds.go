package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// IMDSConfig describes what a fake instance metadata service serves.
// Empty fields make the corresponding path return 404.
type IMDSConfig struct {
	Region          string
	RoleName        string
	AccessKeyID     string
	SecretAccessKey string
	Token           string
	Expiration      time.Time
}

// IMDSServer is a fake IMDSv2 endpoint.
type IMDSServer struct {
	*httptest.Server
	requests atomic.Int64
}

// Requests returns the number of metadata requests served, token requests excluded.
func (s *IMDSServer) Requests() int64 {
	return s.requests.Load()
}

// NewIMDSServer starts a fake instance metadata service that is closed on test cleanup.
func NewIMDSServer(t testing.TB, cfg IMDSConfig) *IMDSServer {
	t.Helper()

	s := &IMDSServer{}
	mux := http.NewServeMux()

	mux.HandleFunc("/latest/api/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("X-Aws-Ec2-Metadata-Token-Ttl-Seconds", "21600")
		_, _ = w.Write([]byte("imds-token"))
	})

	mux.HandleFunc("/latest/meta-data/placement/region", func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		if cfg.Region == "" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(cfg.Region))
	})

	mux.HandleFunc("/latest/dynamic/instance-identity/document", func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		if cfg.Region == "" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"region": cfg.Region})
	})

	mux.HandleFunc("/latest/meta-data/iam/security-credentials/", func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		if cfg.RoleName == "" {
			http.NotFound(w, r)
			return
		}

		role := strings.TrimPrefix(r.URL.Path, "/latest/meta-data/iam/security-credentials/")
		if role == "" {
			_, _ = w.Write([]byte(cfg.RoleName))
			return
		}
		if role != cfg.RoleName {
			http.NotFound(w, r)
			return
		}

		expiration := cfg.Expiration
		if expiration.IsZero() {
			expiration = time.Now().Add(time.Hour)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"Code":            "Success",
			"Type":            "AWS-HMAC",
			"LastUpdated":     time.Now().UTC().Format(time.RFC3339),
			"AccessKeyId":     cfg.AccessKeyID,
			"SecretAccessKey": cfg.SecretAccessKey,
			"Token":           cfg.Token,
			"Expiration":      expiration.UTC().Format(time.RFC3339),
		})
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)

	return s
}
