package object

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7/pkg/s3utils"
)

// UnknownLength marks a locator whose object size has not been determined.
const UnknownLength int64 = -1

// ErrInvalidLocator is returned by Validate.
var ErrInvalidLocator = errors.New("invalid object locator")

// Locator identifies one object and the parameters to connect to its store.
//
// A Locator is built per request and is not safe for concurrent mutation.
type Locator struct {
	// Endpoint overrides the service endpoint (e.g. http://localhost:9000).
	Endpoint string `json:"endpoint,omitempty"`
	Region   string `json:"region,omitempty"`

	AccessKeyID     Secret `json:"accessKeyId,omitempty"`
	SecretAccessKey Secret `json:"secretAccessKey,omitempty"`

	STSRoleARN     string `json:"stsRoleArn,omitempty"`
	STSSessionName string `json:"stsSessionName,omitempty"`
	STSRegion      string `json:"stsRegion,omitempty"`

	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Length int64  `json:"length"`
}

// New returns a locator for bucket/key with an unknown length.
func New(bucket, key string) *Locator {
	return &Locator{
		Bucket: bucket,
		Key:    key,
		Length: UnknownLength,
	}
}

// HasLength reports whether the object size is known.
func (l *Locator) HasLength() bool { return l.Length >= 0 }

// Validate checks that bucket and key are present and well-formed.
func (l *Locator) Validate() error {
	if err := s3utils.CheckValidBucketName(l.Bucket); err != nil {
		return fmt.Errorf("%w: bucket %q: %w", ErrInvalidLocator, l.Bucket, err)
	}
	if err := s3utils.CheckValidObjectName(l.Key); err != nil {
		return fmt.Errorf("%w: key %q: %w", ErrInvalidLocator, l.Key, err)
	}
	if l.Length < UnknownLength {
		return fmt.Errorf("%w: negative length %d", ErrInvalidLocator, l.Length)
	}
	return nil
}

// ConnectionKey identifies the connection parameters of the locator.
// Two locators with equal keys can share a client. Bucket, key and length
// do not contribute.
func (l *Locator) ConnectionKey() string {
	h := sha256.New()
	for _, field := range []string{
		l.Endpoint,
		l.Region,
		l.AccessKeyID.Reveal(),
		l.SecretAccessKey.Reveal(),
		l.STSRoleARN,
		l.STSSessionName,
		l.STSRegion,
	} {
		h.Write([]byte(field))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// String renders the locator with secrets redacted.
func (l Locator) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[endpoint: %s] ", l.Endpoint)
	fmt.Fprintf(&b, "[region: %s] ", l.Region)
	fmt.Fprintf(&b, "[accessKeyID: %s] ", l.AccessKeyID)
	fmt.Fprintf(&b, "[secretAccessKey: %s] ", l.SecretAccessKey)
	fmt.Fprintf(&b, "[stsRoleArn: %s] ", l.STSRoleARN)
	fmt.Fprintf(&b, "[stsSessionName: %s] ", l.STSSessionName)
	fmt.Fprintf(&b, "[stsRegion: %s] ", l.STSRegion)
	fmt.Fprintf(&b, "[bucket: %s] ", l.Bucket)
	fmt.Fprintf(&b, "[key: %s] ", l.Key)
	fmt.Fprintf(&b, "[length: %d]", l.Length)
	return b.String()
}

// GoString implements fmt.GoStringer so %#v stays redacted.
func (l Locator) GoString() string { return "object.Locator" + l.String() }

// LogValue implements slog.LogValuer.
func (l Locator) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("bucket", l.Bucket),
		slog.String("key", l.Key),
	}
	if l.HasLength() {
		attrs = append(attrs, slog.Int64("length", l.Length))
	}
	if l.Endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", l.Endpoint))
	}
	if l.Region != "" {
		attrs = append(attrs, slog.String("region", l.Region))
	}
	attrs = append(attrs,
		slog.String("access_key_id", l.AccessKeyID.String()),
		slog.String("secret_access_key", l.SecretAccessKey.String()),
	)
	if l.STSRoleARN != "" {
		attrs = append(attrs,
			slog.String("sts_role_arn", l.STSRoleARN),
			slog.String("sts_session_name", l.STSSessionName),
			slog.String("sts_region", l.STSRegion),
		)
	}
	return slog.GroupValue(attrs...)
}
