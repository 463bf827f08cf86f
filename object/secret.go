package object

import (
	"encoding/json"
	"log/slog"
)

const (
	// RedactedMarker replaces a present secret.
	RedactedMarker = "******"

	// NullMarker stands for an absent secret.
	NullMarker = "<nil>"
)

// Secret is a string that never prints its value.
type Secret string

// String returns RedactedMarker, or NullMarker when the secret is empty.
func (s Secret) String() string {
	if s == "" {
		return NullMarker
	}
	return RedactedMarker
}

// GoString implements fmt.GoStringer.
func (s Secret) GoString() string { return s.String() }

// LogValue implements slog.LogValuer.
func (s Secret) LogValue() slog.Value { return slog.StringValue(s.String()) }

// MarshalJSON implements json.Marshaler.
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte("null"), nil
	}
	return json.Marshal(RedactedMarker)
}

// Reveal returns the plain value.
func (s Secret) Reveal() string { return string(s) }

// IsSet reports whether the secret holds a value.
func (s Secret) IsSet() bool { return s != "" }
