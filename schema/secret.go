package schema

// RedactedText replaces secret values in string and JSON output.
const RedactedText = "<redacted>"

// Secret is an opaque wrapper around a decoded value. Its contents never show
// up in String, Format or JSON output; callers must unwrap deliberately with
// Reveal.
type Secret struct {
	value any
}

// NewSecret wraps v. Wrapping an existing Secret returns it unchanged, so
// auto-redaction composed with an explicit Redacted schema never double-wraps.
func NewSecret(v any) Secret {
	if s, ok := v.(Secret); ok {
		return s
	}
	return Secret{value: v}
}

// Reveal returns the wrapped value.
func (s Secret) Reveal() any { return s.value }

func (s Secret) String() string { return RedactedText }

// GoString keeps %#v output safe too.
func (s Secret) GoString() string { return RedactedText }

// MarshalJSON hides the wrapped value from JSON serialization.
func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + RedactedText + `"`), nil
}
