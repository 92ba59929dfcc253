package auth

// redacted is what every rendering of a Secret prints.
const redacted = "[REDACTED]"

// Secret holds a decrypted credential (API key, password, client secret,
// private key, certificate password, access token).
//
// Its String, GoString, MarshalText and MarshalJSON methods all return
// "[REDACTED]", so a Secret that ends up in a log line, an error message or
// a serialized struct does not leak. Use Reveal only where the value is put
// on the wire.
type Secret string

// Reveal returns the plaintext value.
func (s Secret) Reveal() string {
	return string(s)
}

// IsEmpty reports whether the secret is unset.
func (s Secret) IsEmpty() bool {
	return s == ""
}

// String implements fmt.Stringer.
func (s Secret) String() string {
	return redacted
}

// GoString implements fmt.GoStringer for %#v.
func (s Secret) GoString() string {
	return "auth.Secret(" + redacted + ")"
}

// MarshalText implements encoding.TextMarshaler.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

// MarshalJSON implements json.Marshaler.
func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}
