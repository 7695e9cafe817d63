// Package signing implements the request authentication scheme of the eTIMS
// device protocol: an HMAC-SHA256 message authentication code computed over a
// canonical compact JSON serialization of the request payload, transmitted
// base64-encoded in the 'sign' header.
//
// Canonicalization is byte-for-byte deterministic: object keys are sorted,
// no insignificant whitespace is emitted and HTML characters are not escaped,
// so the remote party can independently recompute the same bytes.
package signing

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Sign computes the base64-encoded HMAC-SHA256 signature of the canonical
// serialization of payload under key. It fails only if the payload contains
// values that cannot be represented as JSON.
func Sign(payload map[string]any, key string) (string, error) {
	canonical, err := Canonical(payload)
	if err != nil {
		return "", fmt.Errorf("could not canonicalize payload: %w", err)
	}

	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(canonical)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// Verify recomputes the signature for payload under key and compares it to
// the supplied signature in constant time. It returns false on any internal
// error, including malformed base64, and never panics.
func Verify(payload map[string]any, signature, key string) bool {
	supplied, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}

	canonical, err := Canonical(payload)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(canonical)
	return hmac.Equal(supplied, mac.Sum(nil))
}

// Canonical returns the canonical compact JSON serialization of payload:
// sorted object keys, no extra whitespace, HTML escaping disabled. The
// signature is computed over exactly these bytes.
func Canonical(payload map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := newCanonicalEncoder(&buf)
	if err := enc.Encode(payload); err != nil {
		return nil, err
	}
	// Encoder.Encode appends a newline that is not part of the canonical form.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
