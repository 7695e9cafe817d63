package api

import "fmt"

// RemoteError is an application-level rejection: the device received and
// parsed the request but refused it. It is terminal for that submission
// attempt and requires human correction; the bridge never retries it.
type RemoteError struct {
	// Code is the device result code, e.g. "999".
	Code string

	// Message is the device-supplied rejection message.
	Message string

	// Timestamp is the device-reported resultDt, in the device timestamp
	// format.
	Timestamp string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("device rejected request (%s): %s", e.Code, e.Message)
}

// TransportKind classifies transport-level failures.
type TransportKind string

const (
	// TransportTimeout: the configured deadline elapsed before a full
	// round trip completed.
	TransportTimeout TransportKind = "timeout"

	// TransportConnection: no response was received (connection refused,
	// DNS failure, TLS failure, reset).
	TransportConnection TransportKind = "connection"

	// TransportMalformedResponse: a response arrived but its body is not
	// parseable as the protocol envelope.
	TransportMalformedResponse TransportKind = "malformed-response"

	// TransportHTTPStatus: the counterparty answered with a non-2xx
	// status code.
	TransportHTTPStatus TransportKind = "http-status"
)

// TransportError is a transport-level failure. No state was confirmed by the
// device, so a later retry with the same document is safe.
type TransportError struct {
	Kind    TransportKind
	Message string

	// StatusCode is set for TransportHTTPStatus failures.
	StatusCode int

	// BodyExcerpt holds up to MaxBodyExcerpt bytes of the response body
	// for TransportHTTPStatus failures.
	BodyExcerpt string
}

func (e *TransportError) Error() string {
	if e.Kind == TransportHTTPStatus {
		return fmt.Sprintf("transport failure (%s): HTTP %d: %s", e.Kind, e.StatusCode, e.BodyExcerpt)
	}
	return fmt.Sprintf("transport failure (%s): %s", e.Kind, e.Message)
}

// Retryable reports whether the failure is safe to retry. All transport
// failures are: the idempotence guard on confirmed documents prevents
// duplicate submission if the request did land.
func (e *TransportError) Retryable() bool { return true }

// Excerpt truncates body to MaxBodyExcerpt bytes for inclusion in errors and
// logs.
func Excerpt(body []byte) string {
	if len(body) > MaxBodyExcerpt {
		return string(body[:MaxBodyExcerpt])
	}
	return string(body)
}
