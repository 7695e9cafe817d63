package interfaces

import (
	"context"
	"errors"
	"time"
)

// Storage-related errors.
var (
	// ErrRecordNotFound indicates the requested audit record does not
	// exist in the backend.
	ErrRecordNotFound = errors.New("audit record not found")

	// ErrInvalidLocationURI indicates the backend location URI could not
	// be parsed or has an unsupported scheme.
	ErrInvalidLocationURI = errors.New("invalid audit backend location URI")
)

// AuditBackendLocation is a URI string describing where audit records are
// archived, e.g. "file:///var/lib/etims-bridge/audit" or
// "s3://bucket/prefix?region=eu-west-1".
type AuditBackendLocation string

// AuditRecord is the raw trace of one device call, archived for later
// inspection and dispute resolution. Request and Response hold the exact
// JSON bytes that crossed the wire.
type AuditRecord struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"documentId,omitempty"`
	Operation  string    `json:"operation"`
	Outcome    string    `json:"outcome"`
	Request    []byte    `json:"request"`
	Response   []byte    `json:"response,omitempty"`
	At         time.Time `json:"at"`
}

// AuditBackend archives transmission traces. Store must not mutate the
// record; Fetch returns ErrRecordNotFound for unknown ids.
type AuditBackend interface {
	Store(ctx context.Context, record AuditRecord) error
	Fetch(ctx context.Context, id string) (AuditRecord, error)

	// Available reports whether the backend is currently reachable.
	Available(ctx context.Context) bool

	// Name returns a short backend identifier for logging.
	Name() string

	// LocationURI returns the URI the backend was created from, with any
	// credentials masked.
	LocationURI() string
}

// AuditBackendFactory creates audit backends from location URIs and
// aggregates several locations into one redundant backend.
type AuditBackendFactory interface {
	BackendFor(location AuditBackendLocation) (AuditBackend, error)
	CreateMultiBackend(locations []AuditBackendLocation) (AuditBackend, error)
}
