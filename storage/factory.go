package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/sokoerp/etims-bridge/interfaces"
)

// AuditBackendFactory creates audit backends from URI strings and manages
// multi-backend configurations for redundant archiving.
type AuditBackendFactory struct {
	log *slog.Logger
}

// NewAuditBackendFactory creates a new factory instance.
func NewAuditBackendFactory(log *slog.Logger) *AuditBackendFactory {
	return &AuditBackendFactory{log: log}
}

// BackendFor creates an audit backend from a location URI.
//
// Supported schemes:
//   - file:///path - Local filesystem archive
//   - s3://[accessKey:secretKey@]bucket/prefix?region=...[&endpoint=...] - S3 or compatible object storage
//
// Returns an error if the URI is invalid or the scheme is unsupported.
func (f *AuditBackendFactory) BackendFor(location interfaces.AuditBackendLocation) (interfaces.AuditBackend, error) {
	u, err := url.Parse(string(location))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return f.createFileBackend(u)
	case "s3":
		return f.createS3Backend(u)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

// CreateMultiBackend creates a multi-audit backend from a list of location
// URIs. The multi-backend stores records to every available backend and
// fetches from the first one that has the record. Returns an error if no
// valid backends could be created.
func (f *AuditBackendFactory) CreateMultiBackend(locations []interfaces.AuditBackendLocation) (interfaces.AuditBackend, error) {
	backends := make([]interfaces.AuditBackend, 0, len(locations))

	for _, location := range locations {
		backend, err := f.BackendFor(location)
		if err != nil {
			f.log.Warn("Failed to create audit backend",
				"err", err,
				slog.String("locationURI", string(location)))
			continue
		}
		backends = append(backends, backend)
	}

	if len(backends) == 0 {
		return nil, fmt.Errorf("no valid audit backends created")
	}

	return NewMultiBackend(backends, f.log), nil
}

// createFileBackend creates a filesystem backend.
// URI format: file:///var/lib/etims-bridge/audit
func (f *AuditBackendFactory) createFileBackend(u *url.URL) (interfaces.AuditBackend, error) {
	path := u.Path
	if u.Host != "" {
		// Tolerate file://relative/path by joining host and path.
		path = u.Host + u.Path
	}
	if path == "" {
		return nil, fmt.Errorf("%w: file URI has no path", interfaces.ErrInvalidLocationURI)
	}
	return NewFileBackend(path, f.log)
}

// createS3Backend creates an S3 backend.
// URI format: s3://[accessKey:secretKey@]bucket/prefix?region=eu-west-1[&endpoint=...]
func (f *AuditBackendFactory) createS3Backend(u *url.URL) (interfaces.AuditBackend, error) {
	bucket := u.Host
	if bucket == "" {
		return nil, fmt.Errorf("%w: s3 URI has no bucket", interfaces.ErrInvalidLocationURI)
	}

	prefix := strings.TrimPrefix(u.Path, "/")
	region := u.Query().Get("region")
	if region == "" {
		region = "us-east-1"
	}
	endpoint := u.Query().Get("endpoint")

	var accessKey, secretKey string
	if u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
	}

	return NewS3Backend(bucket, prefix, region, endpoint, accessKey, secretKey, f.log)
}
