// Package interfaces defines core interfaces and types for the eTIMS bridge,
// separating contract definitions from implementations.
//
// The package provides the boundary types used across the system:
//
// # Counterparty Types
//
// Mode: operating mode selection (production, sandbox, simulation).
//
// Credentials: one company's identity against the tax device (TIN, branch
// code, CMC signing key, mode). Validate enforces that a signing key is
// present whenever the mode involves a real counterparty.
//
// # Collaborator Interfaces
//
// DeviceCaller: executes a named operation against the device and returns the
// nested data payload, with expected failures as typed errors.
//
// Catalog: classification-code lookup per line item, supplied by the calling
// business application.
//
// SequenceSource: monotonically increasing per-document-kind sequence numbers.
//
// Notifier: operator-facing success/failure summaries with a severity flag.
//
// KeySource: resolves the CMC signing key from configuration, the
// environment, a key file or Vault.
//
// # Audit Storage
//
// AuditBackend / AuditBackendFactory: archival of raw request/response traces
// across file and S3 backends, created from location URIs.
package interfaces
