// Package storage provides audit-trail archival for device transmissions:
// the raw request and response of every call, stored as JSON records for
// later inspection and dispute resolution.
//
// Backends are created from location URIs by AuditBackendFactory:
//
//   - file:///var/lib/etims-bridge/audit
//   - s3://bucket/prefix?region=eu-west-1
//
// CreateMultiBackend aggregates several locations into one redundant
// backend: records are stored to all available backends and fetched from the
// first one that has them.
package storage
