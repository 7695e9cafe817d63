package interfaces

import "context"

// DeviceCaller executes one named operation against the tax device and
// returns the nested data payload on success. Expected failures are returned
// as typed errors (*api.RemoteError, *api.TransportError); the caller
// classifies them with errors.As. Implementations never panic on remote or
// transport failures.
type DeviceCaller interface {
	Call(ctx context.Context, operation string, payload map[string]any) (map[string]any, error)
}

// Catalog resolves a line item code to the classification codes the remote
// system requires. It is supplied by the business application; the
// orchestrator only reads from it during pre-flight validation.
type Catalog interface {
	Lookup(itemCode string) (CatalogEntry, bool)
}

// SequenceSource hands out monotonically increasing document sequence
// numbers, one counter per document kind. Implementations must be safe for
// concurrent use.
type SequenceSource interface {
	Next(kind string) (int64, error)
}

// Severity grades operator notifications.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notifier receives operator-facing transmission summaries. The bridge never
// swallows a failure silently: every non-success outcome produces exactly one
// notification.
type Notifier interface {
	Notify(severity Severity, title, message string)
}

// KeySource resolves the CMC signing key at client construction time. It
// abstracts over literal configuration values, environment variables, key
// files and Vault.
type KeySource interface {
	SigningKey(ctx context.Context) (string, error)
}
