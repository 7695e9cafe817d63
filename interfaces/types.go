// Package interfaces defines the core types and contracts shared between the
// eTIMS bridge components. It provides the boundary between the transport
// layer, the transmission orchestrator and the calling business application
// without implementation details.
package interfaces

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects which counterparty the device client talks to.
type Mode string

const (
	// ModeProduction targets the live KRA eTIMS endpoint.
	ModeProduction Mode = "production"

	// ModeSandbox targets the KRA test environment.
	ModeSandbox Mode = "sandbox"

	// ModeSimulation produces synthetic responses in-process. No network
	// I/O occurs in this mode.
	ModeSimulation Mode = "simulation"
)

// ErrMissingSigningKey is returned by Credentials.Validate when a live mode
// is configured without a CMC signing key.
var ErrMissingSigningKey = errors.New("signing key is required outside simulation mode")

// ParseMode normalizes a mode string. Unknown values are rejected; the
// production fallback for unknown modes is handled by the endpoint registry,
// which logs the fallback.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeProduction:
		return ModeProduction, nil
	case ModeSandbox:
		return ModeSandbox, nil
	case ModeSimulation:
		return ModeSimulation, nil
	default:
		return "", fmt.Errorf("unknown device mode %q", s)
	}
}

// Credentials identifies one company against the remote tax device. The
// device client holds a read-only copy for the duration of a call.
type Credentials struct {
	// TIN is the company tax identification number (the 'tin' header).
	TIN string

	// BranchID is the KRA branch code (the 'bhfId' header), "00" for the
	// main branch.
	BranchID string

	// Key is the CMC signing key shared with the device. Requests are
	// signed with HMAC-SHA256 over the canonical payload using this key.
	Key string

	// Mode selects production, sandbox or simulation.
	Mode Mode
}

// Validate checks the credential invariants. The signing key must be
// non-empty whenever the mode involves a real counterparty.
func (c Credentials) Validate() error {
	if c.TIN == "" {
		return errors.New("credentials: tin must not be empty")
	}
	if c.BranchID == "" {
		return errors.New("credentials: branch id must not be empty")
	}
	if c.Mode != ModeSimulation && c.Key == "" {
		return ErrMissingSigningKey
	}
	return nil
}

// CatalogEntry carries the classification codes the remote system requires
// for every transmitted line item.
type CatalogEntry struct {
	// ClassificationCode is the UNSPSC commodity classification code
	// (itemClsCd).
	ClassificationCode string

	// PackagingUnitCode is the KRA packaging unit code (pkgUnitCd).
	PackagingUnitCode string

	// QuantityUnitCode is the KRA quantity unit code (qtyUnitCd).
	QuantityUnitCode string

	// ItemCode is the device-assigned item code, if the item was already
	// registered via saveItem.
	ItemCode string
}
