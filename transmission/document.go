package transmission

import (
	"fmt"
	"strings"
	"time"
)

// DocumentKind selects the device operation a document is transmitted with.
type DocumentKind string

const (
	KindSale       DocumentKind = "sale"
	KindCreditNote DocumentKind = "credit_note"
	KindPurchase   DocumentKind = "purchase"
)

// State is the transmission lifecycle of a document.
type State string

const (
	// StatePending: not yet confirmed by the device. Initial state, and
	// the state after transport failures (safe to retry).
	StatePending State = "pending"

	// StateConfirmed: the device accepted the document and returned a
	// receipt. Terminal; resubmission is rejected locally.
	StateConfirmed State = "confirmed"

	// StateRejected: the device refused the document. Requires human
	// correction; a corrected document may be submitted again.
	StateRejected State = "rejected"
)

// Party identifies a customer or supplier on a document.
type Party struct {
	Name string
	TIN  string
}

// Line is one document line item. Tax codes are opaque enumerated values
// supplied by the calling application.
type Line struct {
	// ItemCode keys the classification lookup in the catalog.
	ItemCode    string
	Description string

	Quantity  float64
	UnitPrice float64

	TaxCode       string
	TaxRate       float64
	TaxableAmount float64
	TaxAmount     float64
	TotalAmount   float64
}

// Receipt is the transmission record written back onto a document after the
// device confirms it. Once Signature is non-empty the record is immutable;
// the document must not be resubmitted.
type Receipt struct {
	// ReceiptNumber is the device's current receipt counter (curRcptNo).
	ReceiptNumber int64

	// InvoiceNumber is the device-side invoice number (invcNo).
	InvoiceNumber int64

	// Signature is the authoritative receipt signature (rcptSign).
	Signature string

	// ConfirmedAt is the device-reported confirmation time (sdcDateTime).
	ConfirmedAt time.Time

	// InternalData is the device's opaque internal data blob (intrlData).
	InternalData string
}

// Document is the transfer object handed to the orchestrator. It is
// deliberately decoupled from any persistence framework: the calling
// application maps its business records onto this shape and persists the
// Receipt and State the orchestrator writes back.
type Document struct {
	// ID identifies the document for locking and audit; submissions for
	// the same ID are serialized.
	ID   string
	Kind DocumentKind
	Date time.Time

	Customer Party
	Lines    []Line

	TotalTaxable float64
	TotalTax     float64
	TotalAmount  float64

	// Credit note fields: the reversed document and the KRA refund
	// reason code.
	OriginalID        string
	OriginalInvoiceNo int64
	ReasonCode        string

	State   State
	Receipt *Receipt
}

// Confirmed reports whether the document already carries an authoritative
// receipt. A confirmed document is never transmitted again.
func (d *Document) Confirmed() bool {
	return d.State == StateConfirmed || (d.Receipt != nil && d.Receipt.Signature != "")
}

// Issue is one named validation finding. Blocking issues prevent
// transmission; advisory issues are surfaced but do not.
type Issue struct {
	Name     string
	Message  string
	Blocking bool
}

// ValidationError aggregates the blocking issues that prevented a
// transmission. It lists every violated rule, not just the first.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	messages := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		messages[i] = issue.Message
	}
	return fmt.Sprintf("document failed validation: %s", strings.Join(messages, "; "))
}

// Blocking filters issues down to the blocking ones.
func Blocking(issues []Issue) []Issue {
	var blocking []Issue
	for _, issue := range issues {
		if issue.Blocking {
			blocking = append(blocking, issue)
		}
	}
	return blocking
}
