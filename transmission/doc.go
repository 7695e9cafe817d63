// Package transmission orchestrates sending business documents to the tax
// device: pre-flight validation, deterministic payload construction, the
// device call, and reconciling the authoritative response (receipt number,
// receipt signature, confirmation timestamp, internal data) back onto the
// document.
//
// # Document lifecycle
//
// Documents start pending. A successful device call writes the transmission
// record and moves the document to confirmed in one step under a
// per-document lock; a confirmed document is never transmitted again
// (ErrAlreadyTransmitted, rejected locally with zero network calls). A remote
// rejection moves the document to rejected and requires human correction. A
// transport failure leaves it pending; retrying is safe because nothing was
// confirmed.
//
// # Validation
//
// Validate reports named issues with a blocking flag. Classification-code
// gaps and a missing credit note reason code are advisory while a document is
// being edited and blocking when finalizing for submission. Submit runs
// finalizing validation and returns a *ValidationError listing every violated
// rule before any network attempt.
//
// # Concurrency
//
// Submissions for the same document ID are serialized; submissions for
// different documents are independent. The orchestrator itself never retries
// a failed call; retry policy belongs to the caller.
package transmission
