package transmission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sokoerp/etims-bridge/api"
	"github.com/sokoerp/etims-bridge/interfaces"
	"github.com/sokoerp/etims-bridge/registry"
	"github.com/sokoerp/etims-bridge/signing"
)

// ErrAlreadyTransmitted is returned when a document already carrying a
// confirmed receipt signature is submitted again. The rejection is local; no
// network call is made.
var ErrAlreadyTransmitted = errors.New("document already carries a confirmed receipt signature")

// Config wires an Orchestrator. Caller, Catalog and Credentials are
// required; Sequences defaults to an in-memory counter, Notifier to a
// slog-backed notifier, and Audit may be nil to disable archiving.
type Config struct {
	Caller      interfaces.DeviceCaller
	Catalog     interfaces.Catalog
	Credentials interfaces.Credentials
	Sequences   interfaces.SequenceSource
	Notifier    interfaces.Notifier
	Audit       interfaces.AuditBackend
	Log         *slog.Logger
}

// Orchestrator transmits business documents to the tax device: pre-flight
// validation, payload construction, the device call, and mapping the outcome
// onto the document's state and transmission record.
type Orchestrator struct {
	caller    interfaces.DeviceCaller
	catalog   interfaces.Catalog
	creds     interfaces.Credentials
	sequences interfaces.SequenceSource
	notifier  interfaces.Notifier
	audit     interfaces.AuditBackend
	log       *slog.Logger

	// locks serializes submissions per document ID. The idempotence guard
	// is only correct if no two submissions for one document run
	// concurrently. The map holds one mutex per document ID for the
	// orchestrator's lifetime; long-lived embedders with unbounded
	// document churn should scope an orchestrator per batch.
	locks sync.Map

	// now is replaceable in tests.
	now func() time.Time
}

// New validates the configuration and builds an orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Caller == nil {
		return nil, errors.New("transmission: device caller is required")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("transmission: catalog is required")
	}
	if err := cfg.Credentials.Validate(); err != nil {
		return nil, err
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Sequences == nil {
		cfg.Sequences = NewMemorySequence()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = &LogNotifier{Log: cfg.Log}
	}

	return &Orchestrator{
		caller:    cfg.Caller,
		catalog:   cfg.Catalog,
		creds:     cfg.Credentials,
		sequences: cfg.Sequences,
		notifier:  cfg.Notifier,
		audit:     cfg.Audit,
		log:       cfg.Log,
		now:       time.Now,
	}, nil
}

// Submit transmits one document and reconciles the outcome:
//
//   - Success: the transmission record is written onto the document and the
//     state moves to confirmed, together, under the document lock.
//   - Remote rejection (*api.RemoteError): the document moves to rejected;
//     the error is terminal for this attempt and needs human correction.
//   - Transport failure (*api.TransportError): the document stays pending
//     and may be retried; nothing was persisted.
//
// Blocking validation failures are returned as *ValidationError before any
// network call. A document that already carries a confirmed receipt is
// rejected locally with ErrAlreadyTransmitted, also without a network call.
func (o *Orchestrator) Submit(ctx context.Context, doc *Document) (*Receipt, error) {
	lock := o.lockFor(doc.ID)
	lock.Lock()
	defer lock.Unlock()

	if doc.Confirmed() {
		return nil, ErrAlreadyTransmitted
	}

	if blocking := Blocking(o.Validate(doc, true)); len(blocking) > 0 {
		return nil, &ValidationError{Issues: blocking}
	}

	sequence, err := o.sequences.Next(string(doc.Kind))
	if err != nil {
		return nil, fmt.Errorf("could not draw sequence number: %w", err)
	}

	operation := registry.OpSaveSales
	buildPayload := o.buildSalesPayload
	if doc.Kind == KindPurchase {
		operation = registry.OpSavePurchase
		buildPayload = o.buildPurchasePayload
	}

	payload, err := buildPayload(doc, sequence, o.now())
	if err != nil {
		return nil, err
	}

	data, callErr := o.caller.Call(ctx, operation, payload)
	o.archive(ctx, doc.ID, operation, payload, data, callErr)

	if callErr != nil {
		return nil, o.reconcileFailure(doc, callErr)
	}

	receipt := receiptFromData(data)
	if receipt.InvoiceNumber == 0 {
		receipt.InvoiceNumber = sequence
	}

	// Record and state transition happen together under the document
	// lock, so a receipt is never visible on a non-confirmed document.
	doc.Receipt = receipt
	doc.State = StateConfirmed

	o.log.Info("Document confirmed by device",
		"documentId", doc.ID, "kind", string(doc.Kind),
		"receiptNo", receipt.ReceiptNumber, "invoiceNo", receipt.InvoiceNumber)
	o.notifier.Notify(interfaces.SeverityInfo, "Document accepted",
		fmt.Sprintf("Document %s was accepted by the device (receipt %d).", doc.ID, receipt.ReceiptNumber))

	return receipt, nil
}

// reconcileFailure maps a call failure onto the document state and produces
// the operator notification distinguishing remote rejection from transient
// transport failure.
func (o *Orchestrator) reconcileFailure(doc *Document, callErr error) error {
	var remoteErr *api.RemoteError
	if errors.As(callErr, &remoteErr) {
		doc.State = StateRejected
		o.notifier.Notify(interfaces.SeverityError, "Document rejected",
			fmt.Sprintf("The device rejected document %s (%s): %s. Correct the document before sending again.",
				doc.ID, remoteErr.Code, remoteErr.Message))
		return callErr
	}

	var transportErr *api.TransportError
	if errors.As(callErr, &transportErr) {
		o.notifier.Notify(interfaces.SeverityWarning, "Transmission failed",
			fmt.Sprintf("Document %s could not be transmitted (%s). The document was not confirmed; it is safe to retry later.",
				doc.ID, transportErr.Kind))
		return callErr
	}

	// Programmer error or context misuse; surface as-is.
	return callErr
}

// archive stores the raw request/response trace. Archiving is best effort
// and never fails the submission.
func (o *Orchestrator) archive(ctx context.Context, docID, operation string, payload, data map[string]any, callErr error) {
	if o.audit == nil {
		return
	}

	request, err := signing.Canonical(payload)
	if err != nil {
		o.log.Warn("Could not serialize payload for audit", "documentId", docID, "err", err)
		return
	}

	record := interfaces.AuditRecord{
		ID:         uuid.NewString(),
		DocumentID: docID,
		Operation:  operation,
		Request:    request,
		At:         o.now().UTC(),
	}
	switch {
	case callErr == nil:
		record.Outcome = "success"
		response, err := json.Marshal(data)
		if err != nil {
			o.log.Warn("Could not serialize response for audit", "documentId", docID, "err", err)
		}
		record.Response = response
	default:
		record.Outcome = outcomeName(callErr)
		record.Response = []byte(callErr.Error())
	}

	if err := o.audit.Store(ctx, record); err != nil {
		o.log.Warn("Could not archive transmission trace",
			"documentId", docID, "backend", o.audit.Name(), "err", err)
	}
}

func outcomeName(err error) string {
	var remoteErr *api.RemoteError
	if errors.As(err, &remoteErr) {
		return "remote-error"
	}
	var transportErr *api.TransportError
	if errors.As(err, &transportErr) {
		return "transport-" + string(transportErr.Kind)
	}
	return "error"
}

func (o *Orchestrator) lockFor(docID string) *sync.Mutex {
	lock, _ := o.locks.LoadOrStore(docID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
