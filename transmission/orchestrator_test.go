package transmission

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sokoerp/etims-bridge/api"
	"github.com/sokoerp/etims-bridge/api/clients"
	"github.com/sokoerp/etims-bridge/interfaces"
	"github.com/sokoerp/etims-bridge/registry"
)

type mapCatalog map[string]interfaces.CatalogEntry

func (c mapCatalog) Lookup(itemCode string) (interfaces.CatalogEntry, bool) {
	entry, ok := c[itemCode]
	return entry, ok
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	severity []interfaces.Severity
}

func (n *recordingNotifier) Notify(severity interfaces.Severity, title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.severity = append(n.severity, severity)
	n.messages = append(n.messages, title+": "+message)
}

func fullCatalog() mapCatalog {
	return mapCatalog{
		"SKU-001": {ClassificationCode: "99010000", PackagingUnitCode: "NT", QuantityUnitCode: "U"},
		"SKU-002": {ClassificationCode: "52161557", PackagingUnitCode: "CT", QuantityUnitCode: "KG", ItemCode: "KE1NTXU0000002"},
	}
}

func saleDocument() *Document {
	return &Document{
		ID:       "INV/2024/0042",
		Kind:     KindSale,
		Date:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Customer: Party{Name: "Test Customer Ltd", TIN: "P123456789A"},
		Lines: []Line{
			{ItemCode: "SKU-001", Description: "Consulting", Quantity: 1, UnitPrice: 1000,
				TaxCode: "B", TaxRate: 16, TaxableAmount: 1000, TaxAmount: 160, TotalAmount: 1160},
		},
		TotalTaxable: 1000,
		TotalTax:     160,
		TotalAmount:  1160,
		State:        StatePending,
	}
}

func newOrchestrator(t *testing.T, caller interfaces.DeviceCaller, notifier interfaces.Notifier) *Orchestrator {
	t.Helper()
	o, err := New(Config{
		Caller:  caller,
		Catalog: fullCatalog(),
		Credentials: interfaces.Credentials{
			TIN: "P052386110T", BranchID: "00", Key: "key", Mode: interfaces.ModeSandbox,
		},
		Notifier: notifier,
		Log:      slog.Default(),
	})
	require.NoError(t, err)
	return o
}

func successData() map[string]any {
	return map[string]any{
		"curRcptNo":   float64(7),
		"invcNo":      float64(12),
		"rcptSign":    "AAAABBBBCCCCDDDD",
		"sdcDateTime": "20240601143000",
		"intrlData":   "SU5URVJOQUw=",
	}
}

func TestSubmitSuccessPopulatesReceipt(t *testing.T) {
	caller := &clients.MockDeviceCaller{}
	notifier := &recordingNotifier{}
	o := newOrchestrator(t, caller, notifier)

	var sentPayload map[string]any
	caller.On("Call", mock.Anything, registry.OpSaveSales, mock.Anything).
		Run(func(args mock.Arguments) {
			sentPayload = args.Get(2).(map[string]any)
		}).
		Return(successData(), nil).Once()

	doc := saleDocument()
	receipt, err := o.Submit(context.Background(), doc)
	require.NoError(t, err)

	// All four transmission record fields are populated.
	assert.Equal(t, int64(7), receipt.ReceiptNumber)
	assert.Equal(t, "AAAABBBBCCCCDDDD", receipt.Signature)
	assert.False(t, receipt.ConfirmedAt.IsZero())
	assert.Equal(t, "SU5URVJOQUw=", receipt.InternalData)

	assert.Equal(t, StateConfirmed, doc.State)
	assert.Same(t, receipt, doc.Receipt)

	// Deterministic payload mapping.
	assert.Equal(t, "P052386110T", sentPayload["tin"])
	assert.Equal(t, "00", sentPayload["bhfId"])
	assert.Equal(t, int64(1), sentPayload["invcNo"])
	assert.Equal(t, "S", sentPayload["rcptTyCd"])
	assert.Equal(t, 1, sentPayload["totItemCnt"])
	items := sentPayload["itemList"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "99010000", item["itemClsCd"])
	assert.Equal(t, "NT", item["pkgUnitCd"])
	assert.Equal(t, "U", item["qtyUnitCd"])

	require.Len(t, notifier.severity, 1)
	assert.Equal(t, interfaces.SeverityInfo, notifier.severity[0])
	caller.AssertExpectations(t)
}

func TestSubmitRemoteRejection(t *testing.T) {
	caller := &clients.MockDeviceCaller{}
	notifier := &recordingNotifier{}
	o := newOrchestrator(t, caller, notifier)

	caller.On("Call", mock.Anything, registry.OpSaveSales, mock.Anything).
		Return(nil, &api.RemoteError{Code: "999", Message: "Invalid TIN", Timestamp: "20240601143000"}).Once()

	doc := saleDocument()
	_, err := o.Submit(context.Background(), doc)

	var remoteErr *api.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "Invalid TIN", remoteErr.Message)

	assert.False(t, doc.Confirmed())
	assert.Equal(t, StateRejected, doc.State)
	assert.Nil(t, doc.Receipt)

	require.Len(t, notifier.severity, 1)
	assert.Equal(t, interfaces.SeverityError, notifier.severity[0])
	assert.Contains(t, notifier.messages[0], "Invalid TIN")
}

func TestSubmitTransportFailureIsRetryable(t *testing.T) {
	caller := &clients.MockDeviceCaller{}
	notifier := &recordingNotifier{}
	o := newOrchestrator(t, caller, notifier)

	caller.On("Call", mock.Anything, registry.OpSaveSales, mock.Anything).
		Return(nil, &api.TransportError{Kind: api.TransportTimeout, Message: "deadline exceeded"}).Once()
	caller.On("Call", mock.Anything, registry.OpSaveSales, mock.Anything).
		Return(successData(), nil).Once()

	doc := saleDocument()
	_, err := o.Submit(context.Background(), doc)

	var transportErr *api.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, api.TransportTimeout, transportErr.Kind)
	assert.Equal(t, StatePending, doc.State, "transport failure must not change document state")
	assert.False(t, doc.Confirmed())

	// The idempotence guard must not block a retry after a transport
	// failure.
	receipt, err := o.Submit(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, doc.State)
	assert.NotEmpty(t, receipt.Signature)
	caller.AssertExpectations(t)
}

func TestSubmitIdempotenceGuard(t *testing.T) {
	caller := &clients.MockDeviceCaller{}
	o := newOrchestrator(t, caller, &recordingNotifier{})

	doc := saleDocument()
	doc.State = StateConfirmed
	doc.Receipt = &Receipt{ReceiptNumber: 7, Signature: "EXISTING", ConfirmedAt: time.Now(), InternalData: "X"}

	for i := 0; i < 2; i++ {
		_, err := o.Submit(context.Background(), doc)
		assert.ErrorIs(t, err, ErrAlreadyTransmitted)
	}

	caller.AssertNotCalled(t, "Call", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitSerializesConcurrentSubmissions(t *testing.T) {
	caller := &clients.MockDeviceCaller{}
	o := newOrchestrator(t, caller, &recordingNotifier{})

	// A slow device call widens the race window: without the per-document
	// lock several goroutines would pass the idempotence guard before the
	// first confirmation lands.
	caller.On("Call", mock.Anything, registry.OpSaveSales, mock.Anything).
		Run(func(mock.Arguments) { time.Sleep(20 * time.Millisecond) }).
		Return(successData(), nil)

	doc := saleDocument()
	const submitters = 8

	var wg sync.WaitGroup
	errs := make([]error, submitters)
	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = o.Submit(context.Background(), doc)
		}(i)
	}
	wg.Wait()

	var confirmed, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			confirmed++
		default:
			assert.ErrorIs(t, err, ErrAlreadyTransmitted)
			rejected++
		}
	}
	assert.Equal(t, 1, confirmed, "exactly one submission may confirm the document")
	assert.Equal(t, submitters-1, rejected)
	assert.Equal(t, StateConfirmed, doc.State)
	caller.AssertNumberOfCalls(t, "Call", 1)
}

func TestSubmitValidationFailureBeforeNetwork(t *testing.T) {
	caller := &clients.MockDeviceCaller{}
	o, err := New(Config{
		Caller:  caller,
		Catalog: mapCatalog{"SKU-001": {PackagingUnitCode: "NT"}}, // no classification, no quantity unit
		Credentials: interfaces.Credentials{
			TIN: "P052386110T", BranchID: "00", Key: "key", Mode: interfaces.ModeSandbox,
		},
		Log: slog.Default(),
	})
	require.NoError(t, err)

	doc := saleDocument()
	_, err = o.Submit(context.Background(), doc)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Issues, 2)
	names := []string{validationErr.Issues[0].Name, validationErr.Issues[1].Name}
	assert.Contains(t, names, "missing_classification_code")
	assert.Contains(t, names, "missing_quantity_unit_code")
	for _, issue := range validationErr.Issues {
		assert.NotEmpty(t, issue.Message)
	}

	assert.Equal(t, StatePending, doc.State)
	caller.AssertNotCalled(t, "Call", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitRejectsUnknownKind(t *testing.T) {
	caller := &clients.MockDeviceCaller{}
	o := newOrchestrator(t, caller, &recordingNotifier{})

	doc := saleDocument()
	doc.Kind = DocumentKind("quotation")

	_, err := o.Submit(context.Background(), doc)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Issues, 1)
	assert.Equal(t, "unknown_kind", validationErr.Issues[0].Name)

	assert.Equal(t, StatePending, doc.State)
	caller.AssertNotCalled(t, "Call", mock.Anything, mock.Anything, mock.Anything)
}

func TestValidateAdvisoryVsBlocking(t *testing.T) {
	o := newOrchestrator(t, &clients.MockDeviceCaller{}, &recordingNotifier{})

	doc := saleDocument()
	doc.Kind = KindCreditNote
	doc.OriginalID = "INV/2024/0001"
	doc.OriginalInvoiceNo = 1
	// Reason code missing.

	advisory := o.Validate(doc, false)
	require.Len(t, advisory, 1)
	assert.Equal(t, "missing_reason_code", advisory[0].Name)
	assert.False(t, advisory[0].Blocking)

	finalizing := o.Validate(doc, true)
	require.Len(t, finalizing, 1)
	assert.True(t, finalizing[0].Blocking)
}

func TestValidateCreditNoteOriginalReference(t *testing.T) {
	o := newOrchestrator(t, &clients.MockDeviceCaller{}, &recordingNotifier{})

	doc := saleDocument()
	doc.Kind = KindCreditNote
	doc.ReasonCode = "06"

	issues := o.Validate(doc, false)
	require.Len(t, issues, 1)
	assert.Equal(t, "missing_original_reference", issues[0].Name)
	assert.True(t, issues[0].Blocking, "missing original reference blocks even outside finalization")
}

func TestSubmitCreditNotePayload(t *testing.T) {
	caller := &clients.MockDeviceCaller{}
	o := newOrchestrator(t, caller, &recordingNotifier{})

	var sentPayload map[string]any
	caller.On("Call", mock.Anything, registry.OpSaveSales, mock.Anything).
		Run(func(args mock.Arguments) {
			sentPayload = args.Get(2).(map[string]any)
		}).
		Return(successData(), nil).Once()

	doc := saleDocument()
	doc.Kind = KindCreditNote
	doc.OriginalID = "INV/2024/0001"
	doc.OriginalInvoiceNo = 12
	doc.ReasonCode = "06"

	_, err := o.Submit(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, "R", sentPayload["rcptTyCd"])
	assert.Equal(t, int64(12), sentPayload["orgInvcNo"])
	assert.Equal(t, "06", sentPayload["rfdRsnCd"])
}

func TestSubmitPurchaseUsesPurchaseOperation(t *testing.T) {
	caller := &clients.MockDeviceCaller{}
	o := newOrchestrator(t, caller, &recordingNotifier{})

	caller.On("Call", mock.Anything, registry.OpSavePurchase, mock.Anything).
		Return(map[string]any{"status": "approved"}, nil).Once()

	doc := saleDocument()
	doc.Kind = KindPurchase

	_, err := o.Submit(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, doc.State)
	caller.AssertExpectations(t)
}

func TestMemorySequencePerKindCounters(t *testing.T) {
	seq := NewMemorySequence()

	for want := int64(1); want <= 3; want++ {
		n, err := seq.Next("sale")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	n, err := seq.Next("purchase")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "counters are independent per kind")
}

func TestSaveItemAndCustomer(t *testing.T) {
	caller := &clients.MockDeviceCaller{}
	o := newOrchestrator(t, caller, &recordingNotifier{})

	caller.On("Call", mock.Anything, registry.OpSaveItem, mock.Anything).
		Return(map[string]any{"itemCd": "KE1NTXU0000099"}, nil).Once()
	caller.On("Call", mock.Anything, registry.OpSaveCustomer, mock.Anything).
		Return(map[string]any{"status": "saved"}, nil).Once()

	code, err := o.SaveItem(context.Background(), Item{
		Code: "SKU-001", Name: "Consulting", ClassificationCode: "99010000",
		PackagingUnitCode: "NT", QuantityUnitCode: "U", ProductTypeCode: "3", TaxCode: "B",
	})
	require.NoError(t, err)
	assert.Equal(t, "KE1NTXU0000099", code)

	require.NoError(t, o.SaveCustomer(context.Background(), Customer{TIN: "P123456789A", Name: "Test Customer Ltd"}))

	err = o.SaveCustomer(context.Background(), Customer{Name: "No TIN"})
	assert.Error(t, err)
	caller.AssertExpectations(t)
}
