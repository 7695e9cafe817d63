package simulator

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/atomic"

	"github.com/sokoerp/etims-bridge/api"
	"github.com/sokoerp/etims-bridge/signing"
)

// Responder is a deterministic stand-in for the remote tax device. It
// produces structurally valid success envelopes without any network I/O, for
// offline integration testing and local development.
//
// The synthetic receipt signature is derived from a non-cryptographic hash of
// the canonical payload so that identical test runs reproduce identical
// signatures. This derivation is a simulation convenience only and shares no
// code path with the real HMAC signing in package signing.
type Responder struct {
	log *slog.Logger

	invoiceNo atomic.Int64
	receiptNo atomic.Int64

	// now is replaceable in tests.
	now func() time.Time
}

// New creates a simulator with counters starting at zero; the first
// simulated sale is invoice number 1.
func New(log *slog.Logger) *Responder {
	return &Responder{log: log, now: time.Now}
}

// Respond produces the envelope the device would return for a request to the
// given device API path. It always succeeds; an error is only possible when
// the payload itself cannot be serialized.
func (r *Responder) Respond(path string, payload map[string]any) (api.ResponseEnvelope, error) {
	now := api.FormatTime(r.now())

	envelope := api.ResponseEnvelope{
		ResultCode:    api.ResultSuccess,
		ResultMessage: "Success",
		ResultDate:    now,
		Data:          map[string]any{},
	}

	switch path {
	case "saveTrnsSalesOsdc":
		canonical, err := signing.Canonical(payload)
		if err != nil {
			return api.ResponseEnvelope{}, fmt.Errorf("could not serialize simulated sale payload: %w", err)
		}
		sum := md5.Sum(canonical)
		envelope.Data = map[string]any{
			"invcNo":      r.invoiceNo.Inc(),
			"curRcptNo":   r.receiptNo.Inc(),
			"rcptSign":    "DEMOSIGN" + hex.EncodeToString(sum[:]),
			"sdcDateTime": now,
			"intrlData":   base64.StdEncoding.EncodeToString(canonical),
		}
	case "insertTrnsPurchase":
		envelope.Data = map[string]any{"status": "approved"}
	case "saveItem":
		itemCode, _ := payload["itemCd"].(string)
		if itemCode == "" {
			itemCode = "DEMO_ITEM"
		}
		envelope.Data = map[string]any{"itemCd": itemCode}
	case "saveBhfCustomer":
		envelope.Data = map[string]any{"status": "saved"}
	case "selectCodeList":
		envelope.Data = map[string]any{"codeList": []any{}}
	default:
		envelope.ResultMessage = "Demo Success"
	}

	r.log.Debug("Simulated device response", "path", path, "resultCd", envelope.ResultCode)
	return envelope, nil
}
