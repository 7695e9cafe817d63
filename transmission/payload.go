package transmission

import (
	"fmt"
	"time"

	"github.com/sokoerp/etims-bridge/api"
	"github.com/sokoerp/etims-bridge/interfaces"
)

// Receipt type codes of the device protocol.
const (
	receiptTypeSale       = "S"
	receiptTypeCreditNote = "R"
)

// buildSalesPayload maps a sale or credit note onto the saveTrnsSalesOsdc
// wire shape. The mapping is deterministic: the same document and sequence
// number always produce the same payload, which keeps the request signature
// reproducible.
func (o *Orchestrator) buildSalesPayload(doc *Document, sequence int64, now time.Time) (map[string]any, error) {
	receiptType := receiptTypeSale
	if doc.Kind == KindCreditNote {
		receiptType = receiptTypeCreditNote
	}

	items, err := o.buildItemList(doc)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"tin":         o.creds.TIN,
		"bhfId":       o.creds.BranchID,
		"invcNo":      sequence,
		"salesTyCd":   "N",
		"rcptTyCd":    receiptType,
		"salesSttsCd": "02",
		"custTin":     doc.Customer.TIN,
		"custNm":      doc.Customer.Name,
		"salesDt":     doc.Date.Format("20060102"),
		"cfmDt":       api.FormatTime(now),
		"totItemCnt":  len(doc.Lines),
		"totTaxblAmt": doc.TotalTaxable,
		"totTaxAmt":   doc.TotalTax,
		"totAmt":      doc.TotalAmount,
		"itemList":    items,
	}

	if doc.Kind == KindCreditNote {
		payload["orgInvcNo"] = doc.OriginalInvoiceNo
		payload["rfdRsnCd"] = doc.ReasonCode
		payload["rfdDt"] = api.FormatTime(now)
	}

	return payload, nil
}

// buildPurchasePayload maps a purchase confirmation onto the
// insertTrnsPurchase wire shape.
func (o *Orchestrator) buildPurchasePayload(doc *Document, sequence int64, now time.Time) (map[string]any, error) {
	items, err := o.buildItemList(doc)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"tin":         o.creds.TIN,
		"bhfId":       o.creds.BranchID,
		"invcNo":      sequence,
		"pchsTyCd":    "N",
		"pchsSttsCd":  "02",
		"spplrTin":    doc.Customer.TIN,
		"spplrNm":     doc.Customer.Name,
		"pchsDt":      doc.Date.Format("20060102"),
		"cfmDt":       api.FormatTime(now),
		"totItemCnt":  len(doc.Lines),
		"totTaxblAmt": doc.TotalTaxable,
		"totTaxAmt":   doc.TotalTax,
		"totAmt":      doc.TotalAmount,
		"itemList":    items,
	}, nil
}

// buildItemList expands document lines with their catalog classification
// codes. Validation has already run, so a missing catalog entry here is a
// caller bug (the catalog changed between validation and submission).
func (o *Orchestrator) buildItemList(doc *Document) ([]any, error) {
	items := make([]any, 0, len(doc.Lines))
	for i, line := range doc.Lines {
		entry, ok := o.catalog.Lookup(line.ItemCode)
		if !ok {
			return nil, fmt.Errorf("catalog entry for item %q disappeared between validation and submission", line.ItemCode)
		}
		items = append(items, map[string]any{
			"itemSeq":   i + 1,
			"itemCd":    itemCodeFor(line, entry),
			"itemClsCd": entry.ClassificationCode,
			"itemNm":    line.Description,
			"pkgUnitCd": entry.PackagingUnitCode,
			"qtyUnitCd": entry.QuantityUnitCode,
			"qty":       line.Quantity,
			"prc":       line.UnitPrice,
			"splyAmt":   line.TaxableAmount,
			"taxTyCd":   line.TaxCode,
			"taxblAmt":  line.TaxableAmount,
			"taxAmt":    line.TaxAmount,
			"totAmt":    line.TotalAmount,
		})
	}
	return items, nil
}

func itemCodeFor(line Line, entry interfaces.CatalogEntry) string {
	if entry.ItemCode != "" {
		return entry.ItemCode
	}
	return line.ItemCode
}

// receiptFromData extracts the transmission record from a successful device
// response.
func receiptFromData(data map[string]any) *Receipt {
	receipt := &Receipt{
		ReceiptNumber: toInt64(data["curRcptNo"]),
		InvoiceNumber: toInt64(data["invcNo"]),
	}
	if sign, ok := data["rcptSign"].(string); ok {
		receipt.Signature = sign
	}
	if intrl, ok := data["intrlData"].(string); ok {
		receipt.InternalData = intrl
	}
	if raw, ok := data["sdcDateTime"].(string); ok {
		if confirmedAt, err := api.ParseTime(raw); err == nil {
			receipt.ConfirmedAt = confirmedAt
		}
	}
	return receipt
}

// toInt64 tolerates the two numeric representations seen in decoded
// responses: float64 from encoding/json and int64 from the in-process
// simulator.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
