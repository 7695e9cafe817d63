package transmission

import (
	"context"
	"fmt"

	"github.com/sokoerp/etims-bridge/registry"
)

// Item is the master-data shape for registering a product with the device.
type Item struct {
	Code               string
	Name               string
	ClassificationCode string
	PackagingUnitCode  string
	QuantityUnitCode   string
	OriginCountryCode  string
	ProductTypeCode    string
	UnitPrice          float64
	TaxCode            string
}

// Customer is the master-data shape for registering a customer branch.
type Customer struct {
	Number string
	TIN    string
	Name   string
}

// SaveItem registers or updates an item on the device and returns the
// device-assigned item code.
func (o *Orchestrator) SaveItem(ctx context.Context, item Item) (string, error) {
	payload := map[string]any{
		"tin":       o.creds.TIN,
		"bhfId":     o.creds.BranchID,
		"itemCd":    item.Code,
		"itemClsCd": item.ClassificationCode,
		"itemNm":    item.Name,
		"itemTyCd":  item.ProductTypeCode,
		"orgnNatCd": item.OriginCountryCode,
		"pkgUnitCd": item.PackagingUnitCode,
		"qtyUnitCd": item.QuantityUnitCode,
		"dftPrc":    item.UnitPrice,
		"taxTyCd":   item.TaxCode,
		"useYn":     "Y",
	}

	data, err := o.caller.Call(ctx, registry.OpSaveItem, payload)
	if err != nil {
		return "", err
	}
	code, _ := data["itemCd"].(string)
	if code == "" {
		code = item.Code
	}
	return code, nil
}

// SaveCustomer registers or updates a customer on the device.
func (o *Orchestrator) SaveCustomer(ctx context.Context, customer Customer) error {
	if customer.TIN == "" {
		return fmt.Errorf("customer %q has no TIN", customer.Name)
	}
	payload := map[string]any{
		"tin":     o.creds.TIN,
		"bhfId":   o.creds.BranchID,
		"custNo":  customer.Number,
		"custTin": customer.TIN,
		"custNm":  customer.Name,
		"useYn":   "Y",
	}

	_, err := o.caller.Call(ctx, registry.OpSaveCustomer, payload)
	return err
}

// FetchCodeList retrieves the device's standard code tables (packaging
// units, quantity units, tax types, ...) changed since the given device
// timestamp. An empty since fetches everything.
func (o *Orchestrator) FetchCodeList(ctx context.Context, since string) (map[string]any, error) {
	if since == "" {
		since = "20180101000000"
	}
	return o.caller.Call(ctx, registry.OpGetCodeList, o.identityPayload(map[string]any{"lastReqDt": since}))
}

// FetchItems retrieves the item master list registered on the device.
func (o *Orchestrator) FetchItems(ctx context.Context, since string) (map[string]any, error) {
	if since == "" {
		since = "20180101000000"
	}
	return o.caller.Call(ctx, registry.OpGetItems, o.identityPayload(map[string]any{"lastReqDt": since}))
}

// FetchInvoice retrieves the device-side details of a transmitted invoice.
func (o *Orchestrator) FetchInvoice(ctx context.Context, invoiceNumber int64) (map[string]any, error) {
	return o.caller.Call(ctx, registry.OpGetInvoice, o.identityPayload(map[string]any{"invcNo": invoiceNumber}))
}

// FetchPurchases retrieves purchase transactions registered against the
// company TIN since the given device timestamp.
func (o *Orchestrator) FetchPurchases(ctx context.Context, since string) (map[string]any, error) {
	if since == "" {
		since = "20180101000000"
	}
	return o.caller.Call(ctx, registry.OpGetPurchases, o.identityPayload(map[string]any{"lastReqDt": since}))
}

// FetchCustomer retrieves the registration record of a customer by TIN.
func (o *Orchestrator) FetchCustomer(ctx context.Context, customerTIN string) (map[string]any, error) {
	return o.caller.Call(ctx, registry.OpGetCustomer, o.identityPayload(map[string]any{"custmTin": customerTIN}))
}

// FetchBranches retrieves the branch list registered for the company TIN.
func (o *Orchestrator) FetchBranches(ctx context.Context, since string) (map[string]any, error) {
	if since == "" {
		since = "20180101000000"
	}
	return o.caller.Call(ctx, registry.OpGetBranches, o.identityPayload(map[string]any{"lastReqDt": since}))
}

// Initialize performs the one-time device initialization handshake for this
// TIN/branch and returns the device-supplied configuration data.
func (o *Orchestrator) Initialize(ctx context.Context, deviceSerial string) (map[string]any, error) {
	return o.caller.Call(ctx, registry.OpInitialize, o.identityPayload(map[string]any{"dvcSrlNo": deviceSerial}))
}

func (o *Orchestrator) identityPayload(extra map[string]any) map[string]any {
	payload := map[string]any{
		"tin":   o.creds.TIN,
		"bhfId": o.creds.BranchID,
	}
	for k, v := range extra {
		payload[k] = v
	}
	return payload
}
