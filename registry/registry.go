package registry

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sokoerp/etims-bridge/interfaces"
)

// Logical operation names. Components refer to operations by these names;
// the registry binds them to device API paths and default timeouts.
const (
	OpInitialize   = "initialize"
	OpSaveSales    = "save_sales"
	OpSavePurchase = "save_purchase"
	OpGetInvoice   = "get_invoice"
	OpGetPurchases = "get_purchases"
	OpSaveItem     = "save_item"
	OpGetItems     = "get_items"
	OpSaveCustomer = "save_customer"
	OpGetCustomer  = "get_customer"
	OpGetCodeList  = "get_code_list"
	OpGetBranches  = "get_branches"
)

// DefaultTimeout bounds the full round trip of a device call unless the
// operation overrides it.
const DefaultTimeout = 120 * time.Second

// Operation binds a logical name to a device API path and a default timeout.
type Operation struct {
	Name    string
	Path    string
	Timeout time.Duration
}

// Endpoint is a resolved call target.
type Endpoint struct {
	URL       string
	Operation Operation
}

// Default base URLs per mode. The simulation URL is only meaningful for the
// local device simulator; in-process simulation never dials it.
var defaultBaseURLs = map[interfaces.Mode]string{
	interfaces.ModeProduction: "https://etims.kra.go.ke/etims/api/",
	interfaces.ModeSandbox:    "https://etims-test.kra.go.ke/etims/api/",
	interfaces.ModeSimulation: "http://localhost:8080/etims/api/",
}

var operations = map[string]Operation{
	OpInitialize:   {Name: OpInitialize, Path: "initOscu", Timeout: DefaultTimeout},
	OpSaveSales:    {Name: OpSaveSales, Path: "saveTrnsSalesOsdc", Timeout: DefaultTimeout},
	OpSavePurchase: {Name: OpSavePurchase, Path: "insertTrnsPurchase", Timeout: DefaultTimeout},
	OpGetInvoice:   {Name: OpGetInvoice, Path: "selectInvoiceDetails", Timeout: DefaultTimeout},
	OpGetPurchases: {Name: OpGetPurchases, Path: "selectTrnsPurchaseSalesList", Timeout: DefaultTimeout},
	OpSaveItem:     {Name: OpSaveItem, Path: "saveItem", Timeout: DefaultTimeout},
	OpGetItems:     {Name: OpGetItems, Path: "selectItemList", Timeout: DefaultTimeout},
	OpSaveCustomer: {Name: OpSaveCustomer, Path: "saveBhfCustomer", Timeout: DefaultTimeout},
	OpGetCustomer:  {Name: OpGetCustomer, Path: "selectBhfCustomer", Timeout: DefaultTimeout},
	OpGetCodeList:  {Name: OpGetCodeList, Path: "selectCodeList", Timeout: DefaultTimeout},
	OpGetBranches:  {Name: OpGetBranches, Path: "selectBhfList", Timeout: DefaultTimeout},
}

// Registry maps logical operation names to device endpoints per operating
// mode. It is immutable after construction and safe for concurrent use.
type Registry struct {
	baseURLs map[interfaces.Mode]string
	log      *slog.Logger
}

// New creates a registry with the default base URLs. Entries in overrides
// replace the default base URL for that mode; this is how deployments point
// the sandbox or simulation mode at their own hosts.
func New(log *slog.Logger, overrides map[interfaces.Mode]string) *Registry {
	baseURLs := make(map[interfaces.Mode]string, len(defaultBaseURLs))
	for mode, url := range defaultBaseURLs {
		baseURLs[mode] = url
	}
	for mode, url := range overrides {
		if url == "" {
			continue
		}
		if !strings.HasSuffix(url, "/") {
			url += "/"
		}
		baseURLs[mode] = url
	}
	return &Registry{baseURLs: baseURLs, log: log}
}

// Resolve returns the full call target for an operation in the given mode.
// An unknown operation name is reported as an error; it indicates a
// code/config mismatch, not a remote failure. An unknown mode falls back to
// production and the fallback is logged, since silently using production
// with sandbox credentials would be a correctness hazard.
func (r *Registry) Resolve(mode interfaces.Mode, operation string) (Endpoint, error) {
	op, ok := operations[operation]
	if !ok {
		return Endpoint{}, fmt.Errorf("unregistered operation %q", operation)
	}

	baseURL, ok := r.baseURLs[mode]
	if !ok {
		r.log.Warn("Unknown device mode, falling back to production base URL",
			"mode", string(mode), "operation", operation)
		baseURL = r.baseURLs[interfaces.ModeProduction]
	}

	return Endpoint{URL: baseURL + op.Path, Operation: op}, nil
}

// MustResolve is Resolve for callers that treat an unknown operation as a
// programmer error. It panics instead of returning an error.
func (r *Registry) MustResolve(mode interfaces.Mode, operation string) Endpoint {
	ep, err := r.Resolve(mode, operation)
	if err != nil {
		panic(err)
	}
	return ep
}

// Operations returns the logical names of all registered operations, for
// diagnostics and CLI help output.
func Operations() []string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	return names
}
