// Package registry provides the static endpoint registry of the eTIMS device
// API: the binding from logical operation names (save_sales, get_code_list,
// ...) to device API paths, per-mode base URLs and default timeouts.
//
// The registry is constructed once at startup and read-only afterwards. It is
// an explicit dependency of the device client rather than an ambient lookup
// table, so tests and tools can point modes at their own hosts.
//
// Two failure semantics are deliberate:
//
//   - An unknown operation name is a programmer error (the code and the
//     registry disagree); MustResolve panics on it.
//   - An unknown mode falls back to the production base URL, and the
//     fallback is logged so a misconfigured deployment is observable.
package registry
