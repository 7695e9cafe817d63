// Package simulator implements the demo-mode device responder: a
// deterministic, in-process stand-in for the remote eTIMS device that
// produces structurally valid success envelopes, including synthetic receipt
// signatures and sequential invoice/receipt counters.
//
// The simulator is selected purely via configuration (simulation mode) and
// never performs network I/O. It also backs the local device server in
// cmd/devicesim, which exposes the same responses over HTTP for integrations
// that insist on dialing a URL.
package simulator
