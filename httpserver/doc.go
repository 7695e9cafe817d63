/*
Package httpserver implements the standalone demo device server.

It exposes the device API surface (POST /etims/api/{endpoint}) backed by the
in-process demo responder, so client stacks and integration tests can run the
full transport path against a local server instead of the tax authority's
sandbox.

Endpoints:

  - POST /etims/api/{endpoint} - device API calls, answered by the responder
  - GET /livez, /readyz - health checks
  - GET /drain, /undrain - load balancer rotation control
  - /debug - pprof, when enabled

A separate metrics server exposes Prometheus metrics when configured.
*/
package httpserver
