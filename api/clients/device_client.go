package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sokoerp/etims-bridge/api"
	"github.com/sokoerp/etims-bridge/interfaces"
	"github.com/sokoerp/etims-bridge/metrics"
	"github.com/sokoerp/etims-bridge/registry"
	"github.com/sokoerp/etims-bridge/signing"
	"github.com/sokoerp/etims-bridge/simulator"
)

// DeviceClient executes signed operations against the eTIMS device for one
// company credential set. It owns a single long-lived HTTP session for
// connection pooling, but is otherwise stateless across calls: identity
// headers are set fresh on every request, never accumulated on the session.
//
// Expected failures (timeout, connection error, malformed body, non-success
// result code) are returned as typed errors, never panics. Only programmer
// errors abort: calling an operation the endpoint registry does not know.
type DeviceClient struct {
	creds    interfaces.Credentials
	registry *registry.Registry
	session  *http.Client
	sim      *simulator.Responder
	timeout  time.Duration
	log      *slog.Logger
}

// Option adjusts a DeviceClient at construction time.
type Option func(*DeviceClient)

// WithHTTPClient replaces the underlying HTTP session. Tests use this to
// inject a counting transport; deployments use it for proxies or custom TLS.
func WithHTTPClient(session *http.Client) Option {
	return func(c *DeviceClient) { c.session = session }
}

// WithSimulator replaces the simulation responder, sharing its counters with
// a co-located device simulator server.
func WithSimulator(sim *simulator.Responder) Option {
	return func(c *DeviceClient) { c.sim = sim }
}

// WithTimeout replaces every operation's default timeout. A non-positive
// value keeps the per-operation defaults.
func WithTimeout(timeout time.Duration) Option {
	return func(c *DeviceClient) { c.timeout = timeout }
}

// NewDeviceClient validates the credentials and builds a client. In
// simulation mode all calls are answered in-process and the HTTP session is
// never used.
func NewDeviceClient(creds interfaces.Credentials, reg *registry.Registry, log *slog.Logger, opts ...Option) (*DeviceClient, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	c := &DeviceClient{
		creds:    creds,
		registry: reg,
		session:  &http.Client{},
		log:      log,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sim == nil && creds.Mode == interfaces.ModeSimulation {
		c.sim = simulator.New(log)
	}
	return c, nil
}

// Call executes one named operation with the given payload and returns the
// nested data payload of a successful response.
//
// Failure classification:
//   - the device answered with a non-"000" result code: *api.RemoteError
//   - anything transport-level went wrong: *api.TransportError with a Kind
//     of timeout, connection, malformed-response or http-status
//
// The operation's default timeout bounds the full round trip unless ctx
// already carries an earlier deadline.
func (c *DeviceClient) Call(ctx context.Context, operation string, payload map[string]any) (map[string]any, error) {
	start := time.Now()
	data, err := c.call(ctx, operation, payload)
	metrics.DeviceCalls.WithLabelValues(operation, outcomeLabel(err)).Inc()
	metrics.DeviceCallDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	return data, err
}

func (c *DeviceClient) call(ctx context.Context, operation string, payload map[string]any) (map[string]any, error) {
	endpoint := c.registry.MustResolve(c.creds.Mode, operation)

	if c.creds.Mode == interfaces.ModeSimulation {
		envelope, err := c.sim.Respond(endpoint.Operation.Path, payload)
		if err != nil {
			return nil, &api.TransportError{Kind: api.TransportMalformedResponse, Message: err.Error()}
		}
		return c.classify(envelope)
	}

	// The request body is the exact canonical byte sequence the signature
	// was computed over.
	body, err := signing.Canonical(payload)
	if err != nil {
		return nil, fmt.Errorf("could not serialize payload for %s: %w", operation, err)
	}
	sign, err := signing.Sign(payload, c.creds.Key)
	if err != nil {
		return nil, fmt.Errorf("could not sign payload for %s: %w", operation, err)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		timeout := endpoint.Operation.Timeout
		if c.timeout > 0 {
			timeout = c.timeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not build request for %s: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(api.HeaderTIN, c.creds.TIN)
	req.Header.Set(api.HeaderBranchID, c.creds.BranchID)
	req.Header.Set(api.HeaderSignature, sign)

	callID := uuid.NewString()
	c.log.Info("Device call", "operation", operation, "url", endpoint.URL, "callId", callID)

	resp, err := c.session.Do(req)
	if err != nil {
		kind := api.TransportConnection
		if isTimeout(err) {
			kind = api.TransportTimeout
		}
		c.log.Warn("Device call failed", "operation", operation, "callId", callID, "kind", string(kind), "err", err)
		return nil, &api.TransportError{Kind: kind, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, api.MaxResponseBody))
	if err != nil {
		if isTimeout(err) {
			return nil, &api.TransportError{Kind: api.TransportTimeout, Message: err.Error()}
		}
		return nil, &api.TransportError{Kind: api.TransportConnection, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("Device returned non-2xx status",
			"operation", operation, "callId", callID, "status", resp.StatusCode)
		return nil, &api.TransportError{
			Kind:        api.TransportHTTPStatus,
			Message:     fmt.Sprintf("HTTP %d", resp.StatusCode),
			StatusCode:  resp.StatusCode,
			BodyExcerpt: api.Excerpt(respBody),
		}
	}

	var envelope api.ResponseEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, &api.TransportError{
			Kind:    api.TransportMalformedResponse,
			Message: fmt.Sprintf("undecodable response body: %v", err),
		}
	}
	return c.classify(envelope)
}

// classify maps a protocol envelope onto the call outcome: the nested data
// for the all-clear result code, a RemoteError for everything else.
func (c *DeviceClient) classify(envelope api.ResponseEnvelope) (map[string]any, error) {
	if envelope.ResultCode == "" {
		return nil, &api.TransportError{
			Kind:    api.TransportMalformedResponse,
			Message: "response body carries no result code",
		}
	}
	if envelope.ResultCode != api.ResultSuccess {
		return nil, &api.RemoteError{
			Code:      envelope.ResultCode,
			Message:   envelope.ResultMessage,
			Timestamp: envelope.ResultDate,
		}
	}
	if envelope.Data == nil {
		return map[string]any{}, nil
	}
	return envelope.Data, nil
}

// outcomeLabel names the call result for the metrics counter.
func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	var remoteErr *api.RemoteError
	if errors.As(err, &remoteErr) {
		return "remote-error"
	}
	var transportErr *api.TransportError
	if errors.As(err, &transportErr) {
		return string(transportErr.Kind)
	}
	return "error"
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
