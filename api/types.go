// Package api defines the wire-level types of the eTIMS device protocol:
// the response envelope, identity headers, result codes and the timestamp
// format used by the device.
package api

import (
	"fmt"
	"time"
)

// Identity headers attached to every outgoing request. They are set fresh on
// each request, never on a shared session, so a reused client can never leak
// one company's identity into another company's call.
const (
	// HeaderTIN carries the company tax identification number.
	HeaderTIN = "tin"

	// HeaderBranchID carries the KRA branch code.
	HeaderBranchID = "bhfId"

	// HeaderSignature carries the base64 HMAC-SHA256 signature of the
	// canonical request payload under the CMC key.
	HeaderSignature = "sign"
)

const (
	// ResultSuccess is the all-clear result code of the device protocol.
	ResultSuccess = "000"

	// MaxBodyExcerpt caps the response body excerpt carried in transport
	// errors, so a misbehaving counterparty cannot grow logs unboundedly.
	MaxBodyExcerpt = 200

	// MaxResponseBody caps how much of a response body is read at all (1MB).
	MaxResponseBody = 1024 * 1024
)

// ResponseEnvelope is the JSON shape every device response uses, both for
// success and for application-level rejection.
type ResponseEnvelope struct {
	ResultCode    string         `json:"resultCd"`
	ResultMessage string         `json:"resultMsg"`
	ResultDate    string         `json:"resultDt"`
	Data          map[string]any `json:"data"`
}

// timestampLayout is the device's timestamp format (yyyyMMddHHmmss).
const timestampLayout = "20060102150405"

// deviceLocation is the timezone the device reports timestamps in.
var deviceLocation = mustLoadNairobi()

func mustLoadNairobi() *time.Location {
	loc, err := time.LoadLocation("Africa/Nairobi")
	if err != nil {
		// EAT has no DST; a fixed offset is an exact substitute when the
		// tz database is unavailable.
		return time.FixedZone("EAT", 3*60*60)
	}
	return loc
}

// FormatTime renders t in the device timestamp format, in the device's
// timezone.
func FormatTime(t time.Time) string {
	return t.In(deviceLocation).Format(timestampLayout)
}

// ParseTime parses a device timestamp into UTC.
func ParseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timestampLayout, s, deviceLocation)
	if err != nil {
		return time.Time{}, fmt.Errorf("could not parse device timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
