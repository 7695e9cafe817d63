package signing

import (
	"encoding/json"
	"io"
)

// newCanonicalEncoder returns a JSON encoder producing the canonical wire
// form. encoding/json already sorts map keys; disabling HTML escaping keeps
// the bytes identical to what the counterparty computes over the raw JSON.
func newCanonicalEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}
