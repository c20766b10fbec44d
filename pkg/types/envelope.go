package types

import "encoding/json"

// Envelope is the uniform wire shape returned by every backend endpoint.
// Data stays raw so the pipeline can unwrap it into caller-provided types.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}
