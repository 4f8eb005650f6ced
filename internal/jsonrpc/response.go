package jsonrpc

import (
	"encoding/json"
	"fmt"

	"github.com/rorandom/rorandom-go/internal/ports"
)

// RPCError is the JSON-RPC `error` object (spec §6).
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// RawResponse is the JSON-RPC response envelope before method-specific
// extraction (spec §6): either Result or Error is populated, never both.
type RawResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      string          `json:"id"`
}

// ParseResponse decodes the raw HTTP body into a RawResponse. A body that
// is not valid JSON yields a wrapped error; callers map that to
// apierr.ProtocolError.
func ParseResponse(body []byte, codec ports.Codec) (*RawResponse, error) {
	var resp RawResponse
	if err := codec.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("jsonrpc: parse response: %w", err)
	}
	return &resp, nil
}
