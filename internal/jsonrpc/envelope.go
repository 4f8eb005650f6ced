// Package jsonrpc builds the outbound JSON-RPC 2.0 envelope (spec §4.2) and
// parses the service's response envelope (spec §6) ahead of C3 extraction.
package jsonrpc

import (
	"encoding/json"
	"fmt"

	"github.com/rorandom/rorandom-go/internal/ports"
)

// Envelope is the outbound wire shape: {jsonrpc, method, params, id}.
type Envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      string          `json:"id"`
}

// Build wraps params in a JSON-RPC 2.0 envelope with a fresh UUIDv4 id.
// When needsCredential is true, "apiKey" is injected into params before
// encoding (spec §4.2). params is not mutated; a shallow copy is made.
func Build(method string, params map[string]any, credential string, needsCredential bool, codec ports.Codec, ids ports.UUIDSource) ([]byte, error) {
	p := make(map[string]any, len(params)+1)
	for k, v := range params {
		p[k] = v
	}
	if needsCredential {
		p["apiKey"] = credential
	}

	rawParams, err := codec.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("jsonrpc: marshal params: %w", err)
	}

	env := Envelope{
		JSONRPC: "2.0",
		Method:  method,
		Params:  rawParams,
		ID:      ids.NewV4(),
	}

	out, err := codec.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("jsonrpc: marshal envelope: %w", err)
	}
	return out, nil
}
