package ports

import "encoding/json"

// jsonCodec is the default Codec, wrapping encoding/json.
type jsonCodec struct{}

// DefaultCodec returns the encoding/json-backed Codec used when a Client is
// constructed without an explicit override.
func DefaultCodec() Codec { return jsonCodec{} }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
