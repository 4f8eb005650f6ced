// Package extract implements the response-extraction discipline of spec
// §4.4.3: decoding the method-specific result.random.data payload into
// typed vectors, and pulling signature/ticket/authenticity fields out of
// the result object. The `random` sub-object is always carried as
// json.RawMessage so it survives byte-exact for downstream verification
// (spec §9, "JSON preservation") — encoding/json.RawMessage holds the raw
// input slice rather than a re-serialization, so no key reordering or
// whitespace normalization happens across this boundary.
package extract

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/rorandom/rorandom-go/internal/apierr"
	"github.com/rorandom/rorandom-go/internal/ports"
)

// ResultEnvelope is the common shell of a plain or signed generate-*
// `result` object (spec §6).
type ResultEnvelope struct {
	Random        json.RawMessage `json:"random"`
	Signature     string          `json:"signature"`
	BitsUsed      int64           `json:"bitsUsed"`
	BitsLeft      *int64          `json:"bitsLeft"`
	RequestsUsed  int64           `json:"requestsUsed"`
	RequestsLeft  *int64          `json:"requestsLeft"`
	AdvisoryDelay *int64          `json:"advisoryDelay"`
}

// randomEnvelope is the shape of the `random` sub-object far enough to
// reach `data` and `method`; everything else inside it is preserved
// verbatim via the caller holding onto ResultEnvelope.Random.
type randomEnvelope struct {
	Method string          `json:"method"`
	Data   json.RawMessage `json:"data"`
}

// Method returns the originating generate-* method name carried in
// result.random.method. Used by ticket retrieval (spec §4.4.2) to dispatch
// a stored result through the same typed extraction path as a direct
// generate-* call.
func Method(env *ResultEnvelope, codec ports.Codec) (string, *apierr.Error) {
	var r randomEnvelope
	if err := codec.Unmarshal(env.Random, &r); err != nil {
		return "", apierr.Newf(apierr.ProtocolError, "decode random.method: %v", err)
	}
	return r.Method, nil
}

// ParseResult decodes result into a ResultEnvelope.
func ParseResult(result json.RawMessage, codec ports.Codec) (*ResultEnvelope, *apierr.Error) {
	var env ResultEnvelope
	if err := codec.Unmarshal(result, &env); err != nil {
		return nil, apierr.Newf(apierr.ProtocolError, "decode result: %v", err)
	}
	return &env, nil
}

// dataOf pulls the raw `data` array out of a `random` sub-object.
func dataOf(env *ResultEnvelope, codec ports.Codec) (json.RawMessage, *apierr.Error) {
	var r randomEnvelope
	if err := codec.Unmarshal(env.Random, &r); err != nil {
		return nil, apierr.Newf(apierr.ProtocolError, "decode random.data: %v", err)
	}
	return r.Data, nil
}

// Integers decodes result.random.data as a base-10 integer vector.
func Integers(env *ResultEnvelope, codec ports.Codec) ([]int64, *apierr.Error) {
	data, aerr := dataOf(env, codec)
	if aerr != nil {
		return nil, aerr
	}
	var out []int64
	if err := codec.Unmarshal(data, &out); err != nil {
		return nil, apierr.Newf(apierr.ProtocolError, "decode integer data: %v", err)
	}
	return out, nil
}

// IntegersAsDigitStrings decodes result.random.data as a vector of decimal
// digit strings, used for any display base other than 10 (spec §4.4.2,
// §4.4.3).
func IntegersAsDigitStrings(env *ResultEnvelope, codec ports.Codec) ([]string, *apierr.Error) {
	return Strings(env, codec)
}

// IntegerSequences decodes result.random.data as a vector of base-10
// integer sequences.
func IntegerSequences(env *ResultEnvelope, codec ports.Codec) ([][]int64, *apierr.Error) {
	data, aerr := dataOf(env, codec)
	if aerr != nil {
		return nil, aerr
	}
	var out [][]int64
	if err := codec.Unmarshal(data, &out); err != nil {
		return nil, apierr.Newf(apierr.ProtocolError, "decode integer sequence data: %v", err)
	}
	return out, nil
}

// IntegerSequencesAsDigitStrings decodes result.random.data as a vector of
// digit-string sequences, used for any display base other than 10.
func IntegerSequencesAsDigitStrings(env *ResultEnvelope, codec ports.Codec) ([][]string, *apierr.Error) {
	data, aerr := dataOf(env, codec)
	if aerr != nil {
		return nil, aerr
	}
	var out [][]string
	if err := codec.Unmarshal(data, &out); err != nil {
		return nil, apierr.Newf(apierr.ProtocolError, "decode integer sequence data: %v", err)
	}
	return out, nil
}

// Floats decodes result.random.data as a float64 vector (decimal fractions
// and Gaussians share this shape).
func Floats(env *ResultEnvelope, codec ports.Codec) ([]float64, *apierr.Error) {
	data, aerr := dataOf(env, codec)
	if aerr != nil {
		return nil, aerr
	}
	var out []float64
	if err := codec.Unmarshal(data, &out); err != nil {
		return nil, apierr.Newf(apierr.ProtocolError, "decode float data: %v", err)
	}
	return out, nil
}

// Strings decodes result.random.data as a string vector (strings and blobs
// share this shape).
func Strings(env *ResultEnvelope, codec ports.Codec) ([]string, *apierr.Error) {
	data, aerr := dataOf(env, codec)
	if aerr != nil {
		return nil, aerr
	}
	var out []string
	if err := codec.Unmarshal(data, &out); err != nil {
		return nil, apierr.Newf(apierr.ProtocolError, "decode string data: %v", err)
	}
	return out, nil
}

// UUIDs decodes result.random.data as a vector of strings and parses each
// one per RFC 4122 §4.4, verifying the version-4 / variant-10 bit layout
// (invariant 8). A malformed entry fails ProtocolError.
func UUIDs(env *ResultEnvelope, codec ports.Codec) ([]uuid.UUID, *apierr.Error) {
	raw, aerr := Strings(env, codec)
	if aerr != nil {
		return nil, aerr
	}
	out := make([]uuid.UUID, len(raw))
	for i, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, apierr.Newf(apierr.ProtocolError, "decode uuid %q: %v", s, err)
		}
		if id.Version() != 4 || id.Variant() != uuid.RFC4122 {
			return nil, apierr.Newf(apierr.ProtocolError, "uuid %q is not a valid RFC 4122 v4 UUID", s)
		}
		out[i] = id
	}
	return out, nil
}

// Authenticity decodes a verifySignature result object: {authenticity: bool}.
func Authenticity(result json.RawMessage, codec ports.Codec) (bool, *apierr.Error) {
	var v struct {
		Authenticity bool `json:"authenticity"`
	}
	if err := codec.Unmarshal(result, &v); err != nil {
		return false, apierr.Newf(apierr.ProtocolError, "decode authenticity: %v", err)
	}
	return v.Authenticity, nil
}

// AdvisoryDelayMillis returns the response-carried advisory delay in
// milliseconds, or def when the field was absent (spec §4.3.4).
func AdvisoryDelayMillis(env *ResultEnvelope, def int64) int64 {
	if env.AdvisoryDelay == nil {
		return def
	}
	return *env.AdvisoryDelay
}
