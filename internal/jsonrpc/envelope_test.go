package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/rorandom/rorandom-go/internal/ports"
)

type fakeUUIDSource struct{ id string }

func (f fakeUUIDSource) NewV4() string { return f.id }

func TestBuildInjectsCredential(t *testing.T) {
	codec := ports.DefaultCodec()
	out, err := Build("generateIntegers", map[string]any{"n": 5}, "secret-key", true, codec, fakeUUIDSource{"fixed-id"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(out, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.JSONRPC != "2.0" || env.Method != "generateIntegers" || env.ID != "fixed-id" {
		t.Fatalf("unexpected envelope: %+v", env)
	}

	var params map[string]any
	if err := json.Unmarshal(env.Params, &params); err != nil {
		t.Fatalf("unmarshal params: %v", err)
	}
	if params["apiKey"] != "secret-key" {
		t.Fatalf("apiKey not injected: %+v", params)
	}
	if params["n"] != float64(5) {
		t.Fatalf("n not forwarded: %+v", params)
	}
}

func TestBuildOmitsCredentialWhenNotNeeded(t *testing.T) {
	codec := ports.DefaultCodec()
	out, err := Build("verifySignature", map[string]any{}, "secret-key", false, codec, fakeUUIDSource{"id"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var env Envelope
	json.Unmarshal(out, &env)
	var params map[string]any
	json.Unmarshal(env.Params, &params)
	if _, ok := params["apiKey"]; ok {
		t.Fatalf("apiKey should not be present: %+v", params)
	}
}

func TestBuildDoesNotMutateCallerParams(t *testing.T) {
	codec := ports.DefaultCodec()
	original := map[string]any{"n": 5}
	if _, err := Build("generateIntegers", original, "secret", true, codec, fakeUUIDSource{"id"}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := original["apiKey"]; ok {
		t.Fatal("Build must not mutate the caller's params map")
	}
}
