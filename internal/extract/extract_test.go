package extract

import (
	"encoding/json"
	"testing"

	"github.com/rorandom/rorandom-go/internal/ports"
)

func mustParse(t *testing.T, raw string) *ResultEnvelope {
	t.Helper()
	env, aerr := ParseResult(json.RawMessage(raw), ports.DefaultCodec())
	if aerr != nil {
		t.Fatalf("ParseResult: %v", aerr)
	}
	return env
}

func TestIntegers(t *testing.T) {
	env := mustParse(t, `{"random":{"data":[1,2,3]},"bitsLeft":1,"requestsLeft":1}`)
	got, aerr := Integers(env, ports.DefaultCodec())
	if aerr != nil {
		t.Fatalf("Integers: %v", aerr)
	}
	want := []int64{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Integers = %v, want %v", got, want)
		}
	}
}

func TestIntegerSequences(t *testing.T) {
	env := mustParse(t, `{"random":{"data":[[1,2],[3,4]]}}`)
	got, aerr := IntegerSequences(env, ports.DefaultCodec())
	if aerr != nil {
		t.Fatalf("IntegerSequences: %v", aerr)
	}
	if len(got) != 2 || got[0][1] != 2 || got[1][0] != 3 {
		t.Fatalf("unexpected sequences: %v", got)
	}
}

func TestUUIDsRejectsNonV4(t *testing.T) {
	// Version nibble forced to 1 (not 4).
	env := mustParse(t, `{"random":{"data":["123e4567-e89b-12d3-a456-426614174000"]}}`)
	if _, aerr := UUIDs(env, ports.DefaultCodec()); aerr == nil {
		t.Fatal("expected ProtocolError for non-v4 UUID")
	}
}

func TestUUIDsAcceptsV4(t *testing.T) {
	env := mustParse(t, `{"random":{"data":["4c4f2f9a-9f1c-4f8e-8f0a-0123456789ab"]}}`)
	got, aerr := UUIDs(env, ports.DefaultCodec())
	if aerr != nil {
		t.Fatalf("UUIDs: %v", aerr)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 uuid, got %d", len(got))
	}
}

func TestRandomPreservedByteExact(t *testing.T) {
	raw := `{"method":"generateSignedIntegers","n":1,"data":[7],"completionTime":"2026-01-01 00:00:00Z"}`
	full := `{"random":` + raw + `,"signature":"sig"}`
	env := mustParse(t, full)
	if string(env.Random) != raw {
		t.Fatalf("random not preserved byte-exact:\ngot:  %s\nwant: %s", env.Random, raw)
	}
}

func TestAdvisoryDelayMillisDefault(t *testing.T) {
	env := mustParse(t, `{"random":{"data":[1]}}`)
	if got := AdvisoryDelayMillis(env, 1000); got != 1000 {
		t.Fatalf("AdvisoryDelayMillis = %d, want 1000 (default)", got)
	}
}

func TestAdvisoryDelayMillisPresent(t *testing.T) {
	env := mustParse(t, `{"random":{"data":[1]},"advisoryDelay":2500}`)
	if got := AdvisoryDelayMillis(env, 1000); got != 2500 {
		t.Fatalf("AdvisoryDelayMillis = %d, want 2500", got)
	}
}

func TestAuthenticity(t *testing.T) {
	ok, aerr := Authenticity(json.RawMessage(`{"authenticity":true}`), ports.DefaultCodec())
	if aerr != nil {
		t.Fatalf("Authenticity: %v", aerr)
	}
	if !ok {
		t.Fatal("expected authenticity true")
	}
}
