package rorandom

import (
	"context"
	"testing"
)

func TestGenerateIntegers(t *testing.T) {
	trans := &fakeTransport{}
	trans.push(`{"jsonrpc":"2.0","result":{"random":{"data":[4,5,6]},"bitsLeft":100,"requestsLeft":10}}`)
	c := newTestClient(t, "cred-generate-integers", trans)

	got, aerr := c.GenerateIntegers(context.Background(), 3, 1, 6, true)
	if aerr != nil {
		t.Fatalf("GenerateIntegers: %v", aerr)
	}
	want := []int64{4, 5, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("GenerateIntegers = %v, want %v", got, want)
		}
	}
}

func TestGenerateSignedIntegersRandomPreservedByteExact(t *testing.T) {
	randomDoc := `{"method":"generateSignedIntegers","n":2,"data":[1,2],"completionTime":"2026-01-01 00:00:00Z"}`
	trans := &fakeTransport{}
	trans.push(`{"jsonrpc":"2.0","result":{"random":` + randomDoc + `,"signature":"sig-value","bitsLeft":1,"requestsLeft":1}}`)
	c := newTestClient(t, "cred-generate-signed-integers", trans)

	res, aerr := c.GenerateSignedIntegers(context.Background(), 2, 1, 10, true, SignedOptions{})
	if aerr != nil {
		t.Fatalf("GenerateSignedIntegers: %v", aerr)
	}
	if res.Signature != "sig-value" {
		t.Fatalf("signature = %q, want sig-value", res.Signature)
	}
	if string(res.Random) != randomDoc {
		t.Fatalf("random not preserved byte-exact:\ngot:  %s\nwant: %s", res.Random, randomDoc)
	}
	if len(res.Data) != 2 || res.Data[0] != 1 || res.Data[1] != 2 {
		t.Fatalf("unexpected data: %v", res.Data)
	}
}

func TestGenerateIntegerSequencesMultiformRejectsMismatchedLengths(t *testing.T) {
	trans := &fakeTransport{}
	c := newTestClient(t, "cred-multiform-mismatch", trans)

	_, aerr := c.GenerateIntegerSequencesMultiform(context.Background(), 3,
		[]int{1, 2}, []int{0, 0, 0}, []int{9, 9, 9}, []bool{true, true, true})
	if aerr == nil {
		t.Fatal("expected a local shape error for mismatched array lengths")
	}
}

func TestGenerateUUIDsRejectsNonV4(t *testing.T) {
	trans := &fakeTransport{}
	trans.push(`{"jsonrpc":"2.0","result":{"random":{"data":["123e4567-e89b-12d3-a456-426614174000"]}}}`)
	c := newTestClient(t, "cred-generate-uuids-badver", trans)

	if _, aerr := c.GenerateUUIDs(context.Background(), 1); aerr == nil {
		t.Fatal("expected ProtocolError for a non-v4 UUID returned by the service")
	}
}

func TestGenerateDecimalFractions(t *testing.T) {
	trans := &fakeTransport{}
	trans.push(`{"jsonrpc":"2.0","result":{"random":{"data":[0.1,0.2]}}}`)
	c := newTestClient(t, "cred-generate-decimals", trans)

	got, aerr := c.GenerateDecimalFractions(context.Background(), 2, 1, true)
	if aerr != nil {
		t.Fatalf("GenerateDecimalFractions: %v", aerr)
	}
	if len(got) != 2 || got[0] != 0.1 || got[1] != 0.2 {
		t.Fatalf("unexpected fractions: %v", got)
	}
}

func TestGenerateServiceErrorPropagates(t *testing.T) {
	trans := &fakeTransport{}
	trans.push(`{"jsonrpc":"2.0","error":{"code":301,"message":"cannot use replacement=false with n > range size"}}`)
	c := newTestClient(t, "cred-generate-service-error", trans)

	_, aerr := c.GenerateIntegers(context.Background(), 11, 1, 10, false)
	if aerr == nil {
		t.Fatal("expected a service error (S2): request forwarded as-is, no client-side bound check")
	}
}
