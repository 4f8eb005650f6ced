package jsonrpc

import (
	"testing"

	"github.com/rorandom/rorandom-go/internal/ports"
)

func TestParseResponseSuccess(t *testing.T) {
	body := []byte(`{"jsonrpc":"2.0","result":{"bitsLeft":10},"id":"abc"}`)
	resp, err := ParseResponse(body, ports.DefaultCodec())
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("expected no error object, got %+v", resp.Error)
	}
	if string(resp.Result) != `{"bitsLeft":10}` {
		t.Fatalf("unexpected result: %s", resp.Result)
	}
}

func TestParseResponseError(t *testing.T) {
	body := []byte(`{"jsonrpc":"2.0","error":{"code":402,"message":"quota"},"id":"abc"}`)
	resp, err := ParseResponse(body, ports.DefaultCodec())
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != 402 || resp.Error.Message != "quota" {
		t.Fatalf("unexpected error object: %+v", resp.Error)
	}
}

func TestParseResponseMalformed(t *testing.T) {
	if _, err := ParseResponse([]byte("not json"), ports.DefaultCodec()); err == nil {
		t.Fatal("expected error for malformed body")
	}
}
