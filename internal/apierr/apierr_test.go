package apierr

import "testing"

func TestFromServiceCode(t *testing.T) {
	cases := []struct {
		code int
		want Kind
	}{
		{401, KeyNotRunning},
		{402, InsufficientRequests},
		{403, InsufficientBits},
		{100, ServiceError},
		{204, ServiceError},
		{307, ServiceError},
		{405, ServiceError},
		{426, ServiceError},
		{500, ServiceError},
		{32000, ServiceError},
		{999, ProtocolError},
		{0, ProtocolError},
	}
	for _, c := range cases {
		got := FromServiceCode(c.code, "msg", nil)
		if got.Kind != c.want {
			t.Errorf("FromServiceCode(%d) kind = %v, want %v", c.code, got.Kind, c.want)
		}
		if got.Code != c.code {
			t.Errorf("FromServiceCode(%d) code = %d, want %d", c.code, got.Code, c.code)
		}
	}
}

func TestFromServiceCodeBitsRemaining(t *testing.T) {
	bits := int64(42)
	err := FromServiceCode(403, "no bits", &bits)
	if err.BitsRemaining == nil || *err.BitsRemaining != 42 {
		t.Fatalf("expected BitsRemaining 42, got %v", err.BitsRemaining)
	}
}

func TestIsRetryableTransport(t *testing.T) {
	if IsRetryableTransport(nil) {
		t.Fatal("nil error must not be retryable")
	}
	if !IsRetryableTransport(&Error{Kind: IO}) {
		t.Fatal("IO errors must be retryable")
	}
	if !IsRetryableTransport(&Error{Kind: BadHTTPResponse, Status: 503}) {
		t.Fatal("503 must be retryable")
	}
	if IsRetryableTransport(&Error{Kind: BadHTTPResponse, Status: 404}) {
		t.Fatal("404 must not be retryable")
	}
	if IsRetryableTransport(&Error{Kind: KeyNotRunning}) {
		t.Fatal("KeyNotRunning must not be retryable")
	}
}

func TestKindStringMalformedURL(t *testing.T) {
	if got := MalformedURL.String(); got != "MalformedURL" {
		t.Fatalf("MalformedURL.String() = %q, want MalformedURL", got)
	}
	err := New(MalformedURL, "build request: invalid control character in URL")
	if err.Error() == "" {
		t.Fatal("expected non-empty error string")
	}
}

func TestErrorStringDoesNotPanicOnNil(t *testing.T) {
	var e *Error
	if e.Error() != "<nil>" {
		t.Fatalf("nil *Error.Error() = %q, want <nil>", e.Error())
	}
}
