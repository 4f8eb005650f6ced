package rorandom

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/rorandom/rorandom-go/internal/ports"
)

type fakeTransport struct {
	mu        sync.Mutex
	responses []string
	calls     [][]byte
}

func (f *fakeTransport) push(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, body)
}

func (f *fakeTransport) Do(ctx context.Context, body []byte) (int, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, body)
	if len(f.responses) == 0 {
		return 200, []byte(`{"jsonrpc":"2.0","result":{}}`), nil
	}
	r := f.responses[0]
	f.responses = f.responses[1:]
	return 200, []byte(r), nil
}

type fakeUUIDSource struct{ n int }

func (f *fakeUUIDSource) NewV4() string { f.n++; return fmt.Sprintf("fixed-id-%d", f.n) }

func newTestClient(t *testing.T, credential string, trans *fakeTransport) *Client {
	t.Helper()
	client, err := NewClient(Config{
		Credential: credential,
		Transport:  trans,
		Clock:      ports.SystemClock(),
		Logger:     ports.NopLogger{},
		UUIDs:      &fakeUUIDSource{},
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestSingletonUniqueness(t *testing.T) {
	trans := &fakeTransport{}
	a1 := newTestClient(t, "cred-a-unique", trans)
	a2, err := NewClient(Config{Credential: "cred-a-unique", Transport: trans})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if a1 != a2 {
		t.Fatal("two lookups with the same credential must return the same instance")
	}

	b := newTestClient(t, "cred-b-unique", trans)
	if a1 == b {
		t.Fatal("two lookups with distinct credentials must return distinct instances")
	}
}

func TestSingletonFirstCallerWins(t *testing.T) {
	trans1 := &fakeTransport{}
	trans2 := &fakeTransport{}
	c1 := newTestClient(t, "cred-winner", trans1)
	c2, err := NewClient(Config{Credential: "cred-winner", Transport: trans2, HTTPTimeout: 1})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c1 != c2 {
		t.Fatal("later constructor parameters must not replace the first instance")
	}
}

func TestNewClientRejectsEmptyCredential(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error for empty credential")
	}
}
