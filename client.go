// Package rorandom is a client for a remote true-random-number JSON-RPC
// service (RANDOM.ORG's public API contract, v4). It mediates every
// outbound call through a per-credential dispatch engine that observes
// the server's advisory inter-request delay, honors its daily-quota
// back-off, and maps service error codes onto a closed, typed error
// taxonomy, and it offers background precache pools that amortize round
// trips for callers who consume random values at a steady rate.
//
// Construction is a singleton lookup keyed by credential: the first call
// to NewClient for a given credential wins, and every later call with
// the same credential returns that same instance regardless of the
// Config passed.
package rorandom

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rorandom/rorandom-go/internal/apierr"
	"github.com/rorandom/rorandom-go/internal/dispatch"
	"github.com/rorandom/rorandom-go/internal/jsonrpc"
	"github.com/rorandom/rorandom-go/internal/metrics"
	"github.com/rorandom/rorandom-go/internal/ports"
	"github.com/rorandom/rorandom-go/internal/transport"
)

// Wire endpoints. Compile-time constants per spec §6.
const (
	InvokeEndpoint                = "https://api.rorandom.example/json-rpc/4/invoke"
	SignatureVerificationEndpoint = "https://api.rorandom.example/json-rpc/4/verify-form"
)

// Unbounded is the sentinel BlockingTimeout meaning "wait as long as it
// takes" for a serialized caller.
const Unbounded = dispatch.Unbounded

// DefaultMaxRequestBits is the service's single-request bit ceiling used
// by precache pools to decide when to shrink their bulk factor. The
// source's own max_request_size field is set but not consistently
// consulted (spec §9 open question); this client enforces a ceiling equal
// to the blob max-size figure of §4.4.2 by default, and
// Config.MaxRequestBits overrides it per client.
const DefaultMaxRequestBits int64 = 1 << 20 // 1,048,576 bits

const (
	defaultBlockingTimeout = 24 * time.Hour
	defaultHTTPTimeout     = 120 * time.Second
	defaultMaxUnserialized = 8
)

// Config configures a Client at construction. Only Credential is
// required; every other field has a spec-mandated default (spec §6
// "Library configuration").
type Config struct {
	// Credential is the opaque API key. Required, non-empty.
	Credential string

	// BlockingTimeout bounds a serialized caller's wait for the dispatch
	// worker. Zero means the default of 24h; use Unbounded for no limit.
	BlockingTimeout time.Duration

	// HTTPTimeout bounds each individual HTTP round trip. Zero means the
	// default of 120s. Ignored if Transport is supplied.
	HTTPTimeout time.Duration

	// Unserialized opts into bounded-concurrent dispatch instead of the
	// default single-worker serialized discipline (spec §6 default: the
	// serialization flag defaults true, i.e. Unserialized defaults false).
	Unserialized bool

	// MaxConcurrentUnserialized caps in-flight requests when Unserialized
	// is set. Zero or negative means 8.
	MaxConcurrentUnserialized int

	// MaxRequestBits overrides DefaultMaxRequestBits for precache bulk
	// shrinkage (spec §4.5.2). Zero means the default.
	MaxRequestBits int64

	// Endpoint overrides InvokeEndpoint. Used by tests and by callers
	// pointed at a non-default deployment; ignored if Transport is set.
	Endpoint string

	// Out-of-scope collaborators (spec §1). Nil falls back to stdlib
	// defaults; Transport has no default and is built from Endpoint and
	// HTTPTimeout when left nil.
	Transport ports.Transport
	Codec     ports.Codec
	Clock     ports.Clock
	Logger    ports.Logger
	UUIDs     ports.UUIDSource
}

// Client is a per-credential facade over the dispatch engine (C6). Safe
// for concurrent use.
type Client struct {
	credential     string
	engine         *dispatch.Engine
	codec          ports.Codec
	ids            ports.UUIDSource
	logger         ports.Logger
	maxRequestBits int64
	metrics        *metrics.Registry
}

var (
	registryMu sync.Mutex
	registry   = map[string]*Client{}
)

// NewClient returns the singleton Client for cfg.Credential, constructing
// it on first call. A subsequent call with the same credential and a
// different Config still returns the original instance (spec §4.4.1).
func NewClient(cfg Config) (*Client, error) {
	if cfg.Credential == "" {
		return nil, apierr.New(apierr.ProtocolError, "credential must not be empty")
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if c, ok := registry[cfg.Credential]; ok {
		return c, nil
	}

	c := buildClient(cfg)
	registry[cfg.Credential] = c
	return c, nil
}

func buildClient(cfg Config) *Client {
	codec := cfg.Codec
	if codec == nil {
		codec = ports.DefaultCodec()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = ports.SystemClock()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = ports.NopLogger{}
	}
	ids := cfg.UUIDs
	if ids == nil {
		ids = ports.DefaultUUIDSource()
	}

	httpTimeout := cfg.HTTPTimeout
	if httpTimeout <= 0 {
		httpTimeout = defaultHTTPTimeout
	}
	blockingTimeout := cfg.BlockingTimeout
	if blockingTimeout == 0 {
		blockingTimeout = defaultBlockingTimeout
	}
	maxUnserialized := cfg.MaxConcurrentUnserialized
	if maxUnserialized <= 0 {
		maxUnserialized = defaultMaxUnserialized
	}
	maxRequestBits := cfg.MaxRequestBits
	if maxRequestBits <= 0 {
		maxRequestBits = DefaultMaxRequestBits
	}

	trans := cfg.Transport
	if trans == nil {
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = InvokeEndpoint
		}
		trans = transport.New(endpoint, httpTimeout)
	}

	engine := dispatch.New(dispatch.Config{
		Credential:                cfg.Credential,
		BlockingTimeout:           blockingTimeout,
		Serialized:                !cfg.Unserialized,
		MaxConcurrentUnserialized: maxUnserialized,
		Transport:                 trans,
		Codec:                     codec,
		Clock:                     clock,
		Logger:                    logger,
	})

	reg := metrics.NewRegistry()
	c := &Client{
		credential:     cfg.Credential,
		engine:         engine,
		codec:          codec,
		ids:            ids,
		logger:         logger,
		maxRequestBits: maxRequestBits,
		metrics:        reg,
	}
	reg.RegisterClient(cfg.Credential, c)
	return c
}

// call builds the envelope and dispatches it (C2 + C5 composition).
func (c *Client) call(ctx context.Context, method string, params map[string]any, needsCredential bool) (json.RawMessage, *apierr.Error) {
	envelope, err := jsonrpc.Build(method, params, c.credential, needsCredential, c.codec, c.ids)
	if err != nil {
		return nil, apierr.Newf(apierr.ProtocolError, "build envelope: %v", err)
	}
	return c.engine.Dispatch(ctx, method, envelope)
}

// RequestsRemaining implements internal/metrics.UsageSource.
func (c *Client) RequestsRemaining() (int64, bool) {
	u := c.engine.Usage()
	return u.RequestsRemaining, u.Known
}

// BitsRemaining implements internal/metrics.UsageSource.
func (c *Client) BitsRemaining() (int64, bool) {
	u := c.engine.Usage()
	return u.BitsRemaining, u.Known
}

// AdvisoryDelay returns the client's currently observed advisory delay.
func (c *Client) AdvisoryDelay() time.Duration {
	return c.engine.AdvisoryDelay()
}

// Metrics returns the prometheus.Collector exposing this client's usage
// bookkeeping and the state of every precache pool constructed from it
// (spec §2 domain stack, C8). The client never registers this against a
// global registry itself; a host application does so with its own
// prometheus.Registerer.
func (c *Client) Metrics() prometheus.Collector {
	return c.metrics
}
