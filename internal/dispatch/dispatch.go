// Package dispatch implements the per-credential dispatch engine (spec
// §4.3): the pre-send gate (back-off + advisory delay), transport/decode,
// post-send bookkeeping, and the serialized/unserialized queuing
// discipline. One Engine exists per credential for the lifetime of the
// process (the singleton registry itself lives in the root package, C6).
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rorandom/rorandom-go/internal/apierr"
	"github.com/rorandom/rorandom-go/internal/extract"
	"github.com/rorandom/rorandom-go/internal/jsonrpc"
	"github.com/rorandom/rorandom-go/internal/ports"
)

// Unbounded is the sentinel blocking timeout meaning "wait as long as it
// takes" (spec §3, "blocking timeout ... sentinel 'unbounded' permitted").
const Unbounded time.Duration = -1

// DefaultAdvisoryDelay is the advisory delay assumed until the first
// response carries one, and the value restored after every ticket-op
// response (spec §4.3.4, GLOSSARY).
const DefaultAdvisoryDelay = 1 * time.Second

// ticketOps never carry allowance fields in the v4 contract: their
// responses leave the usage snapshot untouched and restore
// DefaultAdvisoryDelay (spec §4.3.4, §9 open question — v4 target).
var ticketOps = map[string]bool{
	"listTickets":   true,
	"createTickets": true,
	"getTicket":     true,
	"getResult":     true,
}

// UsageSnapshot is the client's last-known view of remaining allowance
// (spec §3).
type UsageSnapshot struct {
	RequestsRemaining int64
	BitsRemaining     int64
	Known             bool
	SnapshotAt        time.Time
}

// Config configures one Engine instance (spec §3, §6).
type Config struct {
	Credential                string
	BlockingTimeout           time.Duration // Unbounded for no limit
	Serialized                bool
	MaxConcurrentUnserialized int // only consulted when !Serialized; <=0 -> 8

	Transport ports.Transport
	Codec     ports.Codec
	Clock     ports.Clock
	Logger    ports.Logger
}

// Engine is the per-credential dispatch engine. It is safe for concurrent
// use; all exported methods may be called from any number of goroutines.
type Engine struct {
	credential      string
	blockingTimeout time.Duration
	serialized      bool

	transport ports.Transport
	codec     ports.Codec
	clock     ports.Clock
	logger    ports.Logger

	// mu guards advisoryDelay, lastResponseTime, usage, and the back-off
	// pair together, per spec §5 ("anything that reads two fields reads
	// both under the lock").
	mu               sync.Mutex
	advisoryDelay    time.Duration
	lastResponseTime time.Time
	usage            UsageSnapshot
	backoffUntil     time.Time
	backoffMessage   string

	// Serialized-mode dispatch queue (spec §4.3.5, §3 "dispatch queue").
	queueMu   sync.Mutex
	queueCond *sync.Cond
	queue     []*pendingRequest
	worker    sync.Once

	// Unserialized-mode bounded fan-out (spec §4.3.5 "multiple such workers
	// may coexist"; bounded per SPEC_FULL §3 C5 to avoid unbounded
	// goroutine/socket growth under a burst of unserialized callers).
	group *errgroup.Group
}

// pendingRequest is one caller's queued request in serialized mode (spec §3).
type pendingRequest struct {
	ctx      context.Context
	method   string
	envelope []byte
	done     chan struct{}
	result   json.RawMessage
	err      *apierr.Error
	cancelled bool
}

// New constructs an Engine. Nil collaborators fall back to stdlib-backed
// defaults (ports.DefaultCodec, ports.SystemClock, ports.NopLogger);
// Transport has no default and must be supplied.
func New(cfg Config) *Engine {
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
	limit := cfg.MaxConcurrentUnserialized
	if limit <= 0 {
		limit = 8
	}

	e := &Engine{
		credential:      cfg.Credential,
		blockingTimeout: cfg.BlockingTimeout,
		serialized:      cfg.Serialized,
		transport:       cfg.Transport,
		codec:           codec,
		clock:           clock,
		logger:          logger,
		advisoryDelay:   DefaultAdvisoryDelay,
	}
	e.queueCond = sync.NewCond(&e.queueMu)
	if !cfg.Serialized {
		g := &errgroup.Group{}
		g.SetLimit(limit)
		e.group = g
	}
	return e
}

// Dispatch sends one JSON-RPC request and returns the decoded `result`
// object, or a typed error (spec §4.3.1).
func (e *Engine) Dispatch(ctx context.Context, method string, envelope []byte) (json.RawMessage, *apierr.Error) {
	if e.serialized {
		return e.dispatchSerialized(ctx, method, envelope)
	}
	return e.dispatchUnserialized(ctx, method, envelope)
}

// Usage returns the current usage snapshot (spec §3; C8).
func (e *Engine) Usage() UsageSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.usage
}

// AdvisoryDelay returns the currently observed advisory delay.
func (e *Engine) AdvisoryDelay() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.advisoryDelay
}

// --- serialized mode (spec §4.3.5) ------------------------------------------

func (e *Engine) dispatchSerialized(ctx context.Context, method string, envelope []byte) (json.RawMessage, *apierr.Error) {
	pr := &pendingRequest{ctx: ctx, method: method, envelope: envelope, done: make(chan struct{})}

	e.queueMu.Lock()
	e.queue = append(e.queue, pr)
	e.queueCond.Signal()
	e.queueMu.Unlock()

	e.worker.Do(func() { go e.runWorker() })

	var timerC <-chan time.Time
	if e.blockingTimeout != Unbounded {
		timer := time.NewTimer(e.blockingTimeout)
		defer timer.Stop()
		timerC = timer.C
	}

	select {
	case <-pr.done:
		return pr.result, pr.err
	case <-timerC:
		e.queueMu.Lock()
		pr.cancelled = true
		e.queueMu.Unlock()
		return nil, apierr.New(apierr.SendTimeout, "blocking timeout elapsed waiting for dispatch worker")
	case <-ctx.Done():
		e.queueMu.Lock()
		pr.cancelled = true
		e.queueMu.Unlock()
		return nil, apierr.Newf(apierr.SendTimeout, "context done while queued for dispatch: %v", ctx.Err())
	}
}

// runWorker is the single long-lived dispatch worker for this Engine (spec
// §4.3.5: "A single dispatch worker runs for the client's lifetime").
func (e *Engine) runWorker() {
	for {
		e.queueMu.Lock()
		for len(e.queue) == 0 {
			e.queueCond.Wait()
		}
		pr := e.queue[0]
		e.queue = e.queue[1:]
		cancelled := pr.cancelled
		e.queueMu.Unlock()

		if cancelled {
			// Caller already gave up and is no longer listening on pr.done.
			continue
		}

		result, err := e.execute(pr.ctx, pr.method, pr.envelope, e.blockingTimeout, true)
		pr.result, pr.err = result, err
		close(pr.done)
	}
}

// --- unserialized mode (spec §4.3.5) ----------------------------------------

func (e *Engine) dispatchUnserialized(ctx context.Context, method string, envelope []byte) (json.RawMessage, *apierr.Error) {
	done := make(chan struct{})
	var result json.RawMessage
	var derr *apierr.Error

	// Go blocks the calling goroutine itself once the concurrency limit is
	// reached, which is exactly the "caller blocks on a rendezvous" shape
	// the spec describes — just gated by admission as well as completion.
	e.group.Go(func() error {
		defer close(done)
		result, derr = e.execute(ctx, method, envelope, 0, false)
		return nil
	})

	<-done
	return result, derr
}

// --- shared gate / transport / bookkeeping (spec §4.3.2-§4.3.4) ------------

// execute runs the full pre-send gate, transport call, and post-send
// bookkeeping for one request. budget/enforceBudget only matter in
// serialized mode (spec §4.3.2: the SendTimeout-on-advisory-wait rule is
// scoped to "serialized mode").
func (e *Engine) execute(ctx context.Context, method string, envelope []byte, budget time.Duration, enforceBudget bool) (json.RawMessage, *apierr.Error) {
	if gerr := e.preSendGate(ctx, budget, enforceBudget); gerr != nil {
		return nil, gerr
	}
	result, serr := e.sendAndDecode(ctx, method, envelope)
	if serr != nil {
		return nil, serr
	}
	e.postSendBookkeeping(method, result)
	return result, nil
}

// preSendGate implements spec §4.3.2 and the back-off state machine of
// §4.3.6. A completed suspension loops back to step 1 rather than assuming
// the wait is now satisfied, per the "do not shortcut" rule; a done ctx
// ends the wait with SendTimeout instead.
func (e *Engine) preSendGate(ctx context.Context, budget time.Duration, enforceBudget bool) *apierr.Error {
	for {
		e.mu.Lock()
		now := e.clock.Now()

		if !e.backoffUntil.IsZero() {
			if now.Before(e.backoffUntil) {
				msg := e.backoffMessage
				e.mu.Unlock()
				return apierr.New(apierr.InsufficientRequests, msg)
			}
			e.backoffUntil = time.Time{}
			e.backoffMessage = ""
		}

		wait := e.advisoryDelay - now.Sub(e.lastResponseTime)
		if wait <= 0 {
			e.mu.Unlock()
			return nil
		}
		if enforceBudget && budget != Unbounded && wait > budget {
			e.mu.Unlock()
			return apierr.New(apierr.SendTimeout, "advisory delay exceeds remaining blocking budget")
		}
		e.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
			// loop back to the gate
		case <-ctx.Done():
			timer.Stop()
			return apierr.Newf(apierr.SendTimeout, "context done while waiting for advisory delay: %v", ctx.Err())
		}
	}
}

// sendAndDecode implements spec §4.3.3.
func (e *Engine) sendAndDecode(ctx context.Context, method string, envelope []byte) (json.RawMessage, *apierr.Error) {
	status, body, err := e.transport.Do(ctx, envelope)
	if err != nil {
		if errors.Is(err, ports.ErrMalformedRequest) {
			return nil, apierr.Newf(apierr.MalformedURL, "transport: %v", err)
		}
		return nil, apierr.Newf(apierr.IO, "transport: %v", err)
	}
	if status < 200 || status >= 300 {
		return nil, apierr.BadHTTP(status, string(body))
	}

	resp, perr := jsonrpc.ParseResponse(body, e.codec)
	if perr != nil {
		return nil, apierr.Newf(apierr.ProtocolError, "%v", perr)
	}
	if resp.Error != nil {
		return nil, e.mapServiceError(resp.Error)
	}
	return resp.Result, nil
}

// mapServiceError implements the code-specific mapping of spec §4.3.3,
// including arming the back-off state machine on 402 (spec §4.3.6).
func (e *Engine) mapServiceError(rpcErr *jsonrpc.RPCError) *apierr.Error {
	switch rpcErr.Code {
	case 402:
		e.mu.Lock()
		next := nextMidnightUTC(e.clock.Now())
		msg := formatBackoffMessage(rpcErr.Code, rpcErr.Message)
		e.backoffUntil = next
		e.backoffMessage = msg
		e.mu.Unlock()
		e.logger.Warn("dispatch: insufficient requests, back-off armed",
			"credential", e.credential, "until", next, "message", msg)
		return &apierr.Error{Kind: apierr.InsufficientRequests, Message: msg, Code: rpcErr.Code}
	case 403:
		e.mu.Lock()
		var bits *int64
		if e.usage.Known {
			b := e.usage.BitsRemaining
			bits = &b
		}
		e.mu.Unlock()
		return &apierr.Error{Kind: apierr.InsufficientBits, Message: rpcErr.Message, Code: rpcErr.Code, BitsRemaining: bits}
	default:
		return apierr.FromServiceCode(rpcErr.Code, rpcErr.Message, nil)
	}
}

// postSendBookkeeping implements spec §4.3.4: a single mutually-exclusive
// update of last-response-time, usage snapshot, and advisory delay.
func (e *Engine) postSendBookkeeping(method string, result json.RawMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastResponseTime = e.clock.Now()

	if ticketOps[method] {
		e.advisoryDelay = DefaultAdvisoryDelay
		return
	}

	env, aerr := extract.ParseResult(result, e.codec)
	if aerr != nil {
		// Result didn't even parse into the common shell; keep prior usage,
		// but still fall back to the default delay rather than trust stale
		// state indefinitely.
		e.advisoryDelay = DefaultAdvisoryDelay
		return
	}

	// Only overwrite the usage snapshot when the response actually carries
	// allowance fields (spec §3: "on every non-ticket response that carries
	// allowance fields"). verifySignature, for instance, is not a ticket op
	// but its result is just {authenticity: bool} — RequestsLeft/BitsLeft
	// are absent (nil), not zero, and must not clobber a known snapshot.
	if env.RequestsLeft != nil && env.BitsLeft != nil {
		e.usage = UsageSnapshot{
			RequestsRemaining: *env.RequestsLeft,
			BitsRemaining:     *env.BitsLeft,
			Known:             true,
			SnapshotAt:        e.lastResponseTime,
		}
	}
	e.advisoryDelay = time.Duration(extract.AdvisoryDelayMillis(env, DefaultAdvisoryDelay.Milliseconds())) * time.Millisecond
}

func nextMidnightUTC(now time.Time) time.Time {
	u := now.UTC()
	return time.Date(u.Year(), u.Month(), u.Day()+1, 0, 0, 0, 0, time.UTC)
}

func formatBackoffMessage(code int, message string) string {
	return "Error " + strconv.Itoa(code) + ": " + message
}
