package rorandom

import (
	"context"
	"encoding/json"

	"github.com/rorandom/rorandom-go/internal/apierr"
	"github.com/rorandom/rorandom-go/internal/extract"
	"github.com/rorandom/rorandom-go/internal/ports"
)

// RandomBundle is the {random, signature} pair returned by getResult
// (spec §4.4.2). Unlike SignedResult it carries no typed Data, since
// getResult is keyed only by serial number and the originating method
// (hence the shape of random.data) is not known to the caller in
// advance.
type RandomBundle struct {
	Random    json.RawMessage `json:"random"`
	Signature string          `json:"signature"`
}

// GetResult fetches a previously signed result by serial number (spec
// §4.4.2). This is a ticket op (spec §9): it leaves the usage snapshot
// untouched and resets the advisory delay to its default.
func (c *Client) GetResult(ctx context.Context, serialNumber int64) (*RandomBundle, *apierr.Error) {
	result, derr := c.call(ctx, "getResult", map[string]any{"serialNumber": serialNumber}, true)
	if derr != nil {
		return nil, derr
	}
	var rb RandomBundle
	if err := c.codec.Unmarshal(result, &rb); err != nil {
		return nil, apierr.Newf(apierr.ProtocolError, "decode result bundle: %v", err)
	}
	return &rb, nil
}

// TicketDescriptor is one entry of the service's ticket schema (spec §6:
// "ticketId, hashedApiKey, showResult, chained next/previous, usedTime,
// etc.").
type TicketDescriptor struct {
	TicketID         string          `json:"ticketId"`
	HashedAPIKey     string          `json:"hashedApiKey"`
	ShowResult       bool            `json:"showResult"`
	CreationTime     string          `json:"creationTime"`
	NextTicketID     *string         `json:"nextTicketId"`
	PreviousTicketID *string         `json:"previousTicketId"`
	UsedTime         *string         `json:"usedTime"`
	Result           json.RawMessage `json:"result"`
}

// CreateTickets creates n single-use tickets (spec §4.4.2). Ticket op:
// leaves the usage snapshot untouched and resets the advisory delay to
// its default.
func (c *Client) CreateTickets(ctx context.Context, n int, showResult bool) ([]TicketDescriptor, *apierr.Error) {
	result, derr := c.call(ctx, "createTickets", map[string]any{"n": n, "showResult": showResult}, true)
	if derr != nil {
		return nil, derr
	}
	var tickets []TicketDescriptor
	if err := c.codec.Unmarshal(result, &tickets); err != nil {
		return nil, apierr.Newf(apierr.ProtocolError, "decode tickets: %v", err)
	}
	return tickets, nil
}

// RevealTickets reveals the ticket chain starting at ticketId and
// returns the count of tickets revealed (spec §4.4.2).
func (c *Client) RevealTickets(ctx context.Context, ticketID string) (int64, *apierr.Error) {
	result, derr := c.call(ctx, "revealTickets", map[string]any{"ticketId": ticketID}, true)
	if derr != nil {
		return 0, derr
	}
	var count int64
	if err := c.codec.Unmarshal(result, &count); err != nil {
		return 0, apierr.Newf(apierr.ProtocolError, "decode revealed count: %v", err)
	}
	return count, nil
}

// TicketType selects the subset listed by ListTickets.
type TicketType string

const (
	TicketSingleton TicketType = "singleton"
	TicketHead      TicketType = "head"
	TicketTail      TicketType = "tail"
)

// ListTickets lists tickets of the given type (spec §4.4.2). Ticket op:
// leaves the usage snapshot untouched and resets the advisory delay to
// its default.
func (c *Client) ListTickets(ctx context.Context, ticketType TicketType) ([]TicketDescriptor, *apierr.Error) {
	result, derr := c.call(ctx, "listTickets", map[string]any{"ticketType": string(ticketType)}, true)
	if derr != nil {
		return nil, derr
	}
	var tickets []TicketDescriptor
	if err := c.codec.Unmarshal(result, &tickets); err != nil {
		return nil, apierr.Newf(apierr.ProtocolError, "decode tickets: %v", err)
	}
	return tickets, nil
}

// TicketResult is the outcome of GetTicket: Descriptor is always
// populated (the ticket's metadata). When the ticket's nested result is
// present (showResult was true and the ticket has been used), Random and
// Signature carry the signed bundle byte-exact and Data holds the result
// dispatched, by the random object's own "method" field, through the same
// typed extraction path as a direct generate-* call (spec §4.4.2) — one
// of []int64, [][]int64, []float64, []string, or []uuid.UUID depending on
// the originating method. Data is nil when the ticket has no result yet.
type TicketResult struct {
	Descriptor TicketDescriptor
	Data       any
	Random     json.RawMessage
	Signature  string
	Raw        json.RawMessage
}

// GetTicket fetches one ticket's descriptor and, if the ticket has been
// used and carries a result, dispatches that result on its originating
// method for typed extraction (spec §4.4.2). Ticket op: leaves the usage
// snapshot untouched and resets the advisory delay to its default.
func (c *Client) GetTicket(ctx context.Context, ticketID string) (*TicketResult, *apierr.Error) {
	result, derr := c.call(ctx, "getTicket", map[string]any{"ticketId": ticketID}, true)
	if derr != nil {
		return nil, derr
	}
	var td TicketDescriptor
	if err := c.codec.Unmarshal(result, &td); err != nil {
		return nil, apierr.Newf(apierr.ProtocolError, "decode ticket descriptor: %v", err)
	}
	tr := &TicketResult{Descriptor: td, Raw: result}
	if len(td.Result) == 0 || string(td.Result) == "null" {
		return tr, nil
	}

	env, aerr := extract.ParseResult(td.Result, c.codec)
	if aerr != nil {
		return nil, aerr
	}
	tr.Random = env.Random
	tr.Signature = env.Signature

	method, aerr := extract.Method(env, c.codec)
	if aerr != nil {
		return nil, aerr
	}
	data, aerr := dispatchTicketData(method, env, c.codec)
	if aerr != nil {
		return nil, aerr
	}
	tr.Data = data
	return tr, nil
}

// dispatchTicketData routes a ticket's stored result through the same
// typed extraction function a direct call to method would have used.
func dispatchTicketData(method string, env *extract.ResultEnvelope, codec ports.Codec) (any, *apierr.Error) {
	switch method {
	case "generateIntegers", "generateSignedIntegers":
		return extract.Integers(env, codec)
	case "generateIntegerSequences", "generateSignedIntegerSequences":
		return extract.IntegerSequences(env, codec)
	case "generateDecimalFractions", "generateSignedDecimalFractions":
		return extract.Floats(env, codec)
	case "generateGaussians", "generateSignedGaussians":
		return extract.Floats(env, codec)
	case "generateStrings", "generateSignedStrings":
		return extract.Strings(env, codec)
	case "generateUUIDs", "generateSignedUUIDs":
		return extract.UUIDs(env, codec)
	case "generateBlobs", "generateSignedBlobs":
		return extract.Strings(env, codec)
	default:
		return nil, apierr.Newf(apierr.ProtocolError, "getTicket: unrecognized originating method %q", method)
	}
}
