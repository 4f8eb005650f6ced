package rorandom

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/rorandom/rorandom-go/internal/apierr"
	"github.com/rorandom/rorandom-go/internal/extract"
)

// SignedOptions carries the optional fields shared by every signed
// generate-* method (spec §4.4.2). Zero value means every optional field
// is sent as a literal JSON null, per spec §4.2 ("the service
// distinguishes absent from null ... emitting null for the documented
// optional set is safe").
type SignedOptions struct {
	// UserData is arbitrary JSON echoed back unmodified; must encode to
	// <= 1000 characters. Forwarded as-is; the service enforces the limit.
	UserData any
	// LicenseData is required for the "Flexible Gambling" license type,
	// null otherwise.
	LicenseData any
	// PregeneratedRandomization selects a historical randomness source by
	// date ({"date": "YYYY-MM-DD"}) or id ({"id": "..."}) instead of fresh
	// randomness. nil means fresh randomness.
	PregeneratedRandomization any
	// TicketID is a single-use ticket consumed by this call. Empty means
	// no ticket.
	TicketID string
}

func (o SignedOptions) apply(params map[string]any) {
	params["userData"] = o.UserData
	params["licenseData"] = o.LicenseData
	params["pregeneratedRandomization"] = o.PregeneratedRandomization
	if o.TicketID == "" {
		params["ticketId"] = nil
	} else {
		params["ticketId"] = o.TicketID
	}
}

// SignedResult is the bundle returned by every signed generate-* call
// (spec §4.4.2, GLOSSARY "signed result bundle"). Random must be
// forwarded byte-exact to VerifySignature / CreateVerificationURL — it
// is never re-marshaled between receipt and use (spec §9 "JSON
// preservation").
type SignedResult[T any] struct {
	Data      T
	Random    json.RawMessage
	Signature string
}

func (c *Client) plainCall(ctx context.Context, method string, params map[string]any) (*extract.ResultEnvelope, *apierr.Error) {
	result, derr := c.call(ctx, method, params, true)
	if derr != nil {
		return nil, derr
	}
	return extract.ParseResult(result, c.codec)
}

func (c *Client) signedCall(ctx context.Context, method string, params map[string]any, opts SignedOptions) (*extract.ResultEnvelope, *apierr.Error) {
	opts.apply(params)
	return c.plainCall(ctx, method, params)
}

// --- integers ---------------------------------------------------------

// GenerateIntegers returns n base-10 integers in [min, max] (spec
// §4.4.2, §4.4.3).
func (c *Client) GenerateIntegers(ctx context.Context, n, min, max int, replacement bool) ([]int64, *apierr.Error) {
	params := map[string]any{"n": n, "min": min, "max": max, "replacement": replacement, "base": 10}
	env, aerr := c.plainCall(ctx, "generateIntegers", params)
	if aerr != nil {
		return nil, aerr
	}
	return extract.Integers(env, c.codec)
}

// GenerateIntegersBase is GenerateIntegers for a display base other than
// 10; the service returns decimal digit strings in that case (spec
// §4.4.3).
func (c *Client) GenerateIntegersBase(ctx context.Context, n, min, max, base int, replacement bool) ([]string, *apierr.Error) {
	params := map[string]any{"n": n, "min": min, "max": max, "replacement": replacement, "base": base}
	env, aerr := c.plainCall(ctx, "generateIntegers", params)
	if aerr != nil {
		return nil, aerr
	}
	return extract.IntegersAsDigitStrings(env, c.codec)
}

// GenerateSignedIntegers is the signed variant of GenerateIntegers.
func (c *Client) GenerateSignedIntegers(ctx context.Context, n, min, max int, replacement bool, opts SignedOptions) (*SignedResult[[]int64], *apierr.Error) {
	params := map[string]any{"n": n, "min": min, "max": max, "replacement": replacement, "base": 10}
	env, aerr := c.signedCall(ctx, "generateSignedIntegers", params, opts)
	if aerr != nil {
		return nil, aerr
	}
	data, aerr := extract.Integers(env, c.codec)
	if aerr != nil {
		return nil, aerr
	}
	return &SignedResult[[]int64]{Data: data, Random: env.Random, Signature: env.Signature}, nil
}

// --- integer sequences --------------------------------------------------

// GenerateIntegerSequences returns count uniform base-10 sequences of the
// given length, each drawn from [min, max] (spec §4.4.2).
func (c *Client) GenerateIntegerSequences(ctx context.Context, count, length, min, max int, replacement bool) ([][]int64, *apierr.Error) {
	params := map[string]any{"n": count, "length": length, "min": min, "max": max, "replacement": replacement, "base": 10}
	env, aerr := c.plainCall(ctx, "generateIntegerSequences", params)
	if aerr != nil {
		return nil, aerr
	}
	return extract.IntegerSequences(env, c.codec)
}

// GenerateIntegerSequencesMultiform is the multiform overload: every
// array argument must have length count (spec §4.4.2). Mismatched
// lengths are a caller-side shape error, checked locally since the
// service has no way to diagnose which array is short.
func (c *Client) GenerateIntegerSequencesMultiform(ctx context.Context, count int, lengths, mins, maxs []int, replacements []bool) ([][]int64, *apierr.Error) {
	if len(lengths) != count || len(mins) != count || len(maxs) != count || len(replacements) != count {
		return nil, apierr.New(apierr.ProtocolError, "multiform integer sequences: all arrays must have length count")
	}
	params := map[string]any{
		"n": count, "length": lengths, "min": mins, "max": maxs, "replacement": replacements, "base": 10,
	}
	env, aerr := c.plainCall(ctx, "generateIntegerSequences", params)
	if aerr != nil {
		return nil, aerr
	}
	return extract.IntegerSequences(env, c.codec)
}

// GenerateSignedIntegerSequences is the signed variant of
// GenerateIntegerSequences (uniform).
func (c *Client) GenerateSignedIntegerSequences(ctx context.Context, count, length, min, max int, replacement bool, opts SignedOptions) (*SignedResult[[][]int64], *apierr.Error) {
	params := map[string]any{"n": count, "length": length, "min": min, "max": max, "replacement": replacement, "base": 10}
	env, aerr := c.signedCall(ctx, "generateSignedIntegerSequences", params, opts)
	if aerr != nil {
		return nil, aerr
	}
	data, aerr := extract.IntegerSequences(env, c.codec)
	if aerr != nil {
		return nil, aerr
	}
	return &SignedResult[[][]int64]{Data: data, Random: env.Random, Signature: env.Signature}, nil
}

// --- decimal fractions --------------------------------------------------

// GenerateDecimalFractions returns n decimal fractions with the given
// number of decimal places (spec §4.4.2).
func (c *Client) GenerateDecimalFractions(ctx context.Context, n, decimalPlaces int, replacement bool) ([]float64, *apierr.Error) {
	params := map[string]any{"n": n, "decimalPlaces": decimalPlaces, "replacement": replacement}
	env, aerr := c.plainCall(ctx, "generateDecimalFractions", params)
	if aerr != nil {
		return nil, aerr
	}
	return extract.Floats(env, c.codec)
}

// GenerateSignedDecimalFractions is the signed variant.
func (c *Client) GenerateSignedDecimalFractions(ctx context.Context, n, decimalPlaces int, replacement bool, opts SignedOptions) (*SignedResult[[]float64], *apierr.Error) {
	params := map[string]any{"n": n, "decimalPlaces": decimalPlaces, "replacement": replacement}
	env, aerr := c.signedCall(ctx, "generateSignedDecimalFractions", params, opts)
	if aerr != nil {
		return nil, aerr
	}
	data, aerr := extract.Floats(env, c.codec)
	if aerr != nil {
		return nil, aerr
	}
	return &SignedResult[[]float64]{Data: data, Random: env.Random, Signature: env.Signature}, nil
}

// --- gaussians -----------------------------------------------------------

// GenerateGaussians returns n Gaussian-distributed numbers (spec §4.4.2).
// Gaussians have no replacement concept.
func (c *Client) GenerateGaussians(ctx context.Context, n int, mean, standardDeviation float64, significantDigits int) ([]float64, *apierr.Error) {
	params := map[string]any{"n": n, "mean": mean, "standardDeviation": standardDeviation, "significantDigits": significantDigits}
	env, aerr := c.plainCall(ctx, "generateGaussians", params)
	if aerr != nil {
		return nil, aerr
	}
	return extract.Floats(env, c.codec)
}

// GenerateSignedGaussians is the signed variant.
func (c *Client) GenerateSignedGaussians(ctx context.Context, n int, mean, standardDeviation float64, significantDigits int, opts SignedOptions) (*SignedResult[[]float64], *apierr.Error) {
	params := map[string]any{"n": n, "mean": mean, "standardDeviation": standardDeviation, "significantDigits": significantDigits}
	env, aerr := c.signedCall(ctx, "generateSignedGaussians", params, opts)
	if aerr != nil {
		return nil, aerr
	}
	data, aerr := extract.Floats(env, c.codec)
	if aerr != nil {
		return nil, aerr
	}
	return &SignedResult[[]float64]{Data: data, Random: env.Random, Signature: env.Signature}, nil
}

// --- strings ---------------------------------------------------------

// GenerateStrings returns n strings of the given length drawn from
// characters (spec §4.4.2).
func (c *Client) GenerateStrings(ctx context.Context, n, length int, characters string, replacement bool) ([]string, *apierr.Error) {
	params := map[string]any{"n": n, "length": length, "characters": characters, "replacement": replacement}
	env, aerr := c.plainCall(ctx, "generateStrings", params)
	if aerr != nil {
		return nil, aerr
	}
	return extract.Strings(env, c.codec)
}

// GenerateSignedStrings is the signed variant.
func (c *Client) GenerateSignedStrings(ctx context.Context, n, length int, characters string, replacement bool, opts SignedOptions) (*SignedResult[[]string], *apierr.Error) {
	params := map[string]any{"n": n, "length": length, "characters": characters, "replacement": replacement}
	env, aerr := c.signedCall(ctx, "generateSignedStrings", params, opts)
	if aerr != nil {
		return nil, aerr
	}
	data, aerr := extract.Strings(env, c.codec)
	if aerr != nil {
		return nil, aerr
	}
	return &SignedResult[[]string]{Data: data, Random: env.Random, Signature: env.Signature}, nil
}

// --- UUIDs -------------------------------------------------------------

// GenerateUUIDs returns n version-4 UUIDs (spec §4.4.2, invariant 8).
func (c *Client) GenerateUUIDs(ctx context.Context, n int) ([]uuid.UUID, *apierr.Error) {
	params := map[string]any{"n": n}
	env, aerr := c.plainCall(ctx, "generateUUIDs", params)
	if aerr != nil {
		return nil, aerr
	}
	return extract.UUIDs(env, c.codec)
}

// GenerateSignedUUIDs is the signed variant.
func (c *Client) GenerateSignedUUIDs(ctx context.Context, n int, opts SignedOptions) (*SignedResult[[]uuid.UUID], *apierr.Error) {
	params := map[string]any{"n": n}
	env, aerr := c.signedCall(ctx, "generateSignedUUIDs", params, opts)
	if aerr != nil {
		return nil, aerr
	}
	data, aerr := extract.UUIDs(env, c.codec)
	if aerr != nil {
		return nil, aerr
	}
	return &SignedResult[[]uuid.UUID]{Data: data, Random: env.Random, Signature: env.Signature}, nil
}

// --- blobs ---------------------------------------------------------------

// GenerateBlobs returns n binary blobs of sizeBits each (divisible by 8),
// encoded per format ("base64" or "hex") (spec §4.4.2).
func (c *Client) GenerateBlobs(ctx context.Context, n, sizeBits int, format string) ([]string, *apierr.Error) {
	params := map[string]any{"n": n, "size": sizeBits, "format": format}
	env, aerr := c.plainCall(ctx, "generateBlobs", params)
	if aerr != nil {
		return nil, aerr
	}
	return extract.Strings(env, c.codec)
}

// GenerateSignedBlobs is the signed variant.
func (c *Client) GenerateSignedBlobs(ctx context.Context, n, sizeBits int, format string, opts SignedOptions) (*SignedResult[[]string], *apierr.Error) {
	params := map[string]any{"n": n, "size": sizeBits, "format": format}
	env, aerr := c.signedCall(ctx, "generateSignedBlobs", params, opts)
	if aerr != nil {
		return nil, aerr
	}
	data, aerr := extract.Strings(env, c.codec)
	if aerr != nil {
		return nil, aerr
	}
	return &SignedResult[[]string]{Data: data, Random: env.Random, Signature: env.Signature}, nil
}
