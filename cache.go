package rorandom

import (
	"context"
	"math"
	"math/bits"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/rorandom/rorandom-go/internal/apierr"
	"github.com/rorandom/rorandom-go/internal/extract"
	"github.com/rorandom/rorandom-go/internal/metrics"
	"github.com/rorandom/rorandom-go/internal/precache"
)

const (
	defaultCacheTargetBufferSize       = 20 // integer/decimal/string/gaussian (spec §4.5.1)
	defaultSmallCacheTargetBufferSize  = 10 // UUID/blob
	minCacheTargetBufferSize           = 2
)

// Cache is a background precache pool vending fixed-size batches of T
// (spec §4.5, C7). Construct one via the Client.New*Cache constructors.
type Cache[T any] struct {
	pool *precache.Pool[T]
}

// Take returns the next ready batch, or ok=false if none is buffered yet.
func (c *Cache[T]) Take() (batch []T, err *apierr.Error, ok bool) { return c.pool.Take() }

// Pause stops background refilling without cancelling an in-flight round
// trip.
func (c *Cache[T]) Pause() { c.pool.Pause() }

// Resume re-arms background refilling.
func (c *Cache[T]) Resume() { c.pool.Resume() }

// Pending reports the number of buffered, ready batches.
func (c *Cache[T]) Pending() int { return c.pool.Pending() }

// BitsUsed returns the lifetime bit-estimate total consumed by this pool.
func (c *Cache[T]) BitsUsed() int64 { return c.pool.BitsUsed() }

// RequestsUsed returns the lifetime count of round trips issued by this
// pool.
func (c *Cache[T]) RequestsUsed() int64 { return c.pool.RequestsUsed() }

// BulkFactor reports the pool's current bulk-factor (non-increasing over
// the pool's lifetime, spec invariant 6).
func (c *Cache[T]) BulkFactor() int { return c.pool.BulkFactor() }

func targetBufferSizeOr(v, def int) int {
	if v < minCacheTargetBufferSize {
		return def
	}
	return v
}

// ceilLog2Count returns ceil(log2(count)) for count >= 1 (spec §4.5.3).
func ceilLog2Count(count int64) int64 {
	if count <= 1 {
		return 0
	}
	return int64(bits.Len64(uint64(count - 1)))
}

func ceilLog2Scaled(factor float64) int64 {
	return int64(math.Ceil(factor))
}

// registerPrecache exposes cache under name on the client's metrics
// registry (spec §2 domain stack, C8). A blank name skips registration,
// for callers uninterested in exposing a given pool.
func (c *Client) registerPrecache(name string, src metrics.PrecacheSource) {
	if name == "" {
		return
	}
	c.metrics.RegisterPrecache(name, src)
}

// NewIntegerCache builds a precache pool of base-10 integer batches of
// size n drawn from [min, max] (spec §4.5.1, §4.5.3). name labels this
// pool's series on the client's metrics Collector; empty skips
// registration.
func (c *Client) NewIntegerCache(name string, n, min, max, targetBufferSize int, withoutReplacement bool) *Cache[int64] {
	perElement := ceilLog2Count(int64(max-min) + 1)
	spec := precache.Spec{
		N:                  n,
		TargetBufferSize:   targetBufferSizeOr(targetBufferSize, defaultCacheTargetBufferSize),
		WithoutReplacement: withoutReplacement,
		PerElementBits:     perElement,
		MaxRequestBits:     c.maxRequestBits,
	}
	fetch := func(ctx context.Context, bulk, batchN int) ([]int64, *apierr.Error) {
		params := map[string]any{
			"n": bulk * batchN, "min": min, "max": max,
			"replacement": !withoutReplacement, "base": 10,
		}
		env, aerr := c.plainCall(ctx, "generateIntegers", params)
		if aerr != nil {
			return nil, aerr
		}
		return extract.Integers(env, c.codec)
	}
	cache := &Cache[int64]{pool: precache.New(spec, fetch)}
	c.registerPrecache(name, cache)
	return cache
}

// NewIntegerSequenceCache builds a precache pool of batches of count
// uniform base-10 sequences of the given length drawn from [min, max]
// (spec §4.5.1, §4.5.3: "Integer sequence: ... · length (per sequence)").
func (c *Client) NewIntegerSequenceCache(name string, count, length, min, max, targetBufferSize int, withoutReplacement bool) *Cache[[]int64] {
	perElement := ceilLog2Count(int64(max-min)+1) * int64(length)
	spec := precache.Spec{
		N:                  count,
		TargetBufferSize:   targetBufferSizeOr(targetBufferSize, defaultCacheTargetBufferSize),
		WithoutReplacement: withoutReplacement,
		PerElementBits:     perElement,
		MaxRequestBits:     c.maxRequestBits,
	}
	fetch := func(ctx context.Context, bulk, batchN int) ([][]int64, *apierr.Error) {
		params := map[string]any{
			"n": bulk * batchN, "length": length, "min": min, "max": max,
			"replacement": !withoutReplacement, "base": 10,
		}
		env, aerr := c.plainCall(ctx, "generateIntegerSequences", params)
		if aerr != nil {
			return nil, aerr
		}
		return extract.IntegerSequences(env, c.codec)
	}
	cache := &Cache[[]int64]{pool: precache.New(spec, fetch)}
	c.registerPrecache(name, cache)
	return cache
}

// NewDecimalFractionCache builds a precache pool of decimal-fraction
// batches of size n (spec §4.5.1, §4.5.3).
func (c *Client) NewDecimalFractionCache(name string, n, decimalPlaces, targetBufferSize int, withoutReplacement bool) *Cache[float64] {
	perElement := ceilLog2Scaled(math.Log2(10) * float64(decimalPlaces))
	spec := precache.Spec{
		N:                  n,
		TargetBufferSize:   targetBufferSizeOr(targetBufferSize, defaultCacheTargetBufferSize),
		WithoutReplacement: withoutReplacement,
		PerElementBits:     perElement,
		MaxRequestBits:     c.maxRequestBits,
	}
	fetch := func(ctx context.Context, bulk, batchN int) ([]float64, *apierr.Error) {
		params := map[string]any{
			"n": bulk * batchN, "decimalPlaces": decimalPlaces, "replacement": !withoutReplacement,
		}
		env, aerr := c.plainCall(ctx, "generateDecimalFractions", params)
		if aerr != nil {
			return nil, aerr
		}
		return extract.Floats(env, c.codec)
	}
	cache := &Cache[float64]{pool: precache.New(spec, fetch)}
	c.registerPrecache(name, cache)
	return cache
}

// NewGaussianCache builds a precache pool of Gaussian-distributed batches
// of size n (spec §4.5.1, §4.5.3). Gaussians have no replacement concept,
// so the pool always bulk-orders.
func (c *Client) NewGaussianCache(name string, n int, mean, standardDeviation float64, significantDigits, targetBufferSize int) *Cache[float64] {
	perElement := ceilLog2Scaled(float64(significantDigits) * math.Log2(10))
	spec := precache.Spec{
		N:                n,
		TargetBufferSize: targetBufferSizeOr(targetBufferSize, defaultCacheTargetBufferSize),
		PerElementBits:   perElement,
		MaxRequestBits:   c.maxRequestBits,
	}
	fetch := func(ctx context.Context, bulk, batchN int) ([]float64, *apierr.Error) {
		params := map[string]any{
			"n": bulk * batchN, "mean": mean, "standardDeviation": standardDeviation,
			"significantDigits": significantDigits,
		}
		env, aerr := c.plainCall(ctx, "generateGaussians", params)
		if aerr != nil {
			return nil, aerr
		}
		return extract.Floats(env, c.codec)
	}
	cache := &Cache[float64]{pool: precache.New(spec, fetch)}
	c.registerPrecache(name, cache)
	return cache
}

// NewStringCache builds a precache pool of string batches of size n,
// each of the given length drawn from characters (spec §4.5.1, §4.5.3).
func (c *Client) NewStringCache(name string, n, length int, characters string, targetBufferSize int, withoutReplacement bool) *Cache[string] {
	alphabetSize := int64(utf8.RuneCountInString(characters))
	perElement := ceilLog2Scaled(math.Log2(float64(alphabetSize)) * float64(length))
	spec := precache.Spec{
		N:                  n,
		TargetBufferSize:   targetBufferSizeOr(targetBufferSize, defaultCacheTargetBufferSize),
		WithoutReplacement: withoutReplacement,
		PerElementBits:     perElement,
		MaxRequestBits:     c.maxRequestBits,
	}
	fetch := func(ctx context.Context, bulk, batchN int) ([]string, *apierr.Error) {
		params := map[string]any{
			"n": bulk * batchN, "length": length, "characters": characters,
			"replacement": !withoutReplacement,
		}
		env, aerr := c.plainCall(ctx, "generateStrings", params)
		if aerr != nil {
			return nil, aerr
		}
		return extract.Strings(env, c.codec)
	}
	cache := &Cache[string]{pool: precache.New(spec, fetch)}
	c.registerPrecache(name, cache)
	return cache
}

// NewUUIDCache builds a precache pool of UUID batches of size n (spec
// §4.5.1, §4.5.3: fixed 122-bit estimate).
func (c *Client) NewUUIDCache(name string, n, targetBufferSize int) *Cache[uuid.UUID] {
	spec := precache.Spec{
		N:                n,
		TargetBufferSize: targetBufferSizeOr(targetBufferSize, defaultSmallCacheTargetBufferSize),
		PerElementBits:   122,
		MaxRequestBits:   c.maxRequestBits,
	}
	fetch := func(ctx context.Context, bulk, batchN int) ([]uuid.UUID, *apierr.Error) {
		params := map[string]any{"n": bulk * batchN}
		env, aerr := c.plainCall(ctx, "generateUUIDs", params)
		if aerr != nil {
			return nil, aerr
		}
		return extract.UUIDs(env, c.codec)
	}
	cache := &Cache[uuid.UUID]{pool: precache.New(spec, fetch)}
	c.registerPrecache(name, cache)
	return cache
}

// NewBlobCache builds a precache pool of blob batches of size n, each
// sizeBits long and encoded per format (spec §4.5.1, §4.5.3).
func (c *Client) NewBlobCache(name string, n, sizeBits int, format string, targetBufferSize int) *Cache[string] {
	spec := precache.Spec{
		N:                n,
		TargetBufferSize: targetBufferSizeOr(targetBufferSize, defaultSmallCacheTargetBufferSize),
		PerElementBits:   int64(sizeBits),
		MaxRequestBits:   c.maxRequestBits,
	}
	fetch := func(ctx context.Context, bulk, batchN int) ([]string, *apierr.Error) {
		params := map[string]any{"n": bulk * batchN, "size": sizeBits, "format": format}
		env, aerr := c.plainCall(ctx, "generateBlobs", params)
		if aerr != nil {
			return nil, aerr
		}
		return extract.Strings(env, c.codec)
	}
	cache := &Cache[string]{pool: precache.New(spec, fetch)}
	c.registerPrecache(name, cache)
	return cache
}
