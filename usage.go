package rorandom

import (
	"context"

	"github.com/rorandom/rorandom-go/internal/apierr"
)

// UsageInfo is the result shape of getUsage (spec §6).
type UsageInfo struct {
	Status         string `json:"status"`
	CreationTime   string `json:"creationTime"`
	BitsLeft       int64  `json:"bitsLeft"`
	RequestsLeft   int64  `json:"requestsLeft"`
	TotalBits      int64  `json:"totalBits"`
	TotalRequests  int64  `json:"totalRequests"`
}

// GetUsage refreshes usage bookkeeping and returns the service's current
// allowance view (spec §4.4.2). It is not a ticket op, so the dispatch
// engine's normal post-send bookkeeping refreshes the client's usage
// snapshot as a side effect of this call.
func (c *Client) GetUsage(ctx context.Context) (*UsageInfo, *apierr.Error) {
	result, derr := c.call(ctx, "getUsage", map[string]any{}, true)
	if derr != nil {
		return nil, derr
	}
	var info UsageInfo
	if err := c.codec.Unmarshal(result, &info); err != nil {
		return nil, apierr.Newf(apierr.ProtocolError, "decode usage: %v", err)
	}
	return &info, nil
}
