package rorandom

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/rorandom/rorandom-go/internal/apierr"
	"github.com/rorandom/rorandom-go/internal/extract"
)

// maxVerificationURLLength is the hard cap from spec §4.4.2.
const maxVerificationURLLength = 2046

// base64Alphabet matches strings already in the base64 alphabet (spec §9
// "URL encoding": detect before re-encoding).
var base64Alphabet = regexp.MustCompile(`^[A-Za-z0-9+/]+={0,2}$`)

var urlSafeReplacer = strings.NewReplacer("=", "%3D", "+", "%2B", "/", "%2F")

// urlSafeBase64 base64-encodes s only if it doesn't already look like
// base64, then percent-encodes exactly the three characters the
// verification endpoint requires escaped (spec §9: "not RFC 3986
// percent-encoding in general — only the three documented characters").
func urlSafeBase64(s string) string {
	if !base64Alphabet.MatchString(s) {
		s = base64.StdEncoding.EncodeToString([]byte(s))
	}
	return urlSafeReplacer.Replace(s)
}

// VerifySignature asks the service to verify a signed result bundle
// (spec §4.4.2). random must be the byte-exact value received in a
// SignedResult — it is forwarded as-is, never re-marshaled.
func (c *Client) VerifySignature(ctx context.Context, random []byte, signature string) (bool, *apierr.Error) {
	params := map[string]any{"random": json.RawMessage(random), "signature": signature}
	// verifySignature is a public check against a self-contained signed
	// bundle and does not require the credential.
	result, derr := c.call(ctx, "verifySignature", params, false)
	if derr != nil {
		return false, derr
	}
	return extract.Authenticity(result, c.codec)
}

// CreateVerificationURL builds a URL to the signature-verification form
// page that pre-fills random and signature (spec §4.4.2, §9).
func (c *Client) CreateVerificationURL(random []byte, signature string) (string, *apierr.Error) {
	randomPart := urlSafeBase64(string(random))
	sigPart := urlSafeBase64(signature)
	url := fmt.Sprintf("%s?format=json&random=%s&signature=%s", SignatureVerificationEndpoint, randomPart, sigPart)
	if len(url) > maxVerificationURLLength {
		return "", apierr.Newf(apierr.ServiceError, "verification URL length %d exceeds %d characters", len(url), maxVerificationURLLength)
	}
	return url, nil
}

// CreateVerificationFormHTML builds the fixed HTML form snippet that
// posts the same fields as CreateVerificationURL (spec §4.4.2).
func (c *Client) CreateVerificationFormHTML(random []byte, signature string) string {
	return fmt.Sprintf(
		"<form action=%q method=\"post\">\n"+
			"<input type=\"hidden\" name=\"format\" value=\"json\"/>\n"+
			"<input type=\"hidden\" name=\"random\" value=\"%s\"/>\n"+
			"<input type=\"hidden\" name=\"signature\" value=\"%s\"/>\n"+
			"<input type=\"submit\" value=\"Verify\"/>\n"+
			"</form>",
		SignatureVerificationEndpoint, html.EscapeString(string(random)), html.EscapeString(signature))
}
