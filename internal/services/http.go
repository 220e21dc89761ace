package services

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBody = 64 << 10

// CheckResponse returns an *UpstreamError for non-2xx responses, preserving
// up to 64 KiB of the provider's body. The body is left unread on success.
func CheckResponse(resp *http.Response, provider, operation string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &UpstreamError{
		Provider:   provider,
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

// TransportError tags a failed round trip as an upstream error.
func TransportError(provider, operation string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrUpstream, provider, operation, err)
}
