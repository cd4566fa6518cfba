package extraction

import (
	"context"
	"time"
)

// timeoutClient bounds every completion call with a deadline so a stalled
// provider cannot hold a webhook request open indefinitely.
type timeoutClient struct {
	client  LLMClient
	timeout time.Duration
}

// WithTimeout wraps client so each Complete call runs under the given
// deadline. A non-positive timeout returns the client unchanged.
func WithTimeout(client LLMClient, timeout time.Duration) LLMClient {
	if client == nil {
		panic("extraction: llm client cannot be nil")
	}
	if timeout <= 0 {
		return client
	}
	return &timeoutClient{client: client, timeout: timeout}
}

func (c *timeoutClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.client.Complete(ctx, req)
}
