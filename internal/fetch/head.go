package fetch

import (
	"context"
	"net/http"
	"time"
)

// URLChecker is the lightweight existence check the Validator uses on
// product URLs. It is not a full re-fetch.
type URLChecker interface {
	Reachable(ctx context.Context, url string) bool
}

// HeadChecker verifies a URL responds 2xx to a HEAD request, following
// redirects.
type HeadChecker struct {
	client *http.Client
	agents *AgentRotation
}

func NewHeadChecker() *HeadChecker {
	return &HeadChecker{
		client: &http.Client{Timeout: 5 * time.Second},
		agents: NewAgentRotation(),
	}
}

func (h *HeadChecker) Reachable(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", h.agents.Next())
	resp, err := h.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
