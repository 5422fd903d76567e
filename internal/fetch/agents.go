package fetch

import (
	"sync"
)

// AgentRotation hands out user agent strings round-robin so repeated
// requests to one site don't present an identical fingerprint.
type AgentRotation struct {
	mu     sync.Mutex
	agents []string
	index  int
}

func NewAgentRotation() *AgentRotation {
	return &AgentRotation{
		agents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
	}
}

// Next returns the next user agent in rotation.
func (a *AgentRotation) Next() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	agent := a.agents[a.index]
	a.index = (a.index + 1) % len(a.agents)
	return agent
}
