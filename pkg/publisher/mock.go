package publisher

import (
	"context"
	"fmt"
	"sync"

	"github.com/tkarvine/draftgate/pkg/api"
)

// Mock is an in-process api.Publisher for local runs and tests. It validates
// content like a real connector but performs no network calls.
type Mock struct {
	// Err, when set, is returned from every Publish call.
	Err error

	mu    sync.Mutex
	calls int
	last  string
}

var _ api.Publisher = (*Mock)(nil)

func (m *Mock) Publish(ctx context.Context, content string, platform api.Platform) (api.PublishResult, error) {
	if err := validateContent(content, platform); err != nil {
		return api.PublishResult{}, err
	}

	m.mu.Lock()
	m.calls++
	n := m.calls
	m.last = content
	m.mu.Unlock()

	if m.Err != nil {
		return api.PublishResult{}, m.Err
	}
	id := fmt.Sprintf("mock-%s-%d", platform, n)
	return api.PublishResult{
		ConfirmationID: id,
		URL:            fmt.Sprintf("https://example.com/%s/%s", platform, id),
	}, nil
}

// Calls returns how many times Publish was invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastContent returns the content of the most recent Publish call.
func (m *Mock) LastContent() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}
