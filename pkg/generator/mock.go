package generator

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockLLM is a canned LLMClient for local runs and tests; it never calls an
// external model. The first completion of each pair yields a short post body
// derived from the prompt, the second a fixed hashtag list.
type MockLLM struct {
	mu    sync.Mutex
	calls int
}

var _ LLMClient = (*MockLLM)(nil)

func (m *MockLLM) Complete(_ context.Context, system, user string) (string, error) {
	m.mu.Lock()
	m.calls++
	n := m.calls
	m.mu.Unlock()

	if system == "" {
		// Hashtag pass.
		return "draftgate\ndemo\nautomation", nil
	}

	topic := "something interesting"
	for _, line := range strings.Split(user, "\n") {
		if t, ok := strings.CutPrefix(line, "Topic: "); ok {
			topic = t
			break
		}
	}
	return fmt.Sprintf("Draft %d: a few honest words about %s.", (n+1)/2, topic), nil
}
