// Package publisher posts approved content to social platforms.
//
// Each platform gets its own connector implementing api.Publisher; the
// Registry composes them behind a single api.Publisher that dispatches on
// the target platform.
package publisher

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tkarvine/draftgate/pkg/api"
)

// Registry dispatches publish calls to the connector registered for the
// target platform.
type Registry struct {
	connectors map[api.Platform]api.Publisher
}

var _ api.Publisher = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{connectors: make(map[api.Platform]api.Publisher)}
}

// Register installs a connector for the given platform, replacing any
// previous one.
func (r *Registry) Register(p api.Platform, pub api.Publisher) {
	r.connectors[p] = pub
}

func (r *Registry) Publish(ctx context.Context, content string, platform api.Platform) (api.PublishResult, error) {
	pub, ok := r.connectors[platform]
	if !ok {
		return api.PublishResult{}, fmt.Errorf("no publisher registered for platform %q", platform)
	}
	return pub.Publish(ctx, content, platform)
}

// validateContent rejects empty posts and posts over the platform limit
// before any network call is made.
func validateContent(content string, platform api.Platform) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content cannot be empty")
	}
	if n := len([]rune(content)); n > platform.MaxLength() {
		return fmt.Errorf("content is %d characters, %s allows %d", n, platform, platform.MaxLength())
	}
	return nil
}

func defaultHTTPClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: 30 * time.Second}
}
