// Package generator produces social post drafts with a chat-completion LLM.
//
// Drafting is a two-pass conversation: the first completion writes the post
// body under a platform-specific system prompt, the second suggests hashtags
// for that body. The package exposes the result as an api.ContentGenerator
// so the workflow engine never sees LLM details.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tkarvine/draftgate/pkg/api"
)

// LLMClient is the minimal chat-completion surface the generator needs.
// system may be empty, in which case no system message is sent.
type LLMClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// LLMGenerator implements api.ContentGenerator on top of an LLMClient.
type LLMGenerator struct {
	client LLMClient
}

var _ api.ContentGenerator = (*LLMGenerator)(nil)

// New creates a generator using the given client.
func New(client LLMClient) (*LLMGenerator, error) {
	if client == nil {
		return nil, errors.New("generator: llm client is required")
	}
	return &LLMGenerator{client: client}, nil
}

func (g *LLMGenerator) Generate(ctx context.Context, req api.GenerationRequest) (api.GeneratedPost, error) {
	text, err := g.client.Complete(ctx, systemPrompt(req.Platform), postPrompt(req))
	if err != nil {
		return api.GeneratedPost{}, fmt.Errorf("generate post text: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return api.GeneratedPost{}, errors.New("generator returned empty post text")
	}

	n := hashtagCount(req.Platform)
	raw, err := g.client.Complete(ctx, "", hashtagPrompt(req.Platform, text, n))
	if err != nil {
		return api.GeneratedPost{}, fmt.Errorf("generate hashtags: %w", err)
	}

	return api.GeneratedPost{
		Text:     text,
		Hashtags: parseHashtags(raw, n),
	}, nil
}
