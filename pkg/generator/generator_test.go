package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tkarvine/draftgate/pkg/api"
)

// scriptedClient returns queued responses in order and records prompts.
type scriptedClient struct {
	responses []string
	errs      []error
	systems   []string
	users     []string
}

func (c *scriptedClient) Complete(_ context.Context, system, user string) (string, error) {
	i := len(c.users)
	c.systems = append(c.systems, system)
	c.users = append(c.users, user)

	if i < len(c.errs) && c.errs[i] != nil {
		return "", c.errs[i]
	}
	if i < len(c.responses) {
		return c.responses[i], nil
	}
	return "", errors.New("no scripted response")
}

func TestGenerateTwoPass(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"  Shipping season is here.  ",
		"golang\n#release\n\nshipit\nextra",
	}}
	g, err := New(client)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	out, err := g.Generate(context.Background(), api.GenerationRequest{
		Topic:    "v2 release",
		Platform: api.PlatformTwitter,
		Tone:     "casual",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if out.Text != "Shipping season is here." {
		t.Fatalf("expected trimmed text, got %q", out.Text)
	}
	// Twitter caps at 3 tags; '#' prefixes and blank lines are cleaned up.
	if len(out.Hashtags) != 3 || out.Hashtags[0] != "golang" || out.Hashtags[1] != "release" || out.Hashtags[2] != "shipit" {
		t.Fatalf("unexpected hashtags: %v", out.Hashtags)
	}

	if len(client.users) != 2 {
		t.Fatalf("expected two completion calls, got %d", len(client.users))
	}
	if !strings.Contains(client.systems[0], "Twitter/X") {
		t.Fatalf("expected twitter system prompt, got %q", client.systems[0])
	}
	if client.systems[1] != "" {
		t.Fatalf("expected no system prompt on hashtag pass, got %q", client.systems[1])
	}
	if !strings.Contains(client.users[0], "Topic: v2 release") || !strings.Contains(client.users[0], "Desired Tone: casual") {
		t.Fatalf("post prompt missing request fields: %q", client.users[0])
	}
	if !strings.Contains(client.users[1], "Shipping season is here.") {
		t.Fatalf("hashtag prompt should quote the generated body: %q", client.users[1])
	}
}

func TestGenerateForwardsGuidanceAndContext(t *testing.T) {
	client := &scriptedClient{responses: []string{"body", "tag"}}
	g, _ := New(client)

	_, err := g.Generate(context.Background(), api.GenerationRequest{
		Topic:             "v2 release",
		Platform:          api.PlatformLinkedIn,
		Tone:              "professional",
		AdditionalContext: "mention the migration guide",
		Guidance:          "less marketing speak",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	prompt := client.users[0]
	if !strings.Contains(prompt, "Additional requirements: mention the migration guide") {
		t.Fatalf("additional context missing from prompt: %q", prompt)
	}
	if !strings.Contains(prompt, "less marketing speak") {
		t.Fatalf("reviewer feedback missing from prompt: %q", prompt)
	}
	if !strings.Contains(client.systems[0], "LinkedIn") {
		t.Fatalf("expected linkedin system prompt, got %q", client.systems[0])
	}
	if !strings.Contains(client.users[1], "Suggest 5 relevant hashtags") {
		t.Fatalf("expected 5 hashtags for linkedin, got %q", client.users[1])
	}
}

func TestGenerateErrors(t *testing.T) {
	ctx := context.Background()

	if _, err := New(nil); err == nil {
		t.Fatalf("expected error for nil client")
	}

	boom := errors.New("boom")
	g, _ := New(&scriptedClient{errs: []error{boom}})
	if _, err := g.Generate(ctx, api.GenerationRequest{Topic: "t", Platform: api.PlatformTwitter, Tone: "casual"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped client error, got %v", err)
	}

	g, _ = New(&scriptedClient{responses: []string{"   "}})
	if _, err := g.Generate(ctx, api.GenerationRequest{Topic: "t", Platform: api.PlatformTwitter, Tone: "casual"}); err == nil {
		t.Fatalf("expected error for empty post text")
	}

	g, _ = New(&scriptedClient{responses: []string{"body"}, errs: []error{nil, boom}})
	if _, err := g.Generate(ctx, api.GenerationRequest{Topic: "t", Platform: api.PlatformTwitter, Tone: "casual"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped hashtag error, got %v", err)
	}
}

func TestMockLLMRoundTrip(t *testing.T) {
	g, err := New(&MockLLM{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	out, err := g.Generate(context.Background(), api.GenerationRequest{
		Topic:    "office coffee",
		Platform: api.PlatformTwitter,
		Tone:     "casual",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(out.Text, "office coffee") {
		t.Fatalf("expected topic in mock draft, got %q", out.Text)
	}
	if len(out.Hashtags) != 3 {
		t.Fatalf("expected 3 mock hashtags, got %v", out.Hashtags)
	}
}
