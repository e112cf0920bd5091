package generator

import (
	"fmt"
	"strings"

	"github.com/tkarvine/draftgate/pkg/api"
)

// Platform-specific system prompts. The generator falls back to the Twitter
// prompt for unknown platforms rather than failing the whole request.
var platformPrompts = map[api.Platform]string{
	api.PlatformTwitter: `You are an expert social media copywriter for Twitter/X.
Create engaging tweets that:
- Are concise (max 280 characters including hashtags)
- Use attention-grabbing hooks
- Include relevant hashtags (2-4 max)
- Drive engagement through questions or calls-to-action

Character limit is STRICT: 280 characters maximum.`,
	api.PlatformLinkedIn: `You are an expert social media copywriter for LinkedIn.
Create professional posts that:
- Are informative and add value
- Use a professional yet personable tone
- Include relevant hashtags (3-5)
- Encourage professional discussion
- Can be up to 3000 characters but aim for 150-300 words for best engagement`,
}

func systemPrompt(p api.Platform) string {
	if s, ok := platformPrompts[p]; ok {
		return s
	}
	return platformPrompts[api.PlatformTwitter]
}

func postPrompt(req api.GenerationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a %s post about the following topic:\n\n", req.Platform)
	fmt.Fprintf(&b, "Topic: %s\n", req.Topic)
	fmt.Fprintf(&b, "Desired Tone: %s\n", req.Tone)
	if req.AdditionalContext != "" {
		fmt.Fprintf(&b, "Additional requirements: %s\n", req.AdditionalContext)
	}
	if req.Guidance != "" {
		fmt.Fprintf(&b, "A previous draft was rejected by a human reviewer. Their feedback: %s\n", req.Guidance)
	}
	b.WriteString("\nRespond with ONLY the post text. Do not include hashtags in the main text - I will ask for those separately.")
	return b.String()
}

func hashtagPrompt(p api.Platform, postText string, n int) string {
	return fmt.Sprintf(`Given this %s post:

"%s"

Suggest %d relevant hashtags. Return ONLY the hashtags, one per line, without the # symbol.`, p, postText, n)
}

// hashtagCount returns how many hashtags to request per platform.
func hashtagCount(p api.Platform) int {
	if p == api.PlatformLinkedIn {
		return 5
	}
	return 3
}

// parseHashtags splits a one-tag-per-line completion into at most n clean
// tags, tolerating leading '#' and blank lines.
func parseHashtags(raw string, n int) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		tag := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "#"))
		if tag == "" {
			continue
		}
		out = append(out, tag)
		if len(out) == n {
			break
		}
	}
	return out
}
