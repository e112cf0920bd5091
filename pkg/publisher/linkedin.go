package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/tkarvine/draftgate/pkg/api"
)

const linkedinAPIBaseURL = "https://api.linkedin.com/v2"

// LinkedIn posts member shares through the UGC API using an OAuth 2.0
// access token with the w_member_social scope.
type LinkedIn struct {
	AccessToken string

	// Visibility of created posts: "PUBLIC" or "CONNECTIONS".
	// Empty means PUBLIC.
	Visibility string

	// BaseURL overrides the API endpoint, for tests. Empty means the real API.
	BaseURL string
	// HTTPClient overrides the transport. Nil means a 30s-timeout default.
	HTTPClient *http.Client

	mu      sync.Mutex
	userURN string // resolved once from /userinfo
}

var _ api.Publisher = (*LinkedIn)(nil)

// NewLinkedIn creates a connector with the given access token.
func NewLinkedIn(accessToken string) (*LinkedIn, error) {
	if accessToken == "" {
		return nil, errors.New("linkedin access token is required")
	}
	return &LinkedIn{AccessToken: accessToken}, nil
}

func (l *LinkedIn) baseURL() string {
	if l.BaseURL != "" {
		return l.BaseURL
	}
	return linkedinAPIBaseURL
}

func (l *LinkedIn) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+l.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")
}

// resolveUserURN resolves and caches the member URN of the token's owner.
func (l *LinkedIn) resolveUserURN(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.userURN != "" {
		return l.userURN, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL()+"/userinfo", nil)
	if err != nil {
		return "", err
	}
	l.setHeaders(req)

	resp, err := defaultHTTPClient(l.HTTPClient).Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("fetch userinfo: status %d: %s", resp.StatusCode, msg)
	}

	var out struct {
		Sub string `json:"sub"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode userinfo: %w", err)
	}
	if out.Sub == "" {
		return "", errors.New("userinfo response carried no subject")
	}

	l.userURN = "urn:li:person:" + out.Sub
	return l.userURN, nil
}

func (l *LinkedIn) Publish(ctx context.Context, content string, platform api.Platform) (api.PublishResult, error) {
	if err := validateContent(content, api.PlatformLinkedIn); err != nil {
		return api.PublishResult{}, err
	}

	urn, err := l.resolveUserURN(ctx)
	if err != nil {
		return api.PublishResult{}, err
	}

	visibility := l.Visibility
	if visibility == "" {
		visibility = "PUBLIC"
	}

	payload := map[string]any{
		"author":         urn,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": map[string]any{
				"shareCommentary": map[string]any{
					"text": content,
				},
				"shareMediaCategory": "NONE",
			},
		},
		"visibility": map[string]any{
			"com.linkedin.ugc.MemberNetworkVisibility": visibility,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return api.PublishResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL()+"/ugcPosts", bytes.NewReader(body))
	if err != nil {
		return api.PublishResult{}, err
	}
	l.setHeaders(req)

	resp, err := defaultHTTPClient(l.HTTPClient).Do(req)
	if err != nil {
		return api.PublishResult{}, fmt.Errorf("create share: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return api.PublishResult{}, fmt.Errorf("create share: status %d: %s", resp.StatusCode, msg)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return api.PublishResult{}, fmt.Errorf("decode share response: %w", err)
	}

	// The API returns no direct URL; the feed update page is derivable
	// from the share id.
	return api.PublishResult{
		ConfirmationID: out.ID,
		URL:            "https://www.linkedin.com/feed/update/" + out.ID,
	}, nil
}
