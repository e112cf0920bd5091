package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tkarvine/draftgate/pkg/api"
)

const twitterAPIBaseURL = "https://api.twitter.com"

// Twitter posts tweets through the v2 API using an OAuth 2.0 user-context
// bearer token with the tweet.write scope.
type Twitter struct {
	BearerToken string

	// BaseURL overrides the API endpoint, for tests. Empty means the real API.
	BaseURL string
	// HTTPClient overrides the transport. Nil means a 30s-timeout default.
	HTTPClient *http.Client
}

var _ api.Publisher = (*Twitter)(nil)

// NewTwitter creates a connector with the given user-context bearer token.
func NewTwitter(bearerToken string) (*Twitter, error) {
	if bearerToken == "" {
		return nil, errors.New("twitter bearer token is required")
	}
	return &Twitter{BearerToken: bearerToken}, nil
}

type createTweetRequest struct {
	Text string `json:"text"`
}

type createTweetResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (t *Twitter) Publish(ctx context.Context, content string, platform api.Platform) (api.PublishResult, error) {
	if err := validateContent(content, api.PlatformTwitter); err != nil {
		return api.PublishResult{}, err
	}

	body, err := json.Marshal(createTweetRequest{Text: content})
	if err != nil {
		return api.PublishResult{}, err
	}

	base := t.BaseURL
	if base == "" {
		base = twitterAPIBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/2/tweets", bytes.NewReader(body))
	if err != nil {
		return api.PublishResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+t.BearerToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := defaultHTTPClient(t.HTTPClient).Do(req)
	if err != nil {
		return api.PublishResult{}, fmt.Errorf("create tweet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return api.PublishResult{}, fmt.Errorf("create tweet: status %d: %s", resp.StatusCode, msg)
	}

	var out createTweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return api.PublishResult{}, fmt.Errorf("decode tweet response: %w", err)
	}
	if out.Data.ID == "" {
		return api.PublishResult{}, errors.New("create tweet: response carried no tweet id")
	}

	return api.PublishResult{
		ConfirmationID: out.Data.ID,
		URL:            "https://twitter.com/user/status/" + out.Data.ID,
	}, nil
}
