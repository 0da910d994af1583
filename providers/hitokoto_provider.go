package providers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// HitokotoProvider implements QuoteProvider for v1.hitokoto.cn
type HitokotoProvider struct {
	baseURL    string
	httpClient *http.Client
}

type hitokotoResponse struct {
	ID       int    `json:"id"`
	Hitokoto string `json:"hitokoto"`
	Type     string `json:"type"`
	From     string `json:"from"`
}

func NewHitokotoProvider(baseURL string) *HitokotoProvider {
	return &HitokotoProvider{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (p *HitokotoProvider) FetchQuote() (string, error) {
	resp, err := p.httpClient.Get(p.baseURL)
	if err != nil {
		return "", fmt.Errorf("hitokoto request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("hitokoto: HTTP %d error", resp.StatusCode)
	}

	var apiResponse hitokotoResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", fmt.Errorf("decode hitokoto response: %w", err)
	}

	if apiResponse.Hitokoto == "" {
		return "", fmt.Errorf("hitokoto: empty quote in response")
	}

	return apiResponse.Hitokoto, nil
}
