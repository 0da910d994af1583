package providers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// IpifyProvider implements PublicIPProvider via api.ipify.org
type IpifyProvider struct {
	baseURL    string
	httpClient *http.Client
}

func NewIpifyProvider(baseURL string) *IpifyProvider {
	return &IpifyProvider{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (p *IpifyProvider) PublicIP() (string, error) {
	resp, err := p.httpClient.Get(p.baseURL)
	if err != nil {
		return "", fmt.Errorf("ipify request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ipify: HTTP %d error", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return "", fmt.Errorf("read ipify response: %w", err)
	}

	ip := strings.TrimSpace(string(body))
	if ip == "" {
		return "", fmt.Errorf("ipify: empty response")
	}

	return ip, nil
}
