package render

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// IconCache fetches weather condition icons and keeps decoded copies in
// memory for the process lifetime.
type IconCache struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.Mutex
	icons map[string]image.Image
}

func NewIconCache(baseURL string) *IconCache {
	return &IconCache{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		icons: make(map[string]image.Image),
	}
}

// Fetch returns the icon for a condition code, downloading it on first use.
func (c *IconCache) Fetch(code string) (image.Image, error) {
	c.mu.Lock()
	if icon, ok := c.icons[code]; ok {
		c.mu.Unlock()
		return icon, nil
	}
	c.mu.Unlock()

	url := fmt.Sprintf("%s/%s@2x.png", c.baseURL, code)
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch weather icon: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch weather icon: HTTP %d error", resp.StatusCode)
	}

	icon, err := png.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode weather icon: %w", err)
	}

	c.mu.Lock()
	c.icons[code] = icon
	c.mu.Unlock()

	return icon, nil
}
