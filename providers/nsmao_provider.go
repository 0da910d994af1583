package providers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ipsign.app/errors"
	"ipsign.app/models"
)

// NsmaoProvider implements GeoProvider for api.nsmao.net
type NsmaoProvider struct {
	key        string
	baseURL    string
	httpClient *http.Client
}

type nsmaoResponse struct {
	Data struct {
		IP       string  `json:"ip"`
		City     string  `json:"city"`
		Province string  `json:"province"`
		Country  string  `json:"country"`
		Lat      float64 `json:"lat"`
		Lng      float64 `json:"lng"`
	} `json:"data"`
	Msg string `json:"msg,omitempty"`
}

func NewNsmaoProvider(key, baseURL string) *NsmaoProvider {
	return &NsmaoProvider{
		key:     key,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (p *NsmaoProvider) Name() string {
	return "nsmao"
}

func (p *NsmaoProvider) Lookup(ip string) (*models.Location, error) {
	url := fmt.Sprintf("%s/api/ipip/query?key=%s&ip=%s", p.baseURL, p.key, ip)

	resp, err := p.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("nsmao request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("close response body", "error", closeErr)
		}
	}()

	// The upstream answers some successful queries with redirect-class codes.
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusSeeOther {
		return nil, errors.NewExternalAPIError(fmt.Sprintf("nsmao: HTTP %d error", resp.StatusCode), nil)
	}

	var apiResponse nsmaoResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("decode nsmao response: %w", err)
	}

	return p.normalize(ip, &apiResponse), nil
}

// normalize substitutes defaults for every field the upstream omitted.
// The upstream carries no time zone, so UTC is always used.
func (p *NsmaoProvider) normalize(requestedIP string, r *nsmaoResponse) *models.Location {
	location := &models.Location{
		IP:       r.Data.IP,
		City:     r.Data.City,
		Region:   r.Data.Province,
		Country:  r.Data.Country,
		Timezone: "UTC",
	}
	if location.IP == "" {
		location.IP = requestedIP
	}
	if r.Data.Lat != 0 || r.Data.Lng != 0 {
		location.Loc = fmt.Sprintf("%g,%g", r.Data.Lat, r.Data.Lng)
	}
	applyLocationDefaults(location)
	return location
}
