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

// IPInfoProvider implements GeoProvider for ipinfo.io
type IPInfoProvider struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

type ipInfoResponse struct {
	IP       string `json:"ip"`
	City     string `json:"city"`
	Region   string `json:"region"`
	Country  string `json:"country"`
	Loc      string `json:"loc"`
	Timezone string `json:"timezone"`
}

func NewIPInfoProvider(token, baseURL string) *IPInfoProvider {
	return &IPInfoProvider{
		token:   token,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (p *IPInfoProvider) Name() string {
	return "ipinfo"
}

func (p *IPInfoProvider) Lookup(ip string) (*models.Location, error) {
	url := fmt.Sprintf("%s/%s?token=%s", p.baseURL, ip, p.token)

	resp, err := p.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("ipinfo request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, p.handleHTTPError(resp.StatusCode)
	}

	var apiResponse ipInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("decode ipinfo response: %w", err)
	}

	return p.normalize(ip, &apiResponse), nil
}

func (p *IPInfoProvider) handleHTTPError(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.NewExternalAPIError("ipinfo: invalid token", nil)
	case http.StatusTooManyRequests:
		return errors.NewExternalAPIError("ipinfo: rate limit exceeded", nil)
	default:
		return errors.NewExternalAPIError(fmt.Sprintf("ipinfo: HTTP %d error", statusCode), nil)
	}
}

// normalize substitutes defaults for every field the upstream omitted.
func (p *IPInfoProvider) normalize(requestedIP string, r *ipInfoResponse) *models.Location {
	location := &models.Location{
		IP:       r.IP,
		City:     r.City,
		Region:   r.Region,
		Country:  r.Country,
		Loc:      r.Loc,
		Timezone: r.Timezone,
	}
	if location.IP == "" {
		location.IP = requestedIP
	}
	applyLocationDefaults(location)
	return location
}

// applyLocationDefaults fills missing location fields with the documented
// sentinels instead of failing on partial payloads.
func applyLocationDefaults(location *models.Location) {
	if location.City == "" {
		location.City = models.Unknown
	}
	if location.Region == "" {
		location.Region = models.Unknown
	}
	if location.Country == "" {
		location.Country = models.Unknown
	}
	if location.Loc == "" {
		location.Loc = "0,0"
	}
	if location.Timezone == "" {
		location.Timezone = "UTC"
	}
}
