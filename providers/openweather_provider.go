package providers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ipsign.app/errors"
	"ipsign.app/models"
)

// OpenWeatherMapProvider implements WeatherProvider for OpenWeatherMap
type OpenWeatherMapProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type openWeatherMapResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Message string `json:"message,omitempty"`
}

func NewOpenWeatherMapProvider(apiKey, baseURL string) *OpenWeatherMapProvider {
	return &OpenWeatherMapProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (p *OpenWeatherMapProvider) CurrentConditions(lat, lon string) (*models.WeatherConditions, error) {
	url := fmt.Sprintf("%s?lat=%s&lon=%s&appid=%s&units=metric", p.baseURL, lat, lon, p.apiKey)

	resp, err := p.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("openweathermap request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, p.handleHTTPError(resp.StatusCode)
	}

	var apiResponse openWeatherMapResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("decode openweathermap response: %w", err)
	}

	return p.normalize(&apiResponse), nil
}

func (p *OpenWeatherMapProvider) handleHTTPError(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return errors.NewExternalAPIError("openweathermap: invalid API key", nil)
	case http.StatusNotFound:
		return errors.NewExternalAPIError("openweathermap: location not found", nil)
	case http.StatusTooManyRequests:
		return errors.NewExternalAPIError("openweathermap: rate limit exceeded", nil)
	case http.StatusServiceUnavailable:
		return errors.NewExternalAPIError("openweathermap: service unavailable", nil)
	default:
		return errors.NewExternalAPIError(fmt.Sprintf("openweathermap: HTTP %d error", statusCode), nil)
	}
}

func (p *OpenWeatherMapProvider) normalize(r *openWeatherMapResponse) *models.WeatherConditions {
	conditions := &models.WeatherConditions{
		Temperature: r.Main.Temp,
		FeelsLike:   r.Main.FeelsLike,
		Humidity:    r.Main.Humidity,
		Pressure:    r.Main.Pressure,
		WindSpeed:   r.Wind.Speed,
		Summary: models.WeatherSummary{
			Main:        "Clear",
			Description: "",
			Icon:        "01d",
		},
	}
	if len(r.Weather) > 0 {
		conditions.Summary.Main = r.Weather[0].Main
		conditions.Summary.Description = r.Weather[0].Description
		conditions.Summary.Icon = r.Weather[0].Icon
	}
	return conditions
}

// conditionTranslations maps canonical OpenWeatherMap condition phrases to
// localized text. Unmapped phrases pass through unchanged.
var conditionTranslations = map[string]string{
	"clear sky":        "晴朗",
	"few clouds":       "少云",
	"scattered clouds": "散云",
	"broken clouds":    "多云",
	"overcast clouds":  "阴天",
	"shower rain":      "阵雨",
	"rain":             "雨",
	"light rain":       "小雨",
	"moderate rain":    "中雨",
	"heavy rain":       "大雨",
	"thunderstorm":     "雷暴",
	"snow":             "雪",
	"light snow":       "小雪",
	"moderate snow":    "中雪",
	"heavy snow":       "大雪",
	"mist":             "薄雾",
	"fog":              "雾",
	"haze":             "霾",
	"dust":             "浮尘",
	"sand":             "沙尘",
	"smoke":            "烟雾",
}

// TranslateCondition localizes a condition description. The lookup is
// case-insensitive; unknown phrases are returned as-is.
func TranslateCondition(description string) string {
	if translated, ok := conditionTranslations[strings.ToLower(description)]; ok {
		return translated
	}
	return description
}
