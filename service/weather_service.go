package service

import (
	"fmt"
	"log/slog"
	"math/rand"

	"ipsign.app/cache"
	"ipsign.app/models"
	"ipsign.app/providers"
)

// WeatherService resolves coordinates to current conditions. It never
// fails: when the upstream cannot be queried meaningfully or errors out,
// it degrades to synthetic conditions so the card always renders.
type WeatherService struct {
	store    *cache.Store
	provider providers.WeatherProvider
}

func NewWeatherService(store *cache.Store, provider providers.WeatherProvider) *WeatherService {
	return &WeatherService{
		store:    store,
		provider: provider,
	}
}

// Resolve returns current conditions for the coordinate pair.
func (s *WeatherService) Resolve(lat, lon string) *models.WeatherConditions {
	key := fmt.Sprintf("%s,%s", lat, lon)

	var cached models.WeatherConditions
	if s.store.Get(cache.DomainWeather, key, &cached) {
		slog.Debug("weather cache hit", "coordinates", key)
		return &cached
	}

	// The (0,0) sentinel means geolocation degraded to unknown; there is
	// nothing meaningful to ask the upstream for.
	if lat == "0" && lon == "0" {
		conditions := syntheticConditions("默认天气数据")
		s.store.Set(cache.DomainWeather, key, conditions)
		return conditions
	}

	conditions, err := s.provider.CurrentConditions(lat, lon)
	if err != nil {
		slog.Error("weather upstream failed, using synthetic conditions", "coordinates", key, "error", err)
		conditions = syntheticConditions("天气数据不可用")
	} else {
		conditions.Summary.Description = providers.TranslateCondition(conditions.Summary.Description)
	}

	s.store.Set(cache.DomainWeather, key, conditions)
	return conditions
}

// syntheticConditions generates plausible placeholder weather: a random
// temperature in a fixed range, random humidity, standard pressure.
func syntheticConditions(description string) *models.WeatherConditions {
	return &models.WeatherConditions{
		Temperature: rand.Float64()*25 + 5, // 5-30°C
		FeelsLike:   0,
		Humidity:    rand.Intn(100),
		Pressure:    1013,
		WindSpeed:   rand.Float64() * 10,
		Summary: models.WeatherSummary{
			Main:        "Clear",
			Description: description,
			Icon:        "01d",
		},
	}
}
