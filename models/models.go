// Package models defines data structures used throughout the application
package models

import "strings"

// Unknown is the sentinel used when an upstream omits a location field.
const Unknown = "未知"

// Location represents geolocation data resolved for a client address
type Location struct {
	IP       string `json:"ip"`
	City     string `json:"city"`
	Region   string `json:"region"`
	Country  string `json:"country"`
	Loc      string `json:"loc"` // "lat,lon"
	Timezone string `json:"timezone"`
}

// Coordinates splits the Loc field into its latitude and longitude parts.
// A malformed value degrades to the "0,0" sentinel.
func (l *Location) Coordinates() (lat, lon string) {
	parts := strings.SplitN(l.Loc, ",", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "0", "0"
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}

// WeatherSummary describes the current condition in short form
type WeatherSummary struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// WeatherConditions represents current weather data for a coordinate pair
type WeatherConditions struct {
	Temperature float64        `json:"temp"`
	FeelsLike   float64        `json:"feels_like"`
	Humidity    int            `json:"humidity"`
	Pressure    int            `json:"pressure"`
	WindSpeed   float64        `json:"wind_speed"`
	Summary     WeatherSummary `json:"weather"`
}

// ClientInfo holds the OS and browser labels parsed from a user agent
type ClientInfo struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
}

// SignatureRecord is the composite record handed to the renderer.
// It is built fresh per request and never persisted.
type SignatureRecord struct {
	IP       string            `json:"ip"`
	Location string            `json:"location"`
	Time     string            `json:"time"`
	Weather  WeatherConditions `json:"weather"`
	Client   ClientInfo        `json:"client"`
	Quote    string            `json:"quote"`
}
