package service

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mileusna/useragent"
	"ipsign.app/models"
)

// SignatureService composes the resolvers into one enrichment pipeline
// per request. Location resolution strictly precedes weather resolution;
// the quote is independent and resolved concurrently.
type SignatureService struct {
	geo     *GeoService
	weather *WeatherService
	quote   *QuoteService
}

func NewSignatureService(geo *GeoService, weather *WeatherService, quote *QuoteService) *SignatureService {
	return &SignatureService{
		geo:     geo,
		weather: weather,
		quote:   quote,
	}
}

// BuildRecord assembles the composite record for one client request. It
// fails only when geolocation raises its fatal or fallback-exhausted
// errors; every other sub-failure is absorbed by the resolvers.
func (s *SignatureService) BuildRecord(ip, userAgent string) (*models.SignatureRecord, error) {
	quoteCh := make(chan string, 1)
	go func() {
		quoteCh <- s.quote.Resolve()
	}()

	location, err := s.geo.Resolve(ip)
	if err != nil {
		return nil, err
	}
	slog.Debug("location resolved", "ip", ip, "city", location.City, "timezone", location.Timezone)

	lat, lon := location.Coordinates()
	conditions := s.weather.Resolve(lat, lon)

	record := &models.SignatureRecord{
		IP:       location.IP,
		Location: FormatLocation(location.City, location.Region, location.Country),
		Time:     LocalTimeLabel(time.Now(), location.Timezone),
		Weather:  *conditions,
		Client:   ParseUserAgent(userAgent),
		Quote:    <-quoteCh,
	}

	return record, nil
}

// FormatLocation renders the location label. When city and region carry
// the same name the region is elided.
func FormatLocation(city, region, country string) string {
	if city == region {
		return fmt.Sprintf("%s, %s", city, country)
	}
	return fmt.Sprintf("%s, %s, %s", city, region, country)
}

var weekdayLabels = map[time.Weekday]string{
	time.Sunday:    "星期日",
	time.Monday:    "星期一",
	time.Tuesday:   "星期二",
	time.Wednesday: "星期三",
	time.Thursday:  "星期四",
	time.Friday:    "星期五",
	time.Saturday:  "星期六",
}

// LocalTimeLabel formats t as a localized long date plus weekday in the
// given IANA time zone. An unknown zone degrades to UTC.
func LocalTimeLabel(t time.Time, timezone string) string {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		slog.Warn("unknown time zone, using UTC", "timezone", timezone)
		loc = time.UTC
	}
	local := t.In(loc)
	return fmt.Sprintf("%d年%d月%d日 %s", local.Year(), int(local.Month()), local.Day(), weekdayLabels[local.Weekday()])
}

// ParseUserAgent extracts OS and browser labels from a user agent string.
func ParseUserAgent(ua string) models.ClientInfo {
	info := models.ClientInfo{
		OS:      "未知系统",
		Browser: "未知浏览器",
	}
	if ua == "" {
		return info
	}

	parsed := useragent.Parse(ua)
	if parsed.OS != "" {
		info.OS = strings.TrimSpace(fmt.Sprintf("%s %s", parsed.OS, parsed.OSVersion))
	}
	if parsed.Name != "" {
		info.Browser = strings.TrimSpace(fmt.Sprintf("%s %s", parsed.Name, parsed.Version))
	}
	return info
}
