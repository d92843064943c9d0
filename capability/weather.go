// Copyright (c) StudyFlow Authors. All rights reserved.

package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"studyflow/agentkit"
)

// WeatherArgs is the input contract for the weather lookup.
type WeatherArgs struct {
	Location string `json:"location" jsonschema:"description=City or place name to look up,required"`
	Unit     string `json:"unit,omitempty" jsonschema:"description=Temperature unit,enum=celsius|fahrenheit"`
}

// WeatherOption configures the weather capability.
type WeatherOption func(*weatherService)

// WithWeatherHTTPClient overrides the HTTP client, mainly for tests.
func WithWeatherHTTPClient(c *http.Client) WeatherOption {
	return func(s *weatherService) { s.httpClient = c }
}

// WithWeatherBaseURLs overrides the geocoding and forecast endpoints.
func WithWeatherBaseURLs(geocodeURL, forecastURL string) WeatherOption {
	return func(s *weatherService) {
		s.geocodeURL = geocodeURL
		s.forecastURL = forecastURL
	}
}

type weatherService struct {
	httpClient  *http.Client
	geocodeURL  string
	forecastURL string
}

// NewWeather creates the direct-result weather capability backed by the
// Open-Meteo public API.
func NewWeather(opts ...WeatherOption) *agentkit.FuncCapability {
	svc := &weatherService{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		geocodeURL:  "https://geocoding-api.open-meteo.com/v1/search",
		forecastURL: "https://api.open-meteo.com/v1/forecast",
	}
	for _, opt := range opts {
		opt(svc)
	}

	return agentkit.NewCapability(
		"get_weather",
		"Get the current weather for a location. Use when the user asks about weather conditions.",
		agentkit.KindDirect,
		svc.execute,
	)
}

func (s *weatherService) execute(ctx context.Context, args WeatherArgs, _ *agentkit.Turn) agentkit.Result {
	const name = "get_weather"

	place, err := s.geocode(ctx, args.Location)
	if err != nil {
		return agentkit.Failuref(name, "I couldn't find a place called %q.", args.Location).
			WithDiagnostic(map[string]any{"error": err.Error()})
	}

	unit := args.Unit
	if unit == "" {
		unit = "celsius"
	}
	cur, err := s.forecast(ctx, place, unit)
	if err != nil {
		return agentkit.Failuref(name, "The weather service for %s is unavailable right now.", place.Name).
			WithDiagnostic(map[string]any{"error": err.Error()})
	}

	symbol := "°C"
	if unit == "fahrenheit" {
		symbol = "°F"
	}
	summary := fmt.Sprintf("Currently %s in %s: %.1f%s, wind %.1f km/h.",
		describeWeatherCode(cur.WeatherCode), place.Name, cur.Temperature, symbol, cur.WindSpeed)

	return agentkit.Successf(name, "%s", summary).WithData(map[string]any{
		"location":    place.Name,
		"country":     place.Country,
		"temperature": cur.Temperature,
		"unit":        unit,
		"condition":   describeWeatherCode(cur.WeatherCode),
		"wind_kmh":    cur.WindSpeed,
	})
}

type geoResult struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (s *weatherService) geocode(ctx context.Context, location string) (*geoResult, error) {
	q := url.Values{}
	q.Set("name", location)
	q.Set("count", "1")

	var body struct {
		Results []geoResult `json:"results"`
	}
	if err := s.getJSON(ctx, s.geocodeURL+"?"+q.Encode(), &body); err != nil {
		return nil, err
	}
	if len(body.Results) == 0 {
		return nil, fmt.Errorf("no geocoding match for %q", location)
	}
	return &body.Results[0], nil
}

type currentWeather struct {
	Temperature float64 `json:"temperature_2m"`
	WindSpeed   float64 `json:"wind_speed_10m"`
	WeatherCode int     `json:"weather_code"`
}

func (s *weatherService) forecast(ctx context.Context, place *geoResult, unit string) (*currentWeather, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", place.Latitude))
	q.Set("longitude", fmt.Sprintf("%.4f", place.Longitude))
	q.Set("current", "temperature_2m,weather_code,wind_speed_10m")
	q.Set("temperature_unit", unit)

	var body struct {
		Current currentWeather `json:"current"`
	}
	if err := s.getJSON(ctx, s.forecastURL+"?"+q.Encode(), &body); err != nil {
		return nil, err
	}
	return &body.Current, nil
}

func (s *weatherService) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// describeWeatherCode maps WMO weather interpretation codes to prose.
func describeWeatherCode(code int) string {
	switch {
	case code == 0:
		return "clear sky"
	case code <= 3:
		return "partly cloudy"
	case code <= 48:
		return "foggy"
	case code <= 57:
		return "drizzle"
	case code <= 67:
		return "rain"
	case code <= 77:
		return "snow"
	case code <= 82:
		return "rain showers"
	case code <= 86:
		return "snow showers"
	default:
		return "thunderstorm"
	}
}
