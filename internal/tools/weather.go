package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	geocodeURL  = "https://geocoding-api.open-meteo.com/v1/search"
	forecastURL = "https://api.open-meteo.com/v1/forecast"
)

// Weather looks up current conditions on Open-Meteo, which needs no key.
type Weather struct {
	client      *http.Client
	geocodeURL  string
	forecastURL string
}

func NewWeather(client *http.Client) *Weather {
	return &Weather{client: client, geocodeURL: geocodeURL, forecastURL: forecastURL}
}

type WeatherReport struct {
	Location        string   `json:"location"`
	TemperatureC    float64  `json:"temperature_c"`
	Condition       string   `json:"condition"`
	HighC           *float64 `json:"high_c,omitempty"`
	LowC            *float64 `json:"low_c,omitempty"`
	PrecipitationMM float64  `json:"precipitation_mm"`
}

func (r WeatherReport) String() string {
	parts := []string{fmt.Sprintf("Weather in %s: %.1f°C (%s).", r.Location, r.TemperatureC, r.Condition)}
	if r.HighC != nil && r.LowC != nil {
		parts = append(parts, fmt.Sprintf("Today: high %.1f°C, low %.1f°C.", *r.HighC, *r.LowC))
	}
	if r.PrecipitationMM > 0 {
		parts = append(parts, fmt.Sprintf("Precipitation: %.1f mm.", r.PrecipitationMM))
	}
	return strings.Join(parts, " ")
}

type geocodeResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Timezone  string  `json:"timezone"`
	} `json:"results"`
}

type forecastResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		WeatherCode int     `json:"weather_code"`
	} `json:"current"`
	Daily struct {
		Max           []float64 `json:"temperature_2m_max"`
		Min           []float64 `json:"temperature_2m_min"`
		Precipitation []float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

type LocationNotFoundError struct {
	Location string
}

func (e *LocationNotFoundError) Error() string {
	return fmt.Sprintf("could not find location %q, try a city name such as London", e.Location)
}

func (w *Weather) Lookup(ctx context.Context, location string) (WeatherReport, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return WeatherReport{}, &LocationNotFoundError{Location: location}
	}

	q := url.Values{}
	q.Set("name", location)
	q.Set("count", "1")
	q.Set("language", "en")
	q.Set("format", "json")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.geocodeURL+"?"+q.Encode(), nil)
	if err != nil {
		return WeatherReport{}, err
	}
	var geo geocodeResponse
	if err = doJSON(w.client, req, &geo); err != nil {
		return WeatherReport{}, fmt.Errorf("geocode %s: %w", location, err)
	}
	if len(geo.Results) == 0 {
		return WeatherReport{}, &LocationNotFoundError{Location: location}
	}
	place := geo.Results[0]
	timezone := place.Timezone
	if timezone == "" {
		timezone = "auto"
	}

	q = url.Values{}
	q.Set("latitude", strconv.FormatFloat(place.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(place.Longitude, 'f', -1, 64))
	q.Set("current", "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m")
	q.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum")
	q.Set("timezone", timezone)
	q.Set("forecast_days", "1")
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, w.forecastURL+"?"+q.Encode(), nil)
	if err != nil {
		return WeatherReport{}, err
	}
	var forecast forecastResponse
	if err = doJSON(w.client, req, &forecast); err != nil {
		return WeatherReport{}, fmt.Errorf("forecast %s: %w", place.Name, err)
	}

	report := WeatherReport{
		Location:     place.Name,
		TemperatureC: forecast.Current.Temperature,
		Condition:    DescribeWeatherCode(forecast.Current.WeatherCode),
	}
	if report.Location == "" {
		report.Location = location
	}
	if len(forecast.Daily.Max) > 0 && len(forecast.Daily.Min) > 0 {
		report.HighC = &forecast.Daily.Max[0]
		report.LowC = &forecast.Daily.Min[0]
	}
	if len(forecast.Daily.Precipitation) > 0 {
		report.PrecipitationMM = forecast.Daily.Precipitation[0]
	}
	return report, nil
}

// DescribeWeatherCode maps a WMO weather interpretation code to a phrase.
func DescribeWeatherCode(code int) string {
	switch {
	case code == 0:
		return "clear"
	case code >= 1 && code <= 3:
		return "mainly clear to partly cloudy"
	case code == 45 || code == 48:
		return "foggy"
	case code >= 51 && code <= 67:
		return "rainy"
	case code >= 71 && code <= 77:
		return "snowy"
	case code >= 80 && code <= 82:
		return "rain showers"
	case code >= 95 && code <= 99:
		return "thunderstorms"
	default:
		return "variable"
	}
}
