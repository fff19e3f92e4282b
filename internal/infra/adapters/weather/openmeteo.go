package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"assistant-relay/internal/domain/model"
	"assistant-relay/internal/domain/ports/adapter"
)

var _ adapter.WeatherService = (*OpenMeteo)(nil)

// OpenMeteo fetches current and 7-day forecasts from api.open-meteo.com and
// caches the rendered reports. Refresh is a no-op inside the configured
// interval unless forced.
//
// Report text must stay free of blank lines so it can be embedded verbatim
// in prompt sections.
type OpenMeteo struct {
	lat      float64
	lon      float64
	timezone string
	location string
	interval time.Duration

	base   string
	client *http.Client
	now    func() time.Time

	mu        sync.Mutex
	updatedAt time.Time
	summary   model.WeatherSummary
	day       string
	week      string
}

func NewOpenMeteo(lat, lon float64, timezone, location string, interval time.Duration) *OpenMeteo {
	if timezone == "" {
		timezone = "America/Chicago"
	}
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &OpenMeteo{
		lat:      lat,
		lon:      lon,
		timezone: timezone,
		location: location,
		interval: interval,
		base:     "https://api.open-meteo.com",
		client:   &http.Client{Timeout: 15 * time.Second},
		now:      time.Now,
	}
}

type forecastResponse struct {
	Current struct {
		Temperature   *float64 `json:"temperature_2m"`
		Apparent      *float64 `json:"apparent_temperature"`
		Precipitation *float64 `json:"precipitation"`
		WeatherCode   *int     `json:"weather_code"`
	} `json:"current"`
	Daily struct {
		Time             []string  `json:"time"`
		TempMax          []float64 `json:"temperature_2m_max"`
		TempMin          []float64 `json:"temperature_2m_min"`
		WeatherCode      []int     `json:"weather_code"`
		PrecipitationSum []float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

func (o *OpenMeteo) Refresh(ctx context.Context, force bool) error {
	o.mu.Lock()
	fresh := !o.updatedAt.IsZero() && o.now().Sub(o.updatedAt) < o.interval
	o.mu.Unlock()
	if fresh && !force {
		return nil
	}

	data, err := o.fetch(ctx)
	if err != nil {
		return err
	}

	now := o.now()
	summary := model.WeatherSummary{
		UpdatedAt:        now.UnixMilli(),
		CurrentCondition: codeText(intOr(data.Current.WeatherCode, -1)),
	}
	if data.Current.Temperature != nil {
		summary.CurrentTempF = int(math.Round(*data.Current.Temperature))
	}
	if data.Current.Apparent != nil {
		summary.CurrentFeelsF = int(math.Round(*data.Current.Apparent))
	}

	day := o.buildDay(data, now)
	week := o.buildWeek(data, now)

	o.mu.Lock()
	o.updatedAt = now
	o.summary = summary
	o.day = day
	o.week = week
	o.mu.Unlock()
	return nil
}

func (o *OpenMeteo) Summary() model.WeatherSummary {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.summary
}

func (o *OpenMeteo) DayReport() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.day
}

func (o *OpenMeteo) WeekReport() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.week
}

func (o *OpenMeteo) fetch(ctx context.Context) (*forecastResponse, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%g", o.lat))
	q.Set("longitude", fmt.Sprintf("%g", o.lon))
	q.Set("current", "temperature_2m,apparent_temperature,precipitation,weather_code")
	q.Set("daily", "weather_code,temperature_2m_max,temperature_2m_min,precipitation_sum")
	q.Set("temperature_unit", "fahrenheit")
	q.Set("timezone", o.timezone)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.base+"/v1/forecast?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("weather fetch error %d", resp.StatusCode)
	}

	var data forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (o *OpenMeteo) buildDay(data *forecastResponse, now time.Time) string {
	d := data.Daily
	lines := []string{
		"Updated: " + now.UTC().Format(time.RFC3339),
		"Location: " + o.location,
		fmt.Sprintf("Current: %s F (feels like %s F), %s",
			roundMaybe(data.Current.Temperature),
			roundMaybe(data.Current.Apparent),
			codeText(intOr(data.Current.WeatherCode, -1))),
		fmt.Sprintf("Precipitation: %s mm", floatMaybe(data.Current.Precipitation)),
		fmt.Sprintf("Today: High %s F / Low %s F, %s",
			roundAt(d.TempMax, 0), roundAt(d.TempMin, 0), codeText(intAt(d.WeatherCode, 0))),
	}
	return strings.Join(lines, "\n")
}

func (o *OpenMeteo) buildWeek(data *forecastResponse, now time.Time) string {
	d := data.Daily
	lines := []string{
		"Updated: " + now.UTC().Format(time.RFC3339),
		"Location: " + o.location,
		"7-Day:",
	}
	n := len(d.Time)
	if n > 7 {
		n = 7
	}
	for i := 0; i < n; i++ {
		lines = append(lines, fmt.Sprintf("- %s: %s, High %s F / Low %s F, Precip %s mm",
			d.Time[i], codeText(intAt(d.WeatherCode, i)),
			roundAt(d.TempMax, i), roundAt(d.TempMin, i), precipAt(d.PrecipitationSum, i)))
	}
	return strings.Join(lines, "\n")
}

var weatherCodes = map[int]string{
	0:  "clear",
	1:  "mostly clear",
	2:  "partly cloudy",
	3:  "overcast",
	45: "fog",
	48: "depositing rime fog",
	51: "light drizzle",
	53: "moderate drizzle",
	55: "dense drizzle",
	56: "light freezing drizzle",
	57: "dense freezing drizzle",
	61: "slight rain",
	63: "moderate rain",
	65: "heavy rain",
	66: "light freezing rain",
	67: "heavy freezing rain",
	71: "slight snow",
	73: "moderate snow",
	75: "heavy snow",
	77: "snow grains",
	80: "rain showers",
	81: "heavy rain showers",
	82: "violent rain showers",
	85: "snow showers",
	86: "heavy snow showers",
	95: "thunderstorm",
	96: "thunderstorm with hail",
	99: "thunderstorm with heavy hail",
}

func codeText(code int) string {
	if t, ok := weatherCodes[code]; ok {
		return t
	}
	return fmt.Sprintf("code %d", code)
}

func roundMaybe(v *float64) string {
	if v == nil {
		return "?"
	}
	return fmt.Sprintf("%d", int(math.Round(*v)))
}

func floatMaybe(v *float64) string {
	if v == nil {
		return "?"
	}
	return fmt.Sprintf("%g", *v)
}

func roundAt(vals []float64, i int) string {
	if i >= len(vals) {
		return "?"
	}
	return fmt.Sprintf("%d", int(math.Round(vals[i])))
}

func precipAt(vals []float64, i int) string {
	if i >= len(vals) {
		return "?"
	}
	return fmt.Sprintf("%g", vals[i])
}

func intAt(vals []int, i int) int {
	if i >= len(vals) {
		return -1
	}
	return vals[i]
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
