// Package weather provides the Open-Meteo forecast client used by the
// scanner. Only the daily maximum temperature is consumed.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"wxarb/internal/domain"
)

// Client is the REST client for the Open-Meteo forecast API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a forecast client.
//
// baseURL is the API root, e.g. "https://api.open-meteo.com".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// apiForecast mirrors the subset of the Open-Meteo response the scanner
// reads.
type apiForecast struct {
	Daily struct {
		Time             []string  `json:"time"`
		Temperature2mMax []float64 `json:"temperature_2m_max"`
	} `json:"daily"`
}

// DailyHigh fetches the forecast daily maximum temperature (°F) for the
// given coordinates on the given calendar date in the given timezone.
func (c *Client) DailyHigh(ctx context.Context, lat, lon float64, timezone string, date time.Time) (domain.Forecast, error) {
	day := date.Format("2006-01-02")

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	params.Set("daily", "temperature_2m_max")
	params.Set("temperature_unit", "fahrenheit")
	params.Set("timezone", timezone)
	params.Set("start_date", day)
	params.Set("end_date", day)

	reqURL := c.baseURL + "/v1/forecast?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.Forecast{}, fmt.Errorf("weather: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Forecast{}, fmt.Errorf("weather: fetch forecast: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Forecast{}, fmt.Errorf("weather: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Forecast{}, fmt.Errorf("weather: HTTP %d: %s", resp.StatusCode, string(body))
	}

	var api apiForecast
	if err := json.Unmarshal(body, &api); err != nil {
		return domain.Forecast{}, fmt.Errorf("weather: decode forecast: %w", err)
	}
	if len(api.Daily.Temperature2mMax) == 0 {
		return domain.Forecast{}, fmt.Errorf("weather: %w: no daily maximum for %s", domain.ErrProtocol, day)
	}

	return domain.Forecast{
		HighF:     api.Daily.Temperature2mMax[0],
		FetchedAt: time.Now(),
	}, nil
}
