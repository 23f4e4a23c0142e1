// Package adhan fetches prayer times from the Al Adhan API.
package adhan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sadopc/salah/internal/prayer"
)

const DefaultBaseURL = "https://api.aladhan.com/v1"

// Client communicates with the Al Adhan prayer times API and implements
// prayer.TimesSource.
type Client struct {
	httpClient *http.Client
	// BaseURL is the API base URL. Exported for testing with httptest.
	BaseURL string
}

// NewClient creates a client. Empty baseURL and zero timeout select the defaults.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		BaseURL:    baseURL,
	}
}

// ComputeDay fetches the timings for a single date at coords.
func (c *Client) ComputeDay(ctx context.Context, date prayer.Date, coords prayer.Coordinates, m prayer.Methodology) (prayer.DayTimes, error) {
	if err := coords.Validate(); err != nil {
		return prayer.DayTimes{}, err
	}
	method, ok := methodID(m.Method)
	if !ok {
		return prayer.DayTimes{}, fmt.Errorf("%w: unsupported method %s", prayer.ErrInput, m.Method)
	}

	endpoint := fmt.Sprintf("%s/timings/%02d-%02d-%04d", c.BaseURL, date.Day, int(date.Month), date.Year)
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(coords.Latitude, 'f', 6, 64))
	params.Set("longitude", strconv.FormatFloat(coords.Longitude, 'f', 6, 64))
	params.Set("method", strconv.Itoa(method))
	params.Set("school", strconv.Itoa(schoolID(m.Madhab)))
	params.Set("latitudeAdjustmentMethod", strconv.Itoa(latitudeAdjustment(m.HighLatitudeRule)))

	resp, err := c.doRequest(ctx, endpoint, params)
	if err != nil {
		return prayer.DayTimes{}, err
	}
	return parseTimings(resp.Data.Timings)
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values) (*Response, error) {
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", prayer.ErrCalculationUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: API request failed: %w", prayer.ErrCalculationUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", prayer.ErrCalculationUnavailable, err)
	}

	if resp.StatusCode == http.StatusBadRequest {
		var e errorResponse
		_ = json.Unmarshal(body, &e)
		return nil, fmt.Errorf("%w: API rejected request: %s", prayer.ErrInput, e.Data)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: API returned status %d", prayer.ErrCalculationUnavailable, resp.StatusCode)
	}

	var apiResp Response
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("%w: decode API response: %w", prayer.ErrCalculationUnavailable, err)
	}
	if apiResp.Code == http.StatusBadRequest {
		return nil, fmt.Errorf("%w: API error: %s", prayer.ErrInput, apiResp.Status)
	}
	if apiResp.Code != http.StatusOK {
		return nil, fmt.Errorf("%w: API error: code=%d status=%s", prayer.ErrCalculationUnavailable, apiResp.Code, apiResp.Status)
	}
	return &apiResp, nil
}

func parseTimings(t Timings) (prayer.DayTimes, error) {
	var out prayer.DayTimes
	fields := []struct {
		name string
		raw  string
		dst  *prayer.Clock
	}{
		{"Fajr", t.Fajr, &out.Fajr},
		{"Sunrise", t.Sunrise, &out.Sunrise},
		{"Dhuhr", t.Dhuhr, &out.Dhuhr},
		{"Asr", t.Asr, &out.Asr},
		{"Sunset", t.Sunset, &out.Sunset},
		{"Maghrib", t.Maghrib, &out.Maghrib},
		{"Isha", t.Isha, &out.Isha},
	}
	for _, f := range fields {
		c, err := prayer.ParseClock(f.raw)
		if err != nil {
			return prayer.DayTimes{}, fmt.Errorf("%w: parse %s time %q", prayer.ErrCalculationUnavailable, f.name, f.raw)
		}
		*f.dst = c
	}
	return out, nil
}
