// Package sensorapi is the REST client of the weather sensor API used by the search, history
// form and dashboard components.
package sensorapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/i474232898/weather-sensor-history/internal/weather"
)

// RequestError is returned for a transport failure or any response other than the expected
// status. Message carries the server's error text when it sent one.
type RequestError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("request failed: %v", e.Err)
	case e.Message != "":
		return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// errorBody is the error envelope written by the API.
type errorBody struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// Client talks to the sensor API rooted at a base URL such as http://localhost:8080/api.
// It never retries; retrying is left to the user.
type Client struct {
	rc *resty.Client
}

// New creates a Client. A nil httpClient gets a 15 second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	rc := resty.NewWithClient(httpClient).
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json")
	return &Client{rc: rc}
}

// SearchSensors calls GET /sensors?query=. A nil slice means the server returned no list.
func (c *Client) SearchSensors(ctx context.Context, query string) ([]weather.Sensor, error) {
	var out []weather.Sensor
	req := c.request(ctx).SetQueryParam("query", query).SetResult(&out)
	if err := c.do(req, http.MethodGet, "/sensors", http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSensor calls GET /sensors/{sensorId}.
func (c *Client) GetSensor(ctx context.Context, id string) (weather.Sensor, error) {
	var out weather.Sensor
	req := c.request(ctx).SetPathParam("sensorId", id).SetResult(&out)
	if err := c.do(req, http.MethodGet, "/sensors/{sensorId}", http.StatusOK); err != nil {
		return weather.Sensor{}, err
	}
	return out, nil
}

// CreateSensor registers a sensor, optionally importing its recent history server side.
func (c *Client) CreateSensor(ctx context.Context, sensor weather.SensorRequest) (weather.Sensor, error) {
	var out weather.Sensor
	req := c.request(ctx).SetBody(sensor).SetResult(&out)
	if err := c.do(req, http.MethodPost, "/sensors", http.StatusOK); err != nil {
		return weather.Sensor{}, err
	}
	return out, nil
}

// DeleteSensor removes a sensor and its history.
func (c *Client) DeleteSensor(ctx context.Context, id string) error {
	req := c.request(ctx).SetPathParam("sensorId", id)
	return c.do(req, http.MethodDelete, "/sensors/{sensorId}", http.StatusNoContent)
}

// LookupLocations geocodes a place name.
func (c *Client) LookupLocations(ctx context.Context, name string) ([]weather.Location, error) {
	var out []weather.Location
	req := c.request(ctx).SetBody(map[string]string{"name": name}).SetResult(&out)
	if err := c.do(req, http.MethodPost, "/lookup/locations", http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateHistory posts one history record for the sensor. Only HTTP 200 counts as success.
func (c *Client) CreateHistory(ctx context.Context, sensorID string, payload weather.HistoryRequest) (weather.HistoryRecord, error) {
	var out weather.HistoryRecord
	req := c.request(ctx).
		SetPathParam("sensorId", sensorID).
		SetBody(payload).
		SetResult(&out)
	if err := c.do(req, http.MethodPost, "/sensors/{sensorId}/history", http.StatusOK); err != nil {
		return weather.HistoryRecord{}, err
	}
	return out, nil
}

// ListHistory fetches history records, for one sensor when filter.SensorID is set.
func (c *Client) ListHistory(ctx context.Context, filter weather.HistoryFilter) ([]weather.HistoryRecord, error) {
	out := []weather.HistoryRecord{}
	req := c.filtered(ctx, filter).SetResult(&out)
	if err := c.do(req, http.MethodGet, scopedPath(filter, "history"), http.StatusOK); err != nil {
		return nil, err
	}
	if out == nil {
		out = []weather.HistoryRecord{}
	}
	return out, nil
}

// Averages fetches the min/max/mean aggregation for the filter.
func (c *Client) Averages(ctx context.Context, filter weather.HistoryFilter) (weather.AverageResult, error) {
	var out weather.AverageResult
	req := c.filtered(ctx, filter).SetResult(&out)
	if err := c.do(req, http.MethodGet, scopedPath(filter, "averages"), http.StatusOK); err != nil {
		return weather.AverageResult{}, err
	}
	return out, nil
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.rc.R().SetContext(ctx)
}

func (c *Client) filtered(ctx context.Context, filter weather.HistoryFilter) *resty.Request {
	req := c.request(ctx)
	if filter.SensorID != "" {
		req.SetPathParam("sensorId", filter.SensorID)
	}
	if !filter.StartDate.IsZero() {
		req.SetQueryParam("startDate", filter.StartDate.String())
	}
	if !filter.EndDate.IsZero() {
		req.SetQueryParam("endDate", filter.EndDate.String())
	}
	return req
}

func scopedPath(filter weather.HistoryFilter, resource string) string {
	if filter.SensorID == "" {
		return "/sensors/" + resource
	}
	return "/sensors/{sensorId}/" + resource
}

func (c *Client) do(req *resty.Request, method, path string, want int) error {
	var apiErr errorBody
	req.SetError(&apiErr)

	resp, err := req.Execute(method, path)
	if err != nil {
		return &RequestError{Err: err}
	}
	if resp.StatusCode() != want {
		return &RequestError{
			StatusCode: resp.StatusCode(),
			Message:    apiErr.Message,
		}
	}
	return nil
}
