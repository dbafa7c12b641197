package sensorapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-sensor-history/internal/weather"
)

const baseURL = "http://weather.test/api"

func newMockedClient(t *testing.T) *Client {
	t.Helper()
	hc := &http.Client{}
	httpmock.ActivateNonDefault(hc)
	t.Cleanup(httpmock.DeactivateAndReset)
	return New(baseURL+"/", hc)
}

func TestSearchSensors(t *testing.T) {
	c := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodGet, baseURL+"/sensors",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Aus", req.URL.Query().Get("query"))
			return httpmock.NewJsonResponse(http.StatusOK, []weather.Sensor{
				{ID: "s-1", Name: "Austin", Description: "Texas, US"},
			})
		})

	sensors, err := c.SearchSensors(context.Background(), "Aus")
	require.NoError(t, err)
	require.Len(t, sensors, 1)
	assert.Equal(t, "Austin", sensors[0].Name)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestSearchSensorsNullBody(t *testing.T) {
	c := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodGet, baseURL+"/sensors",
		httpmock.NewStringResponder(http.StatusOK, "null").HeaderSet(http.Header{"Content-Type": {"application/json"}}))

	sensors, err := c.SearchSensors(context.Background(), "x")
	require.NoError(t, err)
	assert.Nil(t, sensors)
}

func TestCreateHistoryPostsPayloadToSensorPath(t *testing.T) {
	c := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodPost, baseURL+"/sensors/s-1/history",
		func(req *http.Request) (*http.Response, error) {
			var body map[string]any
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Equal(t, "2024-03-01", body["recordDate"])
			assert.Equal(t, "2024-03-01T06:45", body["sunrise"])
			assert.NotContains(t, body, "sensorId")
			assert.NotContains(t, body, "snowfallSum")
			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{"id": "h-1", "recordDate": "2024-03-01"})
		})

	date, err := weather.ParseDate("2024-03-01")
	require.NoError(t, err)
	sunrise, err := weather.Combine(date, "06:45")
	require.NoError(t, err)
	sunset, err := weather.Combine(date, "18:10")
	require.NoError(t, err)
	rain := 3.5

	record, err := c.CreateHistory(context.Background(), "s-1", weather.HistoryRequest{
		RecordDate:  date,
		Sunrise:     sunrise,
		Sunset:      sunset,
		RainfallSum: &rain,
	})
	require.NoError(t, err)
	assert.Equal(t, "h-1", record.ID)
}

func TestCreateHistoryServerError(t *testing.T) {
	c := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodPost, baseURL+"/sensors/s-1/history",
		httpmock.NewJsonResponderOrPanic(http.StatusInternalServerError, map[string]any{
			"error":   true,
			"message": "failed to add sensor history",
		}))

	_, err := c.CreateHistory(context.Background(), "s-1", weather.HistoryRequest{})
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusInternalServerError, reqErr.StatusCode)
	assert.Equal(t, "failed to add sensor history", reqErr.Message)
	assert.Equal(t, 1, httpmock.GetTotalCallCount(), "no retries")
}

func TestTransportFailure(t *testing.T) {
	c := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodGet, baseURL+"/sensors/s-1",
		httpmock.NewErrorResponder(errors.New("connection refused")))

	_, err := c.GetSensor(context.Background(), "s-1")
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Zero(t, reqErr.StatusCode)
	assert.Error(t, reqErr.Err)
}

func TestListHistoryAndAveragesPaths(t *testing.T) {
	c := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodGet, baseURL+"/sensors/history",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, []map[string]any{{"id": "h-all"}}))
	httpmock.RegisterResponder(http.MethodGet, baseURL+"/sensors/s-1/history",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "2024-01-01", req.URL.Query().Get("startDate"))
			assert.Equal(t, "2024-06-30", req.URL.Query().Get("endDate"))
			return httpmock.NewJsonResponse(http.StatusOK, []map[string]any{{"id": "h-1"}})
		})
	httpmock.RegisterResponder(http.MethodGet, baseURL+"/sensors/s-1/averages",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
			"startDate": "2024-01-01",
			"endDate":   "2024-06-30",
			"data": map[string]any{
				"2024-01": []map[string]any{{"metric": "Rainfall (mm)", "meanValue": 2.5, "minValue": 0, "maxValue": 9}},
			},
		}))

	all, err := c.ListHistory(context.Background(), weather.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "h-all", all[0].ID)

	start, _ := weather.ParseDate("2024-01-01")
	end, _ := weather.ParseDate("2024-06-30")
	filter := weather.HistoryFilter{SensorID: "s-1", StartDate: start, EndDate: end}

	one, err := c.ListHistory(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "h-1", one[0].ID)

	avg, err := c.Averages(context.Background(), filter)
	require.NoError(t, err)
	require.Contains(t, avg.Data, "2024-01")
	assert.Equal(t, weather.MetricRainfall, avg.Data["2024-01"][0].Metric)
	assert.InDelta(t, 2.5, avg.Data["2024-01"][0].MeanValue, 1e-9)
}

func TestDeleteSensorExpectsNoContent(t *testing.T) {
	c := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodDelete, baseURL+"/sensors/s-1",
		httpmock.NewStringResponder(http.StatusNoContent, ""))
	httpmock.RegisterResponder(http.MethodDelete, baseURL+"/sensors/missing",
		httpmock.NewJsonResponderOrPanic(http.StatusNotFound, map[string]any{"error": true, "message": "sensor missing: not found"}))

	require.NoError(t, c.DeleteSensor(context.Background(), "s-1"))

	err := c.DeleteSensor(context.Background(), "missing")
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusNotFound, reqErr.StatusCode)
	assert.Contains(t, reqErr.Error(), "not found")
}
