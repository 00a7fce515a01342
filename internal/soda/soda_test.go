package soda

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/huangsam/liftwatch/core/agg"
	"github.com/huangsam/liftwatch/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const monthlyRows = `[
  {"month": "2024-05-01T00:00:00.000", "borough": "Queens", "station_complex_id": "1", "availability": "0.80"},
  {"month": "2024-05-01T00:00:00.000", "borough": "queens", "station_complex_id": "2", "availability": "0.90"},
  {"month": "2024-05-01T00:00:00.000", "borough": "Bronx", "station_complex_id": "3", "availability": 0.5}
]`

const adaRows = `[
  {"date": "2024-05-02T00:00:00.000", "borough": "Manhattan", "ada_northbound": "Y", "ada_southbound": "Y"},
  {"date": "2024-05-02T00:00:00.000", "borough": "Manhattan", "ada_northbound": "N", "ada_southbound": "Y"},
  {"date": "2024-05-03T00:00:00.000", "borough": "SI"}
]`

// fakeSODA serves canned responses and records the query of the last request.
type fakeSODA struct {
	server    *httptest.Server
	lastQuery url.Values
	lastToken string
	status    int
	body      string
}

func newFakeSODA(t *testing.T, body string) *fakeSODA {
	t.Helper()
	f := &fakeSODA{status: http.StatusOK, body: body}
	r := mux.NewRouter()
	r.HandleFunc("/resource/{dataset:[a-z0-9-]+}.json", func(w http.ResponseWriter, req *http.Request) {
		f.lastQuery = req.URL.Query()
		f.lastToken = req.Header.Get("X-App-Token")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.body)
	}).Methods(http.MethodGet)
	f.server = httptest.NewServer(r)
	t.Cleanup(f.server.Close)
	return f
}

func newTestClient(f *fakeSODA, token string) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(Config{BaseURL: f.server.URL + "/", AppToken: token, Timeout: 2 * time.Second}, logger)
}

func TestDistinctPeriods(t *testing.T) {
	f := newFakeSODA(t, `[{"month": "2024-06-01T00:00:00.000"}, {"month": "2024-05-01T00:00:00.000"}, {"month": null}]`)
	c := newTestClient(f, "app-token")

	periods, err := c.DistinctPeriods(context.Background(), "thh2-syn7", "month", 6)
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-06-01T00:00:00.000", "2024-05-01T00:00:00.000"}, periods)
	assert.Equal(t, "month", f.lastQuery.Get("$select"))
	assert.Equal(t, "month", f.lastQuery.Get("$group"))
	assert.Equal(t, "month DESC", f.lastQuery.Get("$order"))
	assert.Equal(t, "6", f.lastQuery.Get("$limit"))
	assert.Equal(t, "app-token", f.lastToken)
}

func TestFetchAvailability(t *testing.T) {
	f := newFakeSODA(t, monthlyRows)
	c := newTestClient(f, "")

	fields := schema.FieldMap{}.WithDefaults("month")
	records, err := c.Fetch(context.Background(), "thh2-syn7", schema.Query{
		Fields:      fields,
		PeriodField: "month",
		Periods:     []string{"2024-05-01T00:00:00.000"},
		Limit:       50,
	})
	require.NoError(t, err)

	assert.Equal(t, "month='2024-05-01T00:00:00.000'", f.lastQuery.Get("$where"))
	assert.Equal(t, "50", f.lastQuery.Get("$limit"))
	assert.Empty(t, f.lastToken)

	require.Len(t, records, 3)
	assert.Equal(t, schema.Queens, records[1].Borough)
	assert.Equal(t, "2", records[1].StationID)
	require.True(t, records[2].HasAvailability())
	assert.Equal(t, "0.5", records[2].Availability.String())
	assert.Equal(t, time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), records[0].Period)
	assert.False(t, records[0].HasOperability())
}

func TestFetchOperability(t *testing.T) {
	f := newFakeSODA(t, adaRows)
	c := newTestClient(f, "")

	records, err := c.Fetch(context.Background(), "ada-daily", schema.Query{Fields: schema.FieldMap{}.WithDefaults("date")})
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.True(t, records[0].FullyOperational())
	assert.True(t, records[1].HasOperability())
	assert.False(t, records[1].FullyOperational())
	assert.False(t, records[2].HasOperability())
	assert.Equal(t, schema.StatenIsland, records[2].Borough)
	assert.Equal(t, "5000", f.lastQuery.Get("$limit"))
}

func TestFetchOneSidedOperability(t *testing.T) {
	f := newFakeSODA(t, `[
  {"date": "2024-05-02", "borough": "Queens", "ada_northbound": "Y", "ada_southbound": "Y"},
  {"date": "2024-05-02", "borough": "Queens", "ada_northbound": "Y"},
  {"date": "2024-05-02", "borough": "Queens", "ada_northbound": null, "ada_southbound": "Y"}
]`)
	c := newTestClient(f, "")

	records, err := c.Fetch(context.Background(), "ada-daily", schema.Query{Fields: schema.FieldMap{}.WithDefaults("date")})
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.True(t, records[0].FullyOperational())
	for _, r := range records[1:] {
		require.True(t, r.HasOperability())
		assert.False(t, r.FullyOperational())
	}
	assert.Equal(t, schema.NotOperational, *records[1].Southbound)
	assert.Equal(t, schema.NotOperational, *records[2].Northbound)

	table, err := agg.Aggregate(records, schema.AggregationSpec{GroupBy: schema.GroupByBorough, Metric: schema.OperabilityPct})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "33.3", table.DataRecords()[0][1])
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"message": "boom"}`},
		{"not found", http.StatusNotFound, ``},
		{"not an array", http.StatusOK, `{"rows": []}`},
		{"invalid json", http.StatusOK, `[{"month": `},
		{"bad period", http.StatusOK, `[{"month": "May 2024", "borough": "Queens"}]`},
		{"bad availability", http.StatusOK, `[{"month": "2024-05-01", "borough": "Queens", "availability": "high"}]`},
		{"availability above one", http.StatusOK, `[{"month": "2024-05-01", "borough": "Queens", "availability": "1.5"}]`},
		{"negative availability", http.StatusOK, `[{"month": "2024-05-01", "borough": "Queens", "availability": -0.2}]`},
		{"unknown ada flag", http.StatusOK, `[{"month": "2024-05-01", "borough": "Queens", "ada_northbound": "Partial", "ada_southbound": "Y"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeSODA(t, tt.body)
			f.status = tt.status
			c := newTestClient(f, "")

			_, err := c.Fetch(context.Background(), "thh2-syn7", schema.Query{Fields: schema.FieldMap{}.WithDefaults("month")})
			require.Error(t, err)
			assert.True(t, errors.Is(err, schema.ErrRetrieval))
		})
	}
}

func TestFetchStatusError(t *testing.T) {
	f := newFakeSODA(t, `throttled`)
	f.status = http.StatusTooManyRequests
	c := newTestClient(f, "")

	_, err := c.DistinctPeriods(context.Background(), "thh2-syn7", "month", 0)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Equal(t, "throttled", statusErr.Body)
	assert.Equal(t, "6", f.lastQuery.Get("$limit"))
}

func TestFetchTransportError(t *testing.T) {
	f := newFakeSODA(t, `[]`)
	c := newTestClient(f, "")
	f.server.Close()

	_, err := c.Fetch(context.Background(), "thh2-syn7", schema.Query{})
	assert.True(t, errors.Is(err, schema.ErrRetrieval))
}

func TestBuildWhere(t *testing.T) {
	since := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		query schema.Query
		want  string
	}{
		{"empty", schema.Query{}, ""},
		{"single period", schema.Query{PeriodField: "month", Periods: []string{"2024-05-01T00:00:00.000"}}, "month='2024-05-01T00:00:00.000'"},
		{"period list", schema.Query{PeriodField: "month", Periods: []string{"a", "b"}}, "month IN ('a', 'b')"},
		{"range", schema.Query{PeriodField: "date", Since: since, Until: until}, "date >= '2024-04-01T00:00:00.000' AND date < '2024-05-01T00:00:00.000'"},
		{"open range", schema.Query{PeriodField: "date", Since: since}, "date >= '2024-04-01T00:00:00.000'"},
		{
			"filters sorted and escaped",
			schema.Query{PeriodField: "month", Periods: []string{"x"}, Filters: map[string]string{"line": "A", "borough": "Queen's"}},
			"month='x' AND borough='Queen''s' AND line='A'",
		},
		{"field map period", schema.Query{Fields: schema.FieldMap{Period: "date"}, Periods: []string{"x"}}, "date='x'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildWhere(tt.query))
		})
	}
}
