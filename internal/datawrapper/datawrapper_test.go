package datawrapper

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/huangsam/liftwatch/schema"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// call is one request seen by the fake Datawrapper API.
type call struct {
	Method      string
	Path        string
	Auth        string
	ContentType string
	Body        string
}

// fakeAPI records every call and fails the step named in failOn.
type fakeAPI struct {
	mu     sync.Mutex
	calls  []call
	failOn string // method that answers 500
	server *httptest.Server
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{}
	record := func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.calls = append(f.calls, call{
			Method:      r.Method,
			Path:        r.URL.Path,
			Auth:        r.Header.Get("Authorization"),
			ContentType: r.Header.Get("Content-Type"),
			Body:        string(body),
		})
		fail := f.failOn == r.Method
		f.mu.Unlock()
		if fail {
			http.Error(w, `{"message":"nope"}`, http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}

	r := mux.NewRouter()
	r.HandleFunc("/v3/charts/{id}/data", record).Methods(http.MethodPut)
	r.HandleFunc("/v3/charts/{id}", record).Methods(http.MethodPatch)
	r.HandleFunc("/v3/charts/{id}/publish", record).Methods(http.MethodPost)
	f.server = httptest.NewServer(r)
	t.Cleanup(f.server.Close)
	return f
}

func sampleTable() schema.ChartTable {
	table := schema.NewChartTable(schema.BoroughColumn, schema.AvailabilityColumn)
	table.Rows = append(table.Rows,
		schema.Row{schema.TextCell("Queens"), schema.ValueCell(decimal.RequireFromString("85.0"))},
		schema.Row{schema.TextCell("Bronx"), schema.ValueCell(decimal.RequireFromString("50"))},
	)
	return table
}

func newTestClient(t *testing.T, f *fakeAPI) *Client {
	t.Helper()
	c, err := NewClient(Config{Token: "test-token", BaseURL: f.server.URL}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresToken(t *testing.T) {
	for _, token := range []string{"", "   "} {
		_, err := NewClient(Config{Token: token}, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, schema.ErrMissingCredential))
	}
}

func TestPublishSequence(t *testing.T) {
	f := newFakeAPI(t)
	c := newTestClient(t, f)

	require.NoError(t, c.Publish(context.Background(), "q0KSY", sampleTable(), "May 2024"))

	require.Len(t, f.calls, 3)

	upload := f.calls[0]
	assert.Equal(t, http.MethodPut, upload.Method)
	assert.Equal(t, "/v3/charts/q0KSY/data", upload.Path)
	assert.Equal(t, "Bearer test-token", upload.Auth)
	assert.Equal(t, "text/csv", upload.ContentType)
	assert.Equal(t, "Borough,Availability %\nQueens,85.0\nBronx,50.0\n", upload.Body)

	title := f.calls[1]
	assert.Equal(t, http.MethodPatch, title.Method)
	assert.Equal(t, "/v3/charts/q0KSY", title.Path)
	var meta map[string]string
	require.NoError(t, json.Unmarshal([]byte(title.Body), &meta))
	assert.Equal(t, map[string]string{"title": "May 2024"}, meta)

	publish := f.calls[2]
	assert.Equal(t, http.MethodPost, publish.Method)
	assert.Equal(t, "/v3/charts/q0KSY/publish", publish.Path)
	assert.Equal(t, "Bearer test-token", publish.Auth)
}

func TestPublishStopsAtFirstFailure(t *testing.T) {
	tests := []struct {
		failOn    string
		wantStep  Step
		wantCalls int
	}{
		{http.MethodPut, UploadStep, 1},
		{http.MethodPatch, TitleStep, 2},
		{http.MethodPost, PublishStep, 3},
	}

	for _, tt := range tests {
		t.Run(string(tt.wantStep), func(t *testing.T) {
			f := newFakeAPI(t)
			f.failOn = tt.failOn
			c := newTestClient(t, f)

			err := c.Publish(context.Background(), "2Lebz", sampleTable(), "April 2024")
			require.Error(t, err)
			assert.True(t, errors.Is(err, schema.ErrPublish))

			var pubErr *PublishError
			require.True(t, errors.As(err, &pubErr))
			assert.Equal(t, "2Lebz", pubErr.ChartID)
			assert.Equal(t, tt.wantStep, pubErr.Step)
			assert.Equal(t, http.StatusInternalServerError, pubErr.StatusCode)
			assert.Contains(t, err.Error(), "nope")
			assert.Len(t, f.calls, tt.wantCalls)
		})
	}
}

func TestPublishTransportFailure(t *testing.T) {
	f := newFakeAPI(t)
	c := newTestClient(t, f)
	f.server.Close()

	err := c.Publish(context.Background(), "t7mwT", sampleTable(), "March 2024")
	var pubErr *PublishError
	require.True(t, errors.As(err, &pubErr))
	assert.Equal(t, UploadStep, pubErr.Step)
	assert.Zero(t, pubErr.StatusCode)
	assert.True(t, errors.Is(err, schema.ErrPublish))
}
