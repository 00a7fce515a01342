// Package soda reads station records from a Socrata open-data endpoint.
package soda

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/liftwatch/internal/contract"
	"github.com/huangsam/liftwatch/schema"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// maxErrorBody caps how much of an error response is kept for diagnostics.
const maxErrorBody = 512

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Config holds the settings of a Client.
type Config struct {
	BaseURL  string
	AppToken string
	Timeout  time.Duration
}

// Client queries SODA resources. The zero value is not usable; use NewClient.
type Client struct {
	BaseURL  string
	AppToken string
	HTTP     *http.Client
	Logger   *slog.Logger
}

var _ contract.RecordSource = &Client{} // Compile-time check

// NewClient returns a client bound to the given base URL.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = contract.DefaultTimeout
	}
	return &Client{
		BaseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		AppToken: cfg.AppToken,
		HTTP:     &http.Client{Timeout: timeout},
		Logger:   logger.With("component", "soda"),
	}
}

// DistinctPeriods returns up to limit distinct values of field, most recent first.
func (c *Client) DistinctPeriods(ctx context.Context, dataset string, field string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = schema.DefaultDistinctPeriods
	}
	params := url.Values{}
	params.Set("$select", field)
	params.Set("$group", field)
	params.Set("$order", field+" DESC")
	params.Set("$limit", strconv.Itoa(limit))

	body, err := c.get(ctx, dataset, params)
	if err != nil {
		return nil, err
	}

	rows := gjson.ParseBytes(body)
	periods := make([]string, 0, limit)
	for _, row := range rows.Array() {
		if v := strings.TrimSpace(row.Get(gjsonPath(field)).String()); v != "" {
			periods = append(periods, v)
		}
	}
	c.Logger.Debug("distinct periods", "dataset", dataset, "field", field, "count", len(periods))
	return periods, nil
}

// Fetch returns the records of dataset selected by the query.
func (c *Client) Fetch(ctx context.Context, dataset string, q schema.Query) ([]schema.StationRecord, error) {
	params := url.Values{}
	if where := BuildWhere(q); where != "" {
		params.Set("$where", where)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = schema.DefaultRowLimit
	}
	params.Set("$limit", strconv.Itoa(limit))

	body, err := c.get(ctx, dataset, params)
	if err != nil {
		return nil, err
	}

	records, err := DecodeRecords(body, q.Fields)
	if err != nil {
		return nil, fmt.Errorf("%w: dataset %s: %w", schema.ErrRetrieval, dataset, err)
	}
	c.Logger.Debug("fetched records", "dataset", dataset, "rows", len(records), "where", params.Get("$where"))
	return records, nil
}

// get issues a GET against the dataset resource and returns the validated JSON array body.
func (c *Client) get(ctx context.Context, dataset string, params url.Values) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/resource/%s.json", c.BaseURL, url.PathEscape(dataset))
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", schema.ErrRetrieval, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.AppToken != "" {
		req.Header.Set("X-App-Token", c.AppToken)
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: dataset %s: %w", schema.ErrRetrieval, dataset, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: dataset %s: reading body: %w", schema.ErrRetrieval, dataset, err)
	}
	c.Logger.Debug("soda request", "url", endpoint, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, fmt.Errorf("%w: dataset %s: %w", schema.ErrRetrieval, dataset, &StatusError{StatusCode: resp.StatusCode, Body: msg})
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsArray() {
		return nil, fmt.Errorf("%w: dataset %s: response is not a JSON array", schema.ErrRetrieval, dataset)
	}
	return body, nil
}

// BuildWhere renders the SoQL $where clause of a query. Conditions are joined with AND.
func BuildWhere(q schema.Query) string {
	var conds []string
	field := q.PeriodField
	if field == "" {
		field = q.Fields.Period
	}

	switch {
	case q.HasRange():
		conds = append(conds, fmt.Sprintf("%s >= %s", field, quote(schema.FormatPeriod(q.Since))))
		if !q.Until.IsZero() {
			conds = append(conds, fmt.Sprintf("%s < %s", field, quote(schema.FormatPeriod(q.Until))))
		}
	case len(q.Periods) == 1:
		conds = append(conds, fmt.Sprintf("%s=%s", field, quote(q.Periods[0])))
	case len(q.Periods) > 1:
		quoted := make([]string, len(q.Periods))
		for i, p := range q.Periods {
			quoted[i] = quote(p)
		}
		conds = append(conds, fmt.Sprintf("%s IN (%s)", field, strings.Join(quoted, ", ")))
	}

	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		conds = append(conds, fmt.Sprintf("%s=%s", k, quote(q.Filters[k])))
	}
	return strings.Join(conds, " AND ")
}

// quote renders a SoQL string literal.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// gjsonPath escapes a dataset field name for use as a gjson path.
func gjsonPath(field string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return r.Replace(field)
}

// DecodeRecords maps a JSON array of dataset rows onto station records through the field map.
// Fields absent from a row stay nil so the aggregator can validate presence.
func DecodeRecords(body []byte, fields schema.FieldMap) ([]schema.StationRecord, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid JSON")
	}
	rows := gjson.ParseBytes(body)
	if !rows.IsArray() {
		return nil, fmt.Errorf("expected a JSON array")
	}

	records := make([]schema.StationRecord, 0, len(rows.Array()))
	for i, row := range rows.Array() {
		rec, err := decodeRow(row, fields)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeRow(row gjson.Result, fields schema.FieldMap) (schema.StationRecord, error) {
	var rec schema.StationRecord
	if fields.StationID != "" {
		rec.StationID = row.Get(gjsonPath(fields.StationID)).String()
	}
	rec.Borough = schema.ParseBorough(row.Get(gjsonPath(fields.Borough)).String())

	rawPeriod := row.Get(gjsonPath(fields.Period))
	if !rawPeriod.Exists() {
		return rec, fmt.Errorf("missing period field %q", fields.Period)
	}
	period, err := schema.ParsePeriod(rawPeriod.String())
	if err != nil {
		return rec, err
	}
	rec.Period = period

	if fields.Availability != "" {
		if v := row.Get(gjsonPath(fields.Availability)); v.Exists() && v.Type != gjson.Null && strings.TrimSpace(v.String()) != "" {
			d, err := decimal.NewFromString(strings.TrimSpace(v.String()))
			if err != nil {
				return rec, fmt.Errorf("invalid %s %q: %w", fields.Availability, v.String(), err)
			}
			if !schema.ValidFraction(d) {
				return rec, fmt.Errorf("%s %s is outside [0, 1]", fields.Availability, d.String())
			}
			rec.Availability = &d
		}
	}

	if fields.Northbound != "" && fields.Southbound != "" {
		north, okN, err := parseFlag(row, fields.Northbound)
		if err != nil {
			return rec, err
		}
		south, okS, err := parseFlag(row, fields.Southbound)
		if err != nil {
			return rec, err
		}
		// A row reporting one direction keeps its place in the denominator.
		if okN || okS {
			if !okN {
				north = schema.NotOperational
			}
			if !okS {
				south = schema.NotOperational
			}
			rec.Northbound = &north
			rec.Southbound = &south
		}
	}
	return rec, nil
}

// parseFlag reads one direction flag. Missing and null values are absent; any
// other unrecognized value is an error.
func parseFlag(row gjson.Result, field string) (schema.Operability, bool, error) {
	v := row.Get(gjsonPath(field))
	if !v.Exists() || v.Type == gjson.Null || strings.TrimSpace(v.String()) == "" {
		return "", false, nil
	}
	op, ok := schema.ParseOperability(v.String())
	if !ok {
		return "", false, fmt.Errorf("invalid %s %q", field, v.String())
	}
	return op, true, nil
}
