// Package nswhealth fetches COVID-19 case notifications from the NSW
// Government CKAN datastore API.
package nswhealth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/nsw-covid-lga-map/internal/domain"
	"github.com/couchcryptid/nsw-covid-lga-map/internal/observability"
)

// DefaultBaseURL is the CKAN action API root for data.nsw.gov.au.
const DefaultBaseURL = "https://data.nsw.gov.au/data/api/3/action"

// API dates are usually plain days but some exports carry a midnight time.
var dateLayouts = []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05"}

// Client implements pipeline.CaseFetcher against a single datastore query URL.
type Client struct {
	queryURL   string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a case data client for queryURL.
func NewClient(queryURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		queryURL: queryURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// CasesQueryURL builds a datastore_search_sql URL selecting fields from the
// given resource.
func CasesQueryURL(baseURL, resourceID string, fields ...string) string {
	sql := fmt.Sprintf(`SELECT %s from "%s"`, strings.Join(fields, ","), resourceID)
	return strings.TrimRight(baseURL, "/") + "/datastore_search_sql?" + url.Values{"sql": {sql}}.Encode()
}

// FetchCases issues one GET request and returns every case record in the
// response, in API order. Any transport, status or decoding failure is
// returned; there is no retry.
func (c *Client) FetchCases(ctx context.Context) ([]domain.CaseRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.queryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cases request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("datastore API error: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())

	if env.Success != nil && !*env.Success {
		msg := "unknown error"
		if env.Error != nil && env.Error.Message != "" {
			msg = env.Error.Message
		}
		return nil, fmt.Errorf("datastore API reported failure: %s", msg)
	}
	if env.Result == nil {
		return nil, fmt.Errorf("decode response: missing result")
	}

	records := make([]domain.CaseRecord, 0, len(env.Result.Records))
	for i, r := range env.Result.Records {
		date, err := domain.ParseDate(r.NotificationDate, dateLayouts...)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, domain.CaseRecord{
			Date:       date,
			RegionCode: strings.TrimSpace(string(r.LGACode)),
			RegionName: strings.TrimSpace(r.LGAName),
		})
	}

	c.logger.Info("case records fetched", "records", len(records), "duration", time.Since(start))
	return records, nil
}

// CKAN datastore response types.

type envelope struct {
	Success *bool     `json:"success"`
	Result  *result   `json:"result"`
	Error   *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
}

type result struct {
	Records []record `json:"records"`
}

type record struct {
	NotificationDate string     `json:"notification_date"`
	LGACode          flexString `json:"lga_code19"`
	LGAName          string     `json:"lga_name19"`
}

// flexString accepts a JSON string, number, or null. The datastore types
// lga_code19 as text but older exports emit it as a number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("lga code: %w", err)
		}
		*f = flexString(n.String())
	}
	return nil
}
