package myhora

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/warit/ridership/backend/internal/contracts"
	"github.com/warit/ridership/backend/pkg/config"
	"github.com/warit/ridership/backend/pkg/httputil"
	"github.com/warit/ridership/backend/pkg/logger"
)

// buddhistYearOffset converts a Christian year to the Buddhist year the
// calendar is published under (2025 -> 2568).
const buddhistYearOffset = 543

// Client downloads the yearly Thai holiday calendar from myhora.com.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string

	// One calendar per year per run; cached so the day-type stage does not
	// re-download when several dates share a year.
	cache map[int][]string
}

// NewClient creates a new holiday calendar client.
func NewClient(cfg config.MyHoraConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("module", "myhora"),
		baseURL:    cfg.BaseURL,
		cache:      make(map[int][]string),
	}
}

// FetchHolidays returns the raw start-date strings of every holiday entry
// for a Christian year. Date parsing is left to the normalizer, which knows
// the calendar mixes compact and delimited encodings.
func (c *Client) FetchHolidays(ctx context.Context, year int) ([]string, error) {
	if cached, ok := c.cache[year]; ok {
		return cached, nil
	}

	fullURL := fmt.Sprintf("%s/holiday.aspx?%d.csv", c.baseURL, year+buddhistYearOffset)

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("%w: holiday calendar %d: %v", contracts.ErrSourceUnavailable, year, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: holiday calendar %d: status %d", contracts.ErrSourceUnavailable, year, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: holiday calendar %d: read: %v", contracts.ErrSourceUnavailable, year, err)
	}

	entries, err := parseCalendarCSV(body)
	if err != nil {
		return nil, fmt.Errorf("%w: holiday calendar %d: %v", contracts.ErrSourceUnavailable, year, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"year":    year,
		"entries": len(entries),
	}).Debug("Fetched holiday calendar")

	c.cache[year] = entries
	return entries, nil
}

// parseCalendarCSV extracts the Start Date column. The file arrives with a
// UTF-8 BOM and a header row.
func parseCalendarCSV(body []byte) ([]string, error) {
	text := strings.TrimPrefix(string(body), "\ufeff")

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	dateCol := -1
	for i, name := range records[0] {
		if strings.EqualFold(strings.TrimSpace(name), "Start Date") {
			dateCol = i
			break
		}
	}
	if dateCol < 0 {
		return nil, fmt.Errorf("no Start Date column in calendar header")
	}

	var entries []string
	for _, record := range records[1:] {
		if dateCol < len(record) {
			entries = append(entries, strings.TrimSpace(record[dateCol]))
		}
	}
	return entries, nil
}
