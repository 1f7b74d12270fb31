package mot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/warit/ridership/backend/internal/contracts"
	"github.com/warit/ridership/backend/internal/normalize"
	"github.com/warit/ridership/backend/pkg/config"
	"github.com/warit/ridership/backend/pkg/httputil"
	"github.com/warit/ridership/backend/pkg/logger"
)

// Raw record fields as published by the MOT datastore. The feed is keyed in
// Thai: date, vehicle/terminal label, passenger volume.
const (
	fieldDate    = "วันที่"
	fieldVehicle = "ยานพาหนะ/ท่า"
	fieldVolume  = "ปริมาณ"
)

// Client fetches daily rail ridership from the Thai Ministry of Transport
// open-data portal (datastore_search action).
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	resourceID string
	pageLimit  int
}

// NewClient creates a new MOT client.
func NewClient(cfg config.MOTConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("module", "mot"),
		baseURL:    cfg.BaseURL,
		resourceID: cfg.ResourceID,
		pageLimit:  cfg.PageLimit,
	}
}

// searchResponse mirrors the CKAN datastore_search envelope.
type searchResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Records []map[string]any `json:"records"`
	} `json:"result"`
}

// FetchMonth returns all raw observations the datastore holds for one
// calendar month. An empty month is a normal "no data" response, not an
// error; transport failures surface as ErrSourceUnavailable.
func (c *Client) FetchMonth(ctx context.Context, year int, month time.Month) ([]normalize.TransitObservation, error) {
	query := fmt.Sprintf("%04d-%02d", year, int(month))

	params := url.Values{}
	params.Set("resource_id", c.resourceID)
	params.Set("q", query)
	params.Set("limit", fmt.Sprintf("%d", c.pageLimit))

	fullURL := fmt.Sprintf("%s/datastore_search?%s", c.baseURL, params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("%w: mot month %s: %v", contracts.ErrSourceUnavailable, query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: mot month %s: status %d", contracts.ErrSourceUnavailable, query, resp.StatusCode)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: mot month %s: decode: %v", contracts.ErrSourceUnavailable, query, err)
	}

	obs := make([]normalize.TransitObservation, 0, len(decoded.Result.Records))
	for _, record := range decoded.Result.Records {
		obs = append(obs, normalize.TransitObservation{
			DateText:  stringField(record, fieldDate),
			Label:     stringField(record, fieldVehicle),
			ValueText: stringField(record, fieldVolume),
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"month":   query,
		"records": len(obs),
	}).Debug("Fetched MOT month")

	return obs, nil
}

// stringField coerces a raw JSON value to text; the feed mixes numbers and
// strings for the volume column.
func stringField(record map[string]any, key string) string {
	v, ok := record[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%f", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
