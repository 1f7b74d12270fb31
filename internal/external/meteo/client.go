package meteo

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

// Location is one rainfall sampling point.
type Location struct {
	Name string
	Lat  float64
	Lon  float64
}

// Client fetches daily rainfall sums from the Open-Meteo forecast API.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	timezone   string
}

// NewClient creates a new Open-Meteo client.
func NewClient(cfg config.MeteoConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("module", "meteo"),
		baseURL:    cfg.BaseURL,
		timezone:   cfg.Timezone,
	}
}

// dailyResponse mirrors the daily block of the Open-Meteo payload. rain_sum
// entries are null when the model has no value for a date.
type dailyResponse struct {
	Daily struct {
		Time    []string   `json:"time"`
		RainSum []*float64 `json:"rain_sum"`
	} `json:"daily"`
}

// FetchDailyRain returns one reading per day for a sampling point. Days the
// API has no value for come back with Valid=false so the normalizer skips
// them instead of averaging in a zero.
func (c *Client) FetchDailyRain(ctx context.Context, loc Location, from, to time.Time) ([]normalize.RainReading, error) {
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%.4f", loc.Lat))
	params.Set("longitude", fmt.Sprintf("%.4f", loc.Lon))
	params.Set("daily", "rain_sum")
	params.Set("timezone", c.timezone)
	params.Set("start_date", from.Format("2006-01-02"))
	params.Set("end_date", to.Format("2006-01-02"))

	fullURL := fmt.Sprintf("%s/forecast?%s", c.baseURL, params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("%w: rain point %s: %v", contracts.ErrSourceUnavailable, loc.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: rain point %s: status %d", contracts.ErrSourceUnavailable, loc.Name, resp.StatusCode)
	}

	var decoded dailyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: rain point %s: decode: %v", contracts.ErrSourceUnavailable, loc.Name, err)
	}

	readings := make([]normalize.RainReading, 0, len(decoded.Daily.Time))
	for i, day := range decoded.Daily.Time {
		reading := normalize.RainReading{
			Location: loc.Name,
			DateText: day,
		}
		if i < len(decoded.Daily.RainSum) && decoded.Daily.RainSum[i] != nil {
			reading.Millimetres = *decoded.Daily.RainSum[i]
			reading.Valid = true
		}
		readings = append(readings, reading)
	}

	c.logger.WithFields(map[string]interface{}{
		"location": loc.Name,
		"days":     len(readings),
	}).Debug("Fetched rain point")

	return readings, nil
}
