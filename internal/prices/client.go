package prices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/farma-sahayak/sahayak-server/internal/config"
	"github.com/farma-sahayak/sahayak-server/internal/upstream"
)

const pageLimit = "1000"

// ErrNotConfigured is returned when no data.gov.in credentials are set.
var ErrNotConfigured = errors.New("price source is not configured")

// Fetcher loads raw price records for one arrival date.
type Fetcher interface {
	FetchDay(ctx context.Context, q Query, day time.Time) ([]json.RawMessage, error)
}

// DataGovClient queries the data.gov.in commodity price resource.
type DataGovClient struct {
	baseURL    string
	apiKey     string
	resourceID string
	timeout    time.Duration
}

// NewDataGovClient builds a client from configuration.
func NewDataGovClient(cfg config.DataGovConfig, timeout time.Duration) *DataGovClient {
	return &DataGovClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		resourceID: cfg.ResourceID,
		timeout:    timeout,
	}
}

type resourceResponse struct {
	Records []json.RawMessage `json:"records"`
}

// FetchDay returns every record for q on day.
func (c *DataGovClient) FetchDay(ctx context.Context, q Query, day time.Time) ([]json.RawMessage, error) {
	if c.apiKey == "" || c.resourceID == "" {
		return nil, ErrNotConfigured
	}
	timeout, err := upstream.Timeout(ctx, c.timeout)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("api-key", c.apiKey)
	params.Set("format", "json")
	params.Set("limit", pageLimit)
	params.Set("filters[commodity]", q.Commodity)
	params.Set("filters[state]", q.State)
	params.Set("filters[arrival_date]", day.Format(dateLayout))
	if q.Market != "" {
		params.Set("filters[market]", q.Market)
	}

	agent := fiber.Get(c.baseURL + "/" + url.PathEscape(c.resourceID)).
		QueryString(params.Encode()).
		Timeout(timeout)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("fetch prices: %w", errors.Join(errs...))
	}
	if status != fiber.StatusOK {
		return nil, &upstream.StatusError{Service: "data.gov.in", Status: status}
	}

	var resp resourceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode prices: %w", err)
	}
	return resp.Records, nil
}
