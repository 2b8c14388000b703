package prices

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/farma-sahayak/sahayak-server/internal/httperr"
	"github.com/farma-sahayak/sahayak-server/internal/upstream"
)

// Handler exposes the /prices endpoints.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type recordResponse struct {
	Date       string `json:"date"`
	State      string `json:"state"`
	Market     string `json:"market"`
	Commodity  string `json:"commodity"`
	Variety    string `json:"variety,omitempty"`
	MinPrice   int    `json:"min_price"`
	MaxPrice   int    `json:"max_price"`
	ModalPrice int    `json:"modal_price"`
}

// DailyPrices handles GET /prices/daily-prices.
func (h *Handler) DailyPrices(c *fiber.Ctx) error {
	daysBack, err := intQuery(c, "days_back")
	if err != nil {
		return err
	}
	q := queryFrom(c)
	result, err := h.service.DailyPrices(c.UserContext(), q, daysBack)
	if err != nil {
		return asHTTPError(err)
	}
	return c.JSON(fiber.Map{
		"status":  "ok",
		"message": fmt.Sprintf("Updated prices for %s in %s", q.Commodity, q.State),
		"date":    result.Date.Format(dateLayout),
		"data":    toResponses(result.Records),
		"fetched": result.Fetched,
		"skipped": result.Skipped,
	})
}

// History handles GET /prices/history.
func (h *Handler) History(c *fiber.Ctx) error {
	days, err := intQuery(c, "days")
	if err != nil {
		return err
	}
	q := queryFrom(c)
	result, err := h.service.History(c.UserContext(), q, days)
	if err != nil {
		return asHTTPError(err)
	}
	failed := result.FailedDays
	if failed == nil {
		failed = []string{}
	}
	return c.JSON(fiber.Map{
		"status":      "ok",
		"from":        result.From.Format(dateLayout),
		"to":          result.To.Format(dateLayout),
		"data":        toResponses(result.Records),
		"fetched":     result.Fetched,
		"skipped":     result.Skipped,
		"failed_days": failed,
	})
}

// Sample handles GET /prices/sample-data.
func (h *Handler) Sample(c *fiber.Ctx) error {
	q := queryFrom(c)
	records := h.service.Sample(q.Commodity, q.State)
	return c.JSON(fiber.Map{
		"status":  "ok",
		"message": fmt.Sprintf("Sample data for %s in %s", records[0].Commodity, records[0].State),
		"data":    toResponses(records),
	})
}

func queryFrom(c *fiber.Ctx) Query {
	return Query{
		Commodity: c.Query("commodity"),
		State:     c.Query("state"),
		Market:    c.Query("market"),
	}
}

func intQuery(c *fiber.Ctx, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > MaxDaysBack {
		return 0, httperr.BadRequest("invalid_query", fmt.Sprintf("%s must be an integer between 0 and %d", key, MaxDaysBack))
	}
	return n, nil
}

func toResponses(records []Record) []recordResponse {
	out := make([]recordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, recordResponse{
			Date:       r.Date.Format(dateLayout),
			State:      r.State,
			Market:     r.Market,
			Commodity:  r.Commodity,
			Variety:    r.Variety,
			MinPrice:   r.MinPrice,
			MaxPrice:   r.MaxPrice,
			ModalPrice: r.ModalPrice,
		})
	}
	return out
}

func asHTTPError(err error) error {
	var statusErr *upstream.StatusError
	switch {
	case errors.Is(err, ErrInvalidQuery):
		return httperr.BadRequest("invalid_query", err.Error())
	case errors.Is(err, ErrNotConfigured):
		return httperr.New(fiber.StatusServiceUnavailable, "prices_unavailable", err.Error())
	case errors.As(err, &statusErr):
		return httperr.BadGateway("price_source_failed", err)
	default:
		return httperr.Internal(err)
	}
}
