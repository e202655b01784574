package airbnb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/Aoneken/price-monitor-sub000/config"
	"github.com/Aoneken/price-monitor-sub000/models"
	"github.com/Aoneken/price-monitor-sub000/utils"
)

const (
	apiBase  = "https://www.airbnb.com/api/v3"
	siteBase = "https://www.airbnb.com"

	calendarOperation = "PdpAvailabilityCalendar"
	calendarHash      = "8f08e03c7bd16fcad3c92a3592c19a8b559a0d0855a84028d458163894565ce7"
	apiKey            = "d306zoyjsyarp7ifhu67rjxn52tv0t20"

	calendarTimeout = 30 * time.Second
	quoteTimeout    = 60 * time.Second

	calendarBaseDelay = time.Second
	userAgent         = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Client talks to the provider's availability-calendar and booking-quote
// endpoints. One shared HTTP client pools connections across all listings;
// a token bucket paces every outgoing request.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	logger  *utils.Logger

	apiBase  string
	siteBase string

	retries    int
	quoteDelay time.Duration
	guests     int
	currency   string
	locale     string
}

// NewClient creates a ready-to-use provider client from the run config.
func NewClient(cfg *config.Config, logger *utils.Logger) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}
	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 1
	}

	return &Client{
		http:       &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		logger:     logger,
		apiBase:    apiBase,
		siteBase:   siteBase,
		retries:    retries,
		quoteDelay: time.Duration(cfg.QuoteDelaySeconds * float64(time.Second)),
		guests:     cfg.Guests,
		currency:   cfg.Currency,
		locale:     cfg.Locale,
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Airbnb-API-Key", apiKey)
	req.Header.Set("X-Airbnb-GraphQL-Platform", "web")
	req.Header.Set("X-Airbnb-GraphQL-Platform-Client", "minimalist-niobe")
	req.Header.Set("X-CSRF-Without-Token", "1")
}

// FetchCalendar retrieves the availability calendar covering [start, end]
// and flattens it into a DayMap. 5xx responses and network errors are
// retried with capped exponential backoff; other HTTP failures abort with
// a calendar_http_<code> error.
func (c *Client) FetchCalendar(ctx context.Context, listingID string, start, end time.Time) (models.DayMap, error) {
	month := int(start.Month())
	year := start.Year()
	count := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month()) + 1

	reqURL, err := c.calendarURL(listingID, month, year, count)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			if err := utils.SleepCtx(ctx, utils.Backoff(calendarBaseDelay, attempt)); err != nil {
				return nil, err
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, status, err := c.get(ctx, reqURL, calendarTimeout)
		if err != nil {
			lastErr = fmt.Errorf("calendar request: %w", err)
			c.logger.Warn("[airbnb] Calendar attempt %d/%d failed for %s: %v",
				attempt+1, c.retries, listingID, err)
			continue
		}
		if status >= 500 {
			lastErr = fmt.Errorf("calendar_http_%d", status)
			continue
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("calendar_http_%d", status)
		}

		daymap, err := FlattenCalendar(body)
		if err != nil {
			lastErr = fmt.Errorf("calendar parse: %w", err)
			continue
		}
		return daymap, nil
	}

	return nil, fmt.Errorf("calendar fetch failed after %d attempts: %w", c.retries, lastErr)
}

func (c *Client) calendarURL(listingID string, month, year, count int) (string, error) {
	variables, err := json.Marshal(struct {
		Request struct {
			Count     int    `json:"count"`
			ListingID string `json:"listingId"`
			Month     int    `json:"month"`
			Year      int    `json:"year"`
		} `json:"request"`
	}{struct {
		Count     int    `json:"count"`
		ListingID string `json:"listingId"`
		Month     int    `json:"month"`
		Year      int    `json:"year"`
	}{count, listingID, month, year}})
	if err != nil {
		return "", fmt.Errorf("calendar variables: %w", err)
	}

	extensions, err := json.Marshal(map[string]any{
		"persistedQuery": map[string]any{"version": 1, "sha256Hash": calendarHash},
	})
	if err != nil {
		return "", fmt.Errorf("calendar extensions: %w", err)
	}

	q := url.Values{}
	q.Set("operationName", calendarOperation)
	q.Set("locale", c.locale)
	q.Set("currency", c.currency)
	q.Set("variables", string(variables))
	q.Set("extensions", string(extensions))

	return c.apiBase + "/" + calendarOperation + "/" + calendarHash + "?" + q.Encode(), nil
}

// FetchQuote requests a booking quote for a stay of the given length and
// mines the returned HTML for the price breakdown. Never returns a Go
// error: failures are classified into QuoteResult.Err so the caller can
// fold them into row notes.
func (c *Client) FetchQuote(ctx context.Context, listingID string, checkin time.Time, nights int) models.QuoteResult {
	if nights < 1 {
		nights = 1
	}
	checkout := checkin.AddDate(0, 0, nights)

	q := url.Values{}
	q.Set("checkin", checkin.Format(models.ISODate))
	q.Set("checkout", checkout.Format(models.ISODate))
	q.Set("numberOfGuests", fmt.Sprintf("%d", c.guests))
	q.Set("numberOfAdults", fmt.Sprintf("%d", c.guests))
	q.Set("numberOfChildren", "0")
	q.Set("numberOfInfants", "0")
	q.Set("numberOfPets", "0")
	q.Set("productId", listingID)
	q.Set("guestCurrency", c.currency)
	q.Set("isWorkTrip", "false")
	reqURL := c.siteBase + "/book/stays/" + listingID + "?" + q.Encode()

	lastErr := ""
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			if err := utils.SleepCtx(ctx, utils.Backoff(c.quoteDelay, attempt)); err != nil {
				break
			}
		}
		if err := utils.SleepCtx(ctx, utils.Jitter(c.quoteDelay, 0.5, 1.5)); err != nil {
			break
		}
		if err := c.limiter.Wait(ctx); err != nil {
			break
		}

		body, status, err := c.get(ctx, reqURL, quoteTimeout)
		if err != nil {
			lastErr = "booking_error:" + truncate(err.Error(), 120)
			c.logger.Warn("[airbnb] Quote attempt %d/%d failed for %s %s+%d: %v",
				attempt+1, c.retries, listingID, checkin.Format(models.ISODate), nights, err)
			continue
		}
		if status >= 500 {
			lastErr = fmt.Sprintf("booking_http_%d", status)
			continue
		}
		if status != http.StatusOK {
			return models.QuoteResult{Err: fmt.Sprintf("booking_http_%d", status)}
		}

		island, ok := ExtractPriceIsland(string(body))
		if !ok {
			lastErr = models.ErrBookingPriceNotFound
			continue
		}

		result := ParseQuoteIsland(island, nights)
		if result.Err != "" {
			lastErr = result.Err
			continue
		}
		return result
	}

	if lastErr == "" {
		lastErr = models.ErrBookingFailed
	}
	return models.QuoteResult{Err: lastErr}
}

func (c *Client) get(ctx context.Context, reqURL string, timeout time.Duration) ([]byte, int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
