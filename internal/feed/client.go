package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/suraksha/alertwatch/internal/models"
)

// ErrFetchFailed wraps any failure to reach the upstream alert source
// or any non-success response from it. Callers degrade to an empty list
// rather than failing the dashboard.
var ErrFetchFailed = errors.New("feed: fetch failed")

// Client pulls alert records from the external alert data source. The
// source's schema is assumed, not defined, by this service.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
}

func NewClient(baseURL string) *Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 2
	c.HTTPClient.Timeout = 15 * time.Second
	c.Logger = nil

	return &Client{
		baseURL: baseURL,
		http:    c,
	}
}

type feedRecord struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Location    string             `json:"location"`
	Category    string             `json:"category"`
	Severity    string             `json:"severity"`
	StartTime   time.Time          `json:"start_time"`
	EndTime     *time.Time         `json:"end_time"`
	Coordinates *models.Coordinate `json:"coordinates"`
	Description string             `json:"description"`
}

// Fetch retrieves all alerts the source reports for the trailing
// window of whole months.
func (c *Client) Fetch(ctx context.Context, months int) ([]models.AlertRecord, error) {
	u, err := url.Parse(c.baseURL + "/alerts")
	if err != nil {
		return nil, fmt.Errorf("%w: bad feed url: %v", ErrFetchFailed, err)
	}
	q := u.Query()
	q.Set("months", strconv.Itoa(months))
	u.RawQuery = q.Encode()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code: %d - status: %s", ErrFetchFailed, resp.StatusCode, resp.Status)
	}

	var records []feedRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrFetchFailed, err)
	}

	alerts := make([]models.AlertRecord, 0, len(records))
	for _, r := range records {
		alerts = append(alerts, models.AlertRecord{
			ID:           "feed_" + r.ID,
			Title:        r.Title,
			LocationText: r.Location,
			Category:     models.ParseCategory(r.Category),
			Severity:     models.ParseSeverity(r.Severity),
			StartTime:    r.StartTime,
			EndTime:      r.EndTime,
			Coordinates:  r.Coordinates,
			Description:  r.Description,
			CreatedAt:    time.Now(),
		})
	}

	return alerts, nil
}
