// Package tariff fetches day-ahead wholesale prices from an RTE-style
// HTTP API and exposes them as a price source.
package tariff

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/voltlab/smartcharge/auth"
	"github.com/voltlab/smartcharge/core/price"
)

// Response mirrors the france_power_exchanges payload.
type Response struct {
	FrancePowerExchanges []Exchange `json:"france_power_exchanges"`
}

type Exchange struct {
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	UpdatedDate string          `json:"updated_date"`
	Values      []ExchangeValue `json:"values"`
}

type ExchangeValue struct {
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Price     float64 `json:"price"`
}

// Points flattens the response into raw price intervals.
func (r Response) Points() ([]price.RawPoint, error) {
	var out []price.RawPoint
	for _, ex := range r.FrancePowerExchanges {
		for _, v := range ex.Values {
			start, err := time.Parse(time.RFC3339, v.StartDate)
			if err != nil {
				return nil, fmt.Errorf("parse start %q: %w", v.StartDate, err)
			}
			end, err := time.Parse(time.RFC3339, v.EndDate)
			if err != nil {
				return nil, fmt.Errorf("parse end %q: %w", v.EndDate, err)
			}
			p := v.Price
			out = append(out, price.RawPoint{Start: start, End: end, Value: &p})
		}
	}
	return out, nil
}

// Client fetches wholesale prices with bearer authentication.
type Client struct {
	baseURL string
	auth    *auth.ClientCred
	http    *http.Client
}

// NewClient creates a Client for the given API base URL. cred may be nil
// for unauthenticated endpoints.
func NewClient(baseURL string, cred *auth.ClientCred) *Client {
	return &Client{
		baseURL: baseURL,
		auth:    cred,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch retrieves the prices overlapping [start, end).
func (c *Client) Fetch(ctx context.Context, start, end time.Time) (Response, error) {
	q := url.Values{}
	q.Set("start_date", start.Format(time.RFC3339))
	q.Set("end_date", end.Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}
	if c.auth != nil {
		if err := c.auth.SetAuthHeader(req); err != nil {
			return Response{}, fmt.Errorf("set auth header: %w", err)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Response{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}
	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}
