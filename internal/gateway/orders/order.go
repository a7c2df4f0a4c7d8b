package order

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Order represents an order as the checkout service reports it.
type Order struct {
	ID        string    `json:"order_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusError is a non-2xx response from the checkout service.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("checkout responded %d", e.Code)
}

// HTTPGateway is a checkout gateway backed by its JSON API.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGateway creates a checkout gateway. Returns nil when baseURL is
// empty: the service then runs without the checkout callback.
func NewHTTPGateway(baseURL string, client *http.Client) *HTTPGateway {
	if strings.TrimSpace(baseURL) == "" {
		return nil
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// GetByID fetches an order by ID. A 404 yields (nil, nil).
func (g *HTTPGateway) GetByID(ctx context.Context, id string) (*Order, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/orders/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("order gateway: GetByID: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("order gateway: GetByID: %w", err)
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("order gateway: GetByID: %w", &StatusError{Code: resp.StatusCode})
	}

	var ord Order
	if err := json.NewDecoder(resp.Body).Decode(&ord); err != nil {
		return nil, fmt.Errorf("order gateway: GetByID: decode: %w", err)
	}
	return &ord, nil
}

// SetDeliveryStatus reports a delivery status back to checkout.
func (g *HTTPGateway) SetDeliveryStatus(ctx context.Context, id, status string) error {
	body, err := json.Marshal(map[string]string{"delivery_status": status})
	if err != nil {
		return fmt.Errorf("order gateway: SetDeliveryStatus: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		g.baseURL+"/orders/"+id+"/delivery-status", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("order gateway: SetDeliveryStatus: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("order gateway: SetDeliveryStatus: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("order gateway: SetDeliveryStatus: %w", &StatusError{Code: resp.StatusCode})
	}
	return nil
}

// keeps the connection reusable
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}
