package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SnapRequest is the transaction payload sent to the snap endpoint.
type SnapRequest struct {
	TransactionDetails TransactionDetails `json:"transaction_details"`
	CustomerDetails    CustomerDetails    `json:"customer_details"`
	ItemDetails        []ItemDetail       `json:"item_details"`
}

type TransactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type CustomerDetails struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
}

type ItemDetail struct {
	ID       string `json:"id"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
}

type snapResponse struct {
	Token         string   `json:"token"`
	RedirectURL   string   `json:"redirect_url"`
	ErrorMessages []string `json:"error_messages"`
}

// HTTPSnapClient talks to the real snap API, authenticating with the server
// key over HTTP basic auth.
type HTTPSnapClient struct {
	cfg    Config
	client *http.Client
}

func NewHTTPSnapClient(cfg Config) *HTTPSnapClient {
	return &HTTPSnapClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPSnapClient) CreateTransaction(ctx context.Context, req SnapRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL()+"/snap/v1/transactions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.SetBasicAuth(c.cfg.ServerKey, "")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var snap snapResponse
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		if len(snap.ErrorMessages) > 0 {
			return "", fmt.Errorf("snap api %d: %s", resp.StatusCode, snap.ErrorMessages[0])
		}
		return "", fmt.Errorf("snap api returned status %d", resp.StatusCode)
	}
	if snap.Token == "" {
		return "", fmt.Errorf("snap api returned no token")
	}
	return snap.Token, nil
}
