package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/neodaoist/v3/auction"
)

// HTTPPayoutClient drives a remote payout service over JSON/HTTP. The
// service applies royalty and protocol-fee deductions before transferring;
// the currency id selects between native-unit and token backends. It
// implements auction.PayoutService.
type HTTPPayoutClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPPayoutClient creates a payout client for the given base URL.
func NewHTTPPayoutClient(baseURL string) *HTTPPayoutClient {
	return &HTTPPayoutClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// TransferRequest moves funds out of escrow to a recipient.
type TransferRequest struct {
	Recipient auction.Account    `json:"recipient"`
	Amount    uint64             `json:"amount"`
	Currency  auction.CurrencyID `json:"currency"`
}

// Transfer sends the fee-adjusted amount to the recipient in the selected
// currency. Any failure is reported to the engine, which rolls back the
// operation that requested the transfer.
func (c *HTTPPayoutClient) Transfer(ctx context.Context, recipient auction.Account, amount uint64, currency auction.CurrencyID) error {
	body, err := json.Marshal(&TransferRequest{
		Recipient: recipient,
		Amount:    amount,
		Currency:  currency,
	})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transfers", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("payout service returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
