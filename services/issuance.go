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

// HTTPIssuanceClient drives a remote item-issuance service over JSON/HTTP.
// It implements auction.IssuanceService.
type HTTPIssuanceClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPIssuanceClient creates an issuance client for the given base URL.
func NewHTTPIssuanceClient(baseURL string) *HTTPIssuanceClient {
	return &HTTPIssuanceClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// EditionSizeRequest fixes a collection's edition size before minting.
type EditionSizeRequest struct {
	Size uint64 `json:"size"`
}

// MintRequest mints one unit to each winner, in the given order.
type MintRequest struct {
	Winners []auction.Account `json:"winners"`
}

// SetEditionSize fixes the collection's edition size on the issuance service.
func (c *HTTPIssuanceClient) SetEditionSize(ctx context.Context, collection auction.Collection, size uint64) error {
	url := fmt.Sprintf("%s/collections/%s/edition-size", c.baseURL, collection)
	return c.post(ctx, url, &EditionSizeRequest{Size: size})
}

// MintTo mints one unit to each winner in reveal order. The issuance service
// must apply the whole batch atomically; any error reported here aborts the
// settlement that requested it.
func (c *HTTPIssuanceClient) MintTo(ctx context.Context, collection auction.Collection, winners []auction.Account) error {
	url := fmt.Sprintf("%s/collections/%s/mint", c.baseURL, collection)
	return c.post(ctx, url, &MintRequest{Winners: winners})
}

func (c *HTTPIssuanceClient) post(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
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
		return fmt.Errorf("issuance service returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
