package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"magnate/internal/game"
	"magnate/internal/notify"
)

// Client is a thin HTTP client for the game API, used by the ops CLI.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Account(ctx context.Context, id string) (game.Account, error) {
	var out game.Account
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/accounts/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) CollectIncome(ctx context.Context, id string) (game.IncomeResult, error) {
	var out game.IncomeResult
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/accounts/"+url.PathEscape(id)+"/income/collect", nil, &out)
	return out, err
}

func (c *Client) Purchase(ctx context.Context, id, investmentID string) (game.PurchaseResult, error) {
	var out game.PurchaseResult
	path := "/v1/accounts/" + url.PathEscape(id) + "/investments/" + url.PathEscape(investmentID) + "/purchase"
	err := c.jsonRequest(ctx, http.MethodPost, path, nil, &out)
	return out, err
}

func (c *Client) Catalog(ctx context.Context, accountID, category string) ([]game.CatalogItem, error) {
	q := url.Values{}
	if accountID != "" {
		q.Set("account_id", accountID)
	}
	if category != "" {
		q.Set("category", category)
	}
	path := "/v1/catalog"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}
	var out struct {
		Items []game.CatalogItem `json:"items"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, path, nil, &out)
	return out.Items, err
}

func (c *Client) Notify(ctx context.Context, n notify.Notification) (notify.Report, error) {
	var out notify.Report
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/notifications", n, &out)
	return out, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
