// Package rest implements the backend repositories against a hosted
// PostgREST-style API (/rest/v1/<table>). The hosted database assigns ids,
// timestamps and versions, and publishes its own change stream.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/example/siteops/internal/logging"
	"github.com/example/siteops/internal/ports/secondary"
)

const apiPrefix = "/rest/v1/"

// Options configures a Client.
type Options struct {
	BaseURL     string
	// APIKey is sent as the apikey header and, without an AccessToken, as
	// the bearer token.
	APIKey      string
	AccessToken string
	Timeout     time.Duration
	Retries     int
	Logger      *zap.Logger
}

// APIError is an error body returned by the API.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client performs table requests.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient creates a client for opts.BaseURL.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	token := opts.AccessToken
	if token == "" {
		token = opts.APIKey
	}

	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(timeout).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if opts.APIKey != "" {
		client.SetHeader("apikey", opts.APIKey)
	}
	if token != "" {
		client.SetAuthToken(token)
	}

	return &Client{
		http:   client,
		logger: logging.OrNop(opts.Logger).Named("rest"),
	}
}

// filter is a set of PostgREST query parameters, e.g. {"id": "eq.x"}.
type filter map[string]string

func eq(v string) string { return "eq." + v }

func (c *Client) request(ctx context.Context, params filter) *resty.Request {
	req := c.http.R().SetContext(ctx).SetError(&APIError{})
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	return req
}

// selectRows GETs rows of table into out.
func (c *Client) selectRows(ctx context.Context, table string, params filter, out any) error {
	resp, err := c.request(ctx, params).SetResult(out).Get(apiPrefix + table)
	return c.check(resp, err, "select", table)
}

// insert POSTs body and decodes the created row into out.
func (c *Client) insert(ctx context.Context, table string, body any, out any) error {
	var rows []json.RawMessage
	resp, err := c.request(ctx, nil).
		SetHeader("Prefer", "return=representation").
		SetBody(body).
		SetResult(&rows).
		Post(apiPrefix + table)
	if err := c.check(resp, err, "insert", table); err != nil {
		return err
	}
	return single(rows, out, fmt.Errorf("insert into %s returned no row", table))
}

// update PATCHes the rows matching params and decodes the single returned
// row into out. No matching row yields notFound.
func (c *Client) update(ctx context.Context, table string, params filter, body any, out any, notFound error) error {
	var rows []json.RawMessage
	resp, err := c.request(ctx, params).
		SetHeader("Prefer", "return=representation").
		SetBody(body).
		SetResult(&rows).
		Patch(apiPrefix + table)
	if err := c.check(resp, err, "update", table); err != nil {
		return err
	}
	return single(rows, out, notFound)
}

// remove DELETEs the rows matching params. No matching row yields notFound.
func (c *Client) remove(ctx context.Context, table string, params filter, notFound error) error {
	var rows []json.RawMessage
	resp, err := c.request(ctx, params).
		SetHeader("Prefer", "return=representation").
		SetResult(&rows).
		Delete(apiPrefix + table)
	if err := c.check(resp, err, "delete", table); err != nil {
		return err
	}
	if len(rows) == 0 {
		return notFound
	}
	return nil
}

func (c *Client) check(resp *resty.Response, err error, op, table string) error {
	if err != nil {
		c.logger.Warn("request failed", zap.String("op", op), zap.String("table", table), zap.Error(err))
		return fmt.Errorf("failed to %s %s: %w", op, table, err)
	}
	if !resp.IsError() {
		return nil
	}

	apiErr, ok := resp.Error().(*APIError)
	if !ok || apiErr == nil {
		apiErr = &APIError{Message: http.StatusText(resp.StatusCode())}
	}
	apiErr.Status = resp.StatusCode()
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode())
	}

	c.logger.Warn("request rejected",
		zap.String("op", op),
		zap.String("table", table),
		zap.Int("status_code", apiErr.Status),
		zap.String("code", apiErr.Code))

	if apiErr.Status == http.StatusNotFound {
		return fmt.Errorf("failed to %s %s: %w", op, table, errors.Join(apiErr, secondary.ErrNotFound))
	}
	return fmt.Errorf("failed to %s %s: %w", op, table, apiErr)
}

func single(rows []json.RawMessage, out any, empty error) error {
	if len(rows) == 0 {
		return empty
	}
	if err := json.Unmarshal(rows[0], out); err != nil {
		return fmt.Errorf("failed to decode row: %w", err)
	}
	return nil
}

// payload renders row as a JSON object holding exactly cols. Columns the row
// omits are sent as null so cleared fields are written.
func payload(row any, cols ...string) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("failed to encode row: %w", err)
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("failed to encode row: %w", err)
	}

	out := make(map[string]json.RawMessage, len(cols))
	for _, col := range cols {
		if v, ok := all[col]; ok {
			out[col] = v
		} else {
			out[col] = json.RawMessage("null")
		}
	}
	return out, nil
}

// withID adds the id column when the caller chose one.
func withID(body map[string]json.RawMessage, id string) map[string]json.RawMessage {
	if id != "" {
		raw, _ := json.Marshal(id)
		body["id"] = raw
	}
	return body
}
