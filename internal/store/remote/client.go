// Package remote talks to a record API over HTTP. It honors the exact
// store contract of the memory backend: the server owns identifier
// assignment and the completedAt stamp, the client translates between
// the wire's snake_case field names and the domain records, and failures
// map onto the shared store error taxonomy.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"farmstead/internal/core"
	"farmstead/internal/store"
)

// Client implements store.Store against a remote record API.
type Client struct {
	baseURL string
	hc      *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, primarily for
// injecting timeouts and test transports.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// New creates a client for the record API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Farms() store.Farms               { return farmsClient{c} }
func (c *Client) Crops() store.Crops               { return cropsClient{c} }
func (c *Client) Tasks() store.Tasks               { return tasksClient{c} }
func (c *Client) Transactions() store.Transactions { return transactionsClient{c} }

// errorBody is the record API's failure envelope.
type errorBody struct {
	Error  string            `json:"error"`
	Errors map[string]string `json:"errors"`
}

// do issues a request and decodes a successful response into out (out may
// be nil for deletes). Status codes map onto the store taxonomy: 404 is
// ErrNotFound, 400/422 carry per-field validation detail, everything else
// non-2xx (and any transport failure) is ErrUnavailable.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode response: %v", store.ErrUnavailable, err)
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return store.ErrNotFound
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		var eb errorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err == nil && len(eb.Errors) > 0 {
			return core.NewValidationError(eb.Errors)
		}
		return core.NewValidationError(map[string]string{"request": "rejected by record service"})
	default:
		return fmt.Errorf("%w: status %d", store.ErrUnavailable, resp.StatusCode)
	}
}

func idPath(prefix string, id int64) string {
	return prefix + "/" + strconv.FormatInt(id, 10)
}

func farmQuery(farmID int64) url.Values {
	return url.Values{"farm_id": []string{strconv.FormatInt(farmID, 10)}}
}

type farmsClient struct{ c *Client }

func (f farmsClient) List(ctx context.Context) ([]core.Farm, error) {
	var dtos []farmDTO
	if err := f.c.do(ctx, http.MethodGet, "/farms", nil, nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]core.Farm, len(dtos))
	for i, d := range dtos {
		out[i] = d.toCore()
	}
	return out, nil
}

func (f farmsClient) Get(ctx context.Context, id int64) (core.Farm, error) {
	var d farmDTO
	if err := f.c.do(ctx, http.MethodGet, idPath("/farms", id), nil, nil, &d); err != nil {
		return core.Farm{}, err
	}
	return d.toCore(), nil
}

func (f farmsClient) Create(ctx context.Context, farm core.Farm) (core.Farm, error) {
	var d farmDTO
	if err := f.c.do(ctx, http.MethodPost, "/farms", nil, farmToDTO(farm), &d); err != nil {
		return core.Farm{}, err
	}
	return d.toCore(), nil
}

func (f farmsClient) Update(ctx context.Context, id int64, p core.FarmPatch) (core.Farm, error) {
	var d farmDTO
	if err := f.c.do(ctx, http.MethodPatch, idPath("/farms", id), nil, farmPatchBody(p), &d); err != nil {
		return core.Farm{}, err
	}
	return d.toCore(), nil
}

func (f farmsClient) Delete(ctx context.Context, id int64) error {
	return f.c.do(ctx, http.MethodDelete, idPath("/farms", id), nil, nil, nil)
}

type cropsClient struct{ c *Client }

func (cc cropsClient) List(ctx context.Context) ([]core.Crop, error) {
	return cc.list(ctx, nil)
}

func (cc cropsClient) ListByFarm(ctx context.Context, farmID int64) ([]core.Crop, error) {
	return cc.list(ctx, farmQuery(farmID))
}

func (cc cropsClient) list(ctx context.Context, q url.Values) ([]core.Crop, error) {
	var dtos []cropDTO
	if err := cc.c.do(ctx, http.MethodGet, "/crops", q, nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]core.Crop, len(dtos))
	for i, d := range dtos {
		out[i] = d.toCore()
	}
	return out, nil
}

func (cc cropsClient) Get(ctx context.Context, id int64) (core.Crop, error) {
	var d cropDTO
	if err := cc.c.do(ctx, http.MethodGet, idPath("/crops", id), nil, nil, &d); err != nil {
		return core.Crop{}, err
	}
	return d.toCore(), nil
}

func (cc cropsClient) Create(ctx context.Context, crop core.Crop) (core.Crop, error) {
	var d cropDTO
	if err := cc.c.do(ctx, http.MethodPost, "/crops", nil, cropToDTO(crop), &d); err != nil {
		return core.Crop{}, err
	}
	return d.toCore(), nil
}

func (cc cropsClient) Update(ctx context.Context, id int64, p core.CropPatch) (core.Crop, error) {
	var d cropDTO
	if err := cc.c.do(ctx, http.MethodPatch, idPath("/crops", id), nil, cropPatchBody(p), &d); err != nil {
		return core.Crop{}, err
	}
	return d.toCore(), nil
}

func (cc cropsClient) Delete(ctx context.Context, id int64) error {
	return cc.c.do(ctx, http.MethodDelete, idPath("/crops", id), nil, nil, nil)
}

type tasksClient struct{ c *Client }

func (tc tasksClient) List(ctx context.Context) ([]core.Task, error) {
	return tc.list(ctx, nil)
}

func (tc tasksClient) ListByFarm(ctx context.Context, farmID int64) ([]core.Task, error) {
	return tc.list(ctx, farmQuery(farmID))
}

func (tc tasksClient) list(ctx context.Context, q url.Values) ([]core.Task, error) {
	var dtos []taskDTO
	if err := tc.c.do(ctx, http.MethodGet, "/tasks", q, nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]core.Task, len(dtos))
	for i, d := range dtos {
		out[i] = d.toCore()
	}
	return out, nil
}

func (tc tasksClient) Get(ctx context.Context, id int64) (core.Task, error) {
	var d taskDTO
	if err := tc.c.do(ctx, http.MethodGet, idPath("/tasks", id), nil, nil, &d); err != nil {
		return core.Task{}, err
	}
	return d.toCore(), nil
}

func (tc tasksClient) Create(ctx context.Context, t core.Task) (core.Task, error) {
	var d taskDTO
	if err := tc.c.do(ctx, http.MethodPost, "/tasks", nil, taskToDTO(t), &d); err != nil {
		return core.Task{}, err
	}
	return d.toCore(), nil
}

func (tc tasksClient) Update(ctx context.Context, id int64, p core.TaskPatch) (core.Task, error) {
	var d taskDTO
	if err := tc.c.do(ctx, http.MethodPatch, idPath("/tasks", id), nil, taskPatchBody(p), &d); err != nil {
		return core.Task{}, err
	}
	return d.toCore(), nil
}

func (tc tasksClient) Delete(ctx context.Context, id int64) error {
	return tc.c.do(ctx, http.MethodDelete, idPath("/tasks", id), nil, nil, nil)
}

type transactionsClient struct{ c *Client }

func (xc transactionsClient) List(ctx context.Context) ([]core.Transaction, error) {
	return xc.list(ctx, nil)
}

func (xc transactionsClient) ListByFarm(ctx context.Context, farmID int64) ([]core.Transaction, error) {
	return xc.list(ctx, farmQuery(farmID))
}

func (xc transactionsClient) list(ctx context.Context, q url.Values) ([]core.Transaction, error) {
	var dtos []transactionDTO
	if err := xc.c.do(ctx, http.MethodGet, "/transactions", q, nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]core.Transaction, len(dtos))
	for i, d := range dtos {
		out[i] = d.toCore()
	}
	return out, nil
}

func (xc transactionsClient) Get(ctx context.Context, id int64) (core.Transaction, error) {
	var d transactionDTO
	if err := xc.c.do(ctx, http.MethodGet, idPath("/transactions", id), nil, nil, &d); err != nil {
		return core.Transaction{}, err
	}
	return d.toCore(), nil
}

func (xc transactionsClient) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	var d transactionDTO
	if err := xc.c.do(ctx, http.MethodPost, "/transactions", nil, transactionToDTO(tx), &d); err != nil {
		return core.Transaction{}, err
	}
	return d.toCore(), nil
}

// Upsert uses PUT so the record keeps the caller's id on the server;
// POST would let the server assign a fresh one.
func (xc transactionsClient) Upsert(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	var d transactionDTO
	if err := xc.c.do(ctx, http.MethodPut, idPath("/transactions", tx.ID), nil, transactionToDTO(tx), &d); err != nil {
		return core.Transaction{}, err
	}
	return d.toCore(), nil
}

func (xc transactionsClient) Update(ctx context.Context, id int64, p core.TransactionPatch) (core.Transaction, error) {
	var d transactionDTO
	if err := xc.c.do(ctx, http.MethodPatch, idPath("/transactions", id), nil, transactionPatchBody(p), &d); err != nil {
		return core.Transaction{}, err
	}
	return d.toCore(), nil
}

func (xc transactionsClient) Delete(ctx context.Context, id int64) error {
	return xc.c.do(ctx, http.MethodDelete, idPath("/transactions", id), nil, nil, nil)
}
