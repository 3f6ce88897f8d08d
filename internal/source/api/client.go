// Package api talks to the remote finance REST API with a bearer token.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/credentials"
	"fintrack/internal/log"
	"fintrack/internal/source"
)

var (
	_ source.TransactionSource  = (*Client)(nil)
	_ source.TransactionWriter  = (*Client)(nil)
	_ source.NotificationSource = (*Client)(nil)
)

var (
	// ErrUnauthorized is wrapped by StatusError for 401 and 403 responses.
	ErrUnauthorized = errors.New("unauthorized")

	ErrResponseTooLarge = errors.New("response body too large")
)

const (
	maxErrorBody    = 512
	maxResponseBody = 8 << 20
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

type Client struct {
	baseURL     *url.URL
	credentials credentials.Provider
	http        *http.Client
	logger      *log.Logger
}

// New builds a client for baseURL. A zero timeout means no client-side limit.
func New(baseURL string, creds credentials.Provider, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	if creds == nil {
		return nil, errors.New("credential provider is required")
	}
	return &Client{
		baseURL:     u,
		credentials: creds,
		http:        &http.Client{Timeout: timeout},
		logger:      log.FromContext(context.Background()).WithComponent(log.ComponentSource),
	}, nil
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// WithLogger replaces the client logger.
func (c *Client) WithLogger(l *log.Logger) *Client {
	if l != nil {
		c.logger = l
	}
	return c
}

// FetchTransactions returns the full list in server order. Records that do
// not decode are dropped and logged; the rest of the list is kept.
func (c *Client) FetchTransactions(ctx context.Context) ([]core.Transaction, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/transactions", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}
	txs, skipped, err := decodeList[core.Transaction](body, "transactions")
	if err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	if len(skipped) > 0 {
		c.logger.WarnContext(ctx, "Skipped undecodable transactions",
			log.FieldOperation, log.OpFetch,
			log.FieldSkipped, len(skipped),
			log.FieldError, errors.Join(skipped...))
	}
	return txs, nil
}

func (c *Client) CreateTransaction(ctx context.Context, n core.NewTransaction) (core.Transaction, error) {
	if err := n.Validate(); err != nil {
		return core.Transaction{}, err
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("encode transaction: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, "/api/transactions", payload)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	// Servers answer with the record, optionally wrapped in {"transaction": ...}.
	var wrapped struct {
		Transaction *core.Transaction `json:"transaction"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Transaction != nil {
		return *wrapped.Transaction, nil
	}
	var tx core.Transaction
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &tx); err != nil {
			return core.Transaction{}, fmt.Errorf("decode created transaction: %w", err)
		}
	}
	return tx, nil
}

func (c *Client) ListNotifications(ctx context.Context) ([]core.Notification, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/notifications", nil)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	notes, skipped, err := decodeList[core.Notification](body, "notifications")
	if err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	if len(skipped) > 0 {
		c.logger.WarnContext(ctx, "Skipped undecodable notifications",
			log.FieldOperation, log.OpList,
			log.FieldSkipped, len(skipped),
			log.FieldError, errors.Join(skipped...))
	}
	return notes, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("notification id is required")
	}
	path := "/api/notifications/" + url.PathEscape(id) + "/read"
	if _, err := c.do(ctx, http.MethodPut, path, nil); err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return fmt.Errorf("notification %s: %w", id, source.ErrNotFound)
		}
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// do resolves the credential once, sends the request and returns the body of
// a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	cred, err := c.credentials.Credential(ctx)
	if err != nil {
		return nil, err
	}
	if cred.Token == "" {
		return nil, credentials.ErrNoCredential
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(body) > maxResponseBody {
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrResponseTooLarge)
	}

	c.logger.DebugContext(ctx, "API request completed",
		log.FieldMethod, method,
		log.FieldPath, path,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt := strings.TrimSpace(string(body))
		if len(excerpt) > maxErrorBody {
			excerpt = excerpt[:maxErrorBody]
		}
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: excerpt}
	}
	return body, nil
}

// decodeList accepts a bare array or an envelope keyed by key or "data".
// Each element is decoded on its own; elements that fail are returned as
// skipped errors instead of failing the list.
func decodeList[T any](body []byte, key string) ([]T, []error, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil, nil
	}
	if trimmed[0] == '[' {
		return decodeItems[T](trimmed)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, nil, err
	}
	for _, k := range []string{key, "data"} {
		raw, ok := envelope[k]
		if !ok {
			continue
		}
		items, skipped, err := decodeItems[T](raw)
		if err != nil {
			return nil, nil, fmt.Errorf("field %q: %w", k, err)
		}
		return items, skipped, nil
	}
	return nil, nil, fmt.Errorf("response has neither %q nor \"data\" list", key)
}

func decodeItems[T any](raw json.RawMessage) ([]T, []error, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, nil, err
	}
	items := make([]T, 0, len(elems))
	var skipped []error
	for i, elem := range elems {
		var item T
		if err := json.Unmarshal(elem, &item); err != nil {
			skipped = append(skipped, fmt.Errorf("item %d: %w", i, err))
			continue
		}
		items = append(items, item)
	}
	return items, skipped, nil
}
