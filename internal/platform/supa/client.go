// Package supa is a thin client for the dashboard worker that fronts the
// Supabase tables (list/create/update/patch/delete per table).
package supa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNotConfigured is returned when no API base URL was provided.
var ErrNotConfigured = errors.New("supa: api not configured")

// ErrNotFound matches StatusError values carrying a 404.
var ErrNotFound = errors.New("supa: not found")

// DefaultTimeout applies when the caller passes a zero timeout.
const DefaultTimeout = 15 * time.Second

// StatusError reports a non-2xx answer from the worker.
type StatusError struct {
	Method string
	Path   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("supa: %s %s -> %d", e.Method, e.Path, e.Status)
}

// Is lets errors.Is(err, ErrNotFound) match 404 answers.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Client is a resty-backed worker client.
type Client struct {
	http *resty.Client
}

// NewClient builds a client for the worker at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	base := strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return &Client{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	restyClient := resty.New()
	restyClient.
		SetBaseURL(base).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	return &Client{http: restyClient}
}

// Configured reports whether the client has a base URL.
func (c *Client) Configured() bool {
	return c != nil && c.http != nil
}

// List loads the rows of table whose field equals value into dest, which must
// point to a slice. Answers that are not JSON arrays leave dest empty.
func (c *Client) List(ctx context.Context, table, field, value string, dest any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	path := "/supa/list/" + url.PathEscape(table)
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryString(url.QueryEscape(field) + "=eq." + url.QueryEscape(value)).
		Get(path)
	if err != nil {
		return fmt.Errorf("supa: GET %s: %w", path, err)
	}
	if err := checkStatus(resp, http.MethodGet, path); err != nil {
		return err
	}
	body := bytes.TrimSpace(resp.Body())
	if len(body) == 0 || body[0] != '[' {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("supa: decode %s: %w", table, err)
	}
	return nil
}

// Create inserts a row. dest may be nil.
func (c *Client) Create(ctx context.Context, table string, body, dest any) error {
	return c.send(ctx, http.MethodPost, "/supa/create/"+url.PathEscape(table), body, dest)
}

// Update replaces the row id of table. The worker exposes updates as POST.
func (c *Client) Update(ctx context.Context, table, id string, body, dest any) error {
	return c.send(ctx, http.MethodPost, "/supa/update/"+url.PathEscape(table)+"/"+url.PathEscape(id), body, dest)
}

// Patch applies a partial update to the rows selected by query, which is
// appended verbatim (for example "?id=eq.42").
func (c *Client) Patch(ctx context.Context, table, query string, body, dest any) error {
	return c.send(ctx, http.MethodPatch, "/supa/patch/"+url.PathEscape(table)+query, body, dest)
}

// Delete removes the row id of table.
func (c *Client) Delete(ctx context.Context, table, id string) error {
	return c.send(ctx, http.MethodDelete, "/supa/delete/"+url.PathEscape(table)+"/"+url.PathEscape(id), nil, nil)
}

func (c *Client) send(ctx context.Context, method, path string, body, dest any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	} else if method != http.MethodDelete {
		req.SetBody(map[string]any{})
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("supa: %s %s: %w", method, path, err)
	}
	if err := checkStatus(resp, method, path); err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	payload := bytes.TrimSpace(resp.Body())
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("supa: decode %s %s: %w", method, path, err)
	}
	return nil
}

func checkStatus(resp *resty.Response, method, path string) error {
	if resp.IsError() || resp.StatusCode() >= http.StatusMultipleChoices {
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode()}
	}
	return nil
}
