// Package client is a small HTTP client for the admin API, used by sakilactl.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"

	"github.com/iliyamo/sakila-admin/internal/paging"
	"github.com/iliyamo/sakila-admin/internal/repository"
	"github.com/iliyamo/sakila-admin/internal/view"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status    int    `json:"-"`
	Code      string `json:"error"`
	State     string `json:"state"`
	Table     string `json:"table"`
	Retryable bool   `json:"retryable"`
}

func (e *APIError) Error() string {
	msg := e.Code
	if e.State != "" {
		msg += " [" + e.State + "]"
	}
	if e.Table != "" {
		msg += " (table " + e.Table + ")"
	}
	return fmt.Sprintf("%d %s", e.Status, msg)
}

// IsTableNotFound reports whether err is a table_not_found answer.
func IsTableNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.State == string(repository.KindTableNotFound)
}

// Client talks to one server with one bearer token.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
	// Retries bounds retry attempts for answers marked retryable.
	Retries uint64
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Retries: 2,
	}
}

// do sends one request and decodes a 2xx body into out.  Retryable server
// answers are retried with exponential backoff.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.doWith(ctx, method, path, query, nil, body, out)
}

func (c *Client) doWith(ctx context.Context, method, path string, query url.Values, hdr http.Header, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		for k, vs := range hdr {
			req.Header[k] = vs
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.Token)
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
		if resp.StatusCode >= 300 {
			ae := &APIError{Status: resp.StatusCode}
			if json.Unmarshal(raw, ae) != nil || ae.Code == "" {
				ae.Code = http.StatusText(resp.StatusCode)
			}
			if ae.Retryable || resp.StatusCode == http.StatusServiceUnavailable {
				return ae
			}
			return backoff.Permanent(ae)
		}
		if out == nil || len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode %s: %w", path, err))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 300 * time.Millisecond
	b.MaxElapsedTime = 10 * time.Second
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, c.Retries), ctx))
}

// Tokens is the login answer.
type Tokens struct {
	User struct {
		ID    uint64 `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
	Access struct {
		Token   string    `json:"token"`
		Expires time.Time `json:"expires"`
	} `json:"access"`
	Refresh struct {
		Token   string    `json:"token"`
		Expires time.Time `json:"expires"`
	} `json:"refresh"`
}

// Login exchanges credentials for tokens.  It does not modify c.Token.
func (c *Client) Login(ctx context.Context, email, password string) (Tokens, error) {
	var t Tokens
	err := c.do(ctx, http.MethodPost, "/v1/auth/login", nil, map[string]string{"email": email, "password": password}, &t)
	return t, err
}

// ListOptions are the query parameters of a list view request.
type ListOptions struct {
	Page      int
	PageSize  int
	Search    string
	OrderBy   string
	Ascending bool
	Filters   map[string]string
	// Fresh asks the server to bypass its response cache.
	Fresh bool
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(o.PageSize))
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.OrderBy != "" {
		q.Set("order", o.OrderBy)
		if o.Ascending {
			q.Set("dir", "asc")
		} else {
			q.Set("dir", "desc")
		}
	}
	for k, v := range o.Filters {
		q.Set("filter."+k, v)
	}
	return q
}

// ListPage is one page of a list view.
type ListPage struct {
	State      string           `json:"state"`
	View       string           `json:"view"`
	Rows       []repository.Row `json:"rows"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	HasMore    bool             `json:"has_more"`
	TotalPages int              `json:"total_pages"`
	Columns    []string         `json:"columns"`
	Actions    view.Actions     `json:"actions"`
}

func (c *Client) List(ctx context.Context, viewName string, opts ListOptions) (ListPage, error) {
	var hdr http.Header
	if opts.Fresh {
		hdr = http.Header{"Cache-Control": {"no-cache"}}
	}
	var p ListPage
	err := c.doWith(ctx, http.MethodGet, "/v1/admin/views/"+url.PathEscape(viewName), opts.values(), hdr, nil, &p)
	return p, err
}

// OptionsFrom maps a pager query onto list options.
func OptionsFrom(q paging.Query) ListOptions {
	return ListOptions{
		Page:      q.Page,
		PageSize:  q.PageSize,
		Search:    q.Filter,
		OrderBy:   q.OrderBy,
		Ascending: q.Ascending,
		Fresh:     q.Fresh,
	}
}

// Loader adapts List to a paging.Loader over the view named by q.Table.
// columns receives the view's column list from each successful page.
func (c *Client) Loader(columns *[]string) paging.Loader[repository.Row] {
	return func(ctx context.Context, q paging.Query) (paging.Result[repository.Row], error) {
		p, err := c.List(ctx, q.Table, OptionsFrom(q))
		if err != nil {
			return paging.Result[repository.Row]{}, err
		}
		if columns != nil {
			*columns = p.Columns
		}
		return paging.Result[repository.Row]{Rows: p.Rows, Total: p.Total}, nil
	}
}

// Dashboard returns the raw dashboard document.
func (c *Client) Dashboard(ctx context.Context) (map[string]any, error) {
	var m map[string]any
	err := c.do(ctx, http.MethodGet, "/v1/admin/dashboard", nil, nil, &m)
	return m, err
}

// Analytics returns the raw analytics report.
func (c *Client) Analytics(ctx context.Context) (map[string]any, error) {
	var m map[string]any
	err := c.do(ctx, http.MethodGet, "/v1/admin/analytics", nil, nil, &m)
	return m, err
}

// Tables lists base tables, or describes one table when name is set.
func (c *Client) Tables(ctx context.Context, name string) (map[string]any, error) {
	path := "/v1/admin/schema/tables"
	if name != "" {
		path += "/" + url.PathEscape(name)
	}
	var m map[string]any
	err := c.do(ctx, http.MethodGet, path, nil, nil, &m)
	return m, err
}
