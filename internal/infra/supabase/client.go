// Package supabase is the production backend adapter: PostgREST tables and RPC
// functions, GoTrue auth and Storage, all over plain HTTPS.
package supabase

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

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/observability"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

// Client wraps HTTP calls to the Supabase REST, Auth and Storage APIs.
// Table and storage calls use the service role key: the BFA enforces
// authorization itself before reaching the backend.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	cfg            resilience.Config
	metrics        *observability.Metrics
	logger         *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithMetrics counts failed backend calls.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a Supabase client.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		cfg:            cfg,
		logger:         logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// APIError is a non-2xx answer from Supabase. Message is the backend's own text.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// clientError reports whether err is a 4xx answer; retrying those cannot help.
func clientError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500
}

// request is one HTTP call to Supabase.
type request struct {
	method      string
	path        string // relative to baseURL, e.g. "/rest/v1/profiles"
	query       url.Values
	body        any       // JSON encoded when set
	raw         io.Reader // sent as is when set
	contentType string
	prefer      string
	bearer      string // defaults to the service role key
	headers     map[string]string
}

// do executes req and returns the response body of a 2xx answer.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader = req.raw
	contentType := req.contentType
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", req.path, err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		c.logger.Error("supabase: failed to create request",
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.Error(err),
		)
		return nil, err
	}

	bearer := req.bearer
	if bearer == "" {
		bearer = c.serviceRoleKey
	}
	httpReq.Header.Set("apikey", c.apiKey)
	httpReq.Header.Set("Authorization", "Bearer "+bearer)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.prefer != "" {
		httpReq.Header.Set("Prefer", req.prefer)
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.Error(err),
		)
		c.countError(req.path)
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("supabase: failed to read response body",
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		c.countError(req.path)
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, respBody)}
	}

	c.logger.Debug("supabase: request OK",
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.Int("status", resp.StatusCode),
	)
	return respBody, nil
}

func (c *Client) countError(path string) {
	if c.metrics != nil {
		c.metrics.IncrBackendError(serviceName(path))
	}
}

// serviceName turns "/rest/v1/profiles" into "supabase/profiles".
func serviceName(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(parts) >= 3 && parts[0] == "rest" && parts[2] == "rpc" && len(parts) >= 4:
		return "supabase/rpc/" + parts[3]
	case len(parts) >= 3 && parts[0] == "rest":
		return "supabase/" + parts[2]
	case len(parts) >= 1 && parts[0] == "auth":
		return "supabase/auth"
	case len(parts) >= 1 && parts[0] == "storage":
		return "supabase/storage"
	}
	return "supabase"
}

// errorMessage extracts the human-readable text from the error bodies of
// PostgREST ("message"), GoTrue ("msg", "error_description") and Storage ("message", "error").
func errorMessage(status int, body []byte) string {
	var e struct {
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil {
		for _, m := range []string{e.Message, e.Msg, e.ErrorDescription, e.Error} {
			if m != "" {
				return m
			}
		}
	}
	if len(body) > 0 {
		return string(body)
	}
	return fmt.Sprintf("supabase returned status %d", status)
}

// ============================================================
// PostgREST helpers
// ============================================================

func restPath(table string) string {
	return "/rest/v1/" + table
}

// selectRows reads rows of table into out. Reads go through the circuit breaker
// and are retried; 4xx answers are not.
func (c *Client) selectRows(ctx context.Context, table string, q url.Values, out any) error {
	err := resilience.Execute(ctx, c.cb, c.cfg, func() error {
		body, err := c.do(ctx, request{method: http.MethodGet, path: restPath(table), query: q})
		if err != nil {
			if clientError(err) {
				return resilience.Permanent(err)
			}
			return err
		}
		if err := json.Unmarshal(body, out); err != nil {
			return resilience.Permanent(fmt.Errorf("decode %s: %w", table, err))
		}
		return nil
	})
	return wrapErr(table, err)
}

// insertRow inserts one record and decodes the stored row into out.
func (c *Client) insertRow(ctx context.Context, table string, record map[string]any, out any) error {
	body, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   restPath(table),
		body:   record,
		prefer: "return=representation",
	})
	if err != nil {
		return wrapErr(table, err)
	}
	return decodeFirst(table, body, out)
}

// updateRows patches the rows matching q. When out is non-nil the first updated
// row is decoded into it; zero matching rows is ErrNotFound.
func (c *Client) updateRows(ctx context.Context, table string, q url.Values, patch map[string]any, out any) error {
	body, err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   restPath(table),
		query:  q,
		body:   patch,
		prefer: "return=representation",
	})
	if err != nil {
		return wrapErr(table, err)
	}
	if out == nil {
		var rows []json.RawMessage
		if err := json.Unmarshal(body, &rows); err == nil && len(rows) == 0 {
			return &domain.ErrNotFound{Resource: table, ID: q.Get("id")}
		}
		return nil
	}
	return decodeFirst(table, body, out)
}

// deleteRows deletes the rows matching q. Deleting nothing is not an error.
func (c *Client) deleteRows(ctx context.Context, table string, q url.Values) error {
	_, err := c.do(ctx, request{
		method: http.MethodDelete,
		path:   restPath(table),
		query:  q,
		prefer: "return=minimal",
	})
	return wrapErr(table, err)
}

// rpc calls a Postgres function exposed by PostgREST. out may be nil for void functions.
func (c *Client) rpc(ctx context.Context, fn string, args map[string]any, out any) error {
	if args == nil {
		args = map[string]any{}
	}
	body, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   restPath("rpc/" + fn),
		body:   args,
	})
	if err != nil {
		return wrapErr("rpc/"+fn, err)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode rpc/%s: %w", fn, err)
	}
	return nil
}

func decodeFirst(table string, body []byte, out any) error {
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return fmt.Errorf("decode %s: %w", table, err)
	}
	if len(rows) == 0 {
		return &domain.ErrNotFound{Resource: table}
	}
	if err := json.Unmarshal(rows[0], out); err != nil {
		return fmt.Errorf("decode %s: %w", table, err)
	}
	return nil
}

// wrapErr tags backend failures with the table they came from. Domain errors
// (circuit open, not found) pass through.
func wrapErr(table string, err error) error {
	if err == nil {
		return nil
	}
	var open *domain.ErrCircuitOpen
	var notFound *domain.ErrNotFound
	if errors.As(err, &open) || errors.As(err, &notFound) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.ErrTimeout{Operation: "supabase/" + table}
	}
	return &domain.ErrExternalService{Service: "supabase/" + table, Err: err}
}

// eq builds a PostgREST equality filter.
func eq(v string) string {
	return "eq." + v
}

// in builds a PostgREST membership filter. Values are quoted so commas inside
// them cannot split the list.
func in(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	}
	return "in.(" + strings.Join(quoted, ",") + ")"
}

// nameJoin decodes an embedded profiles(full_name) resource.
type nameJoin struct {
	FullName string `json:"full_name"`
}

func (n *nameJoin) name() string {
	if n == nil {
		return ""
	}
	return n.FullName
}

// Ping checks that GoTrue answers; used by /healthz.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, request{method: http.MethodGet, path: "/auth/v1/health", bearer: c.apiKey})
	return err
}
