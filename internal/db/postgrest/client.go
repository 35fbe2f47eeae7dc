// Package postgrest talks to a Supabase-compatible PostgREST endpoint.
package postgrest

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

	"github.com/kailas-cloud/corpusdex/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// codeFunctionNotFound is returned by PostgREST when the RPC target does not exist.
const codeFunctionNotFound = "PGRST202"

const defaultPageSize = 1000

// Config holds endpoint and naming parameters.
type Config struct {
	URL      string
	Key      string
	Table    string
	Function string
	PageSize int
	Timeout  time.Duration
}

// Store implements db.Store over the PostgREST HTTP API.
type Store struct {
	base     string
	key      string
	table    string
	function string
	pageSize int
	http     *http.Client
}

// APIError is a non-2xx PostgREST response.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("postgrest %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("postgrest %d: %s", e.Status, e.Message)
}

// NewStore validates the endpoint and returns a store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("url is required")
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("key is required")
	}
	s := &Store{
		base:     strings.TrimRight(cfg.URL, "/") + "/rest/v1",
		key:      cfg.Key,
		table:    cfg.Table,
		function: cfg.Function,
		pageSize: cfg.PageSize,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
	if s.table == "" {
		s.table = "documents"
	}
	if s.function == "" {
		s.function = "match_documents"
	}
	if s.pageSize <= 0 {
		s.pageSize = defaultPageSize
	}
	return s, nil
}

// Ping requests the OpenAPI root.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.call(ctx, http.MethodGet, "/", nil, nil, nil); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases idle connections.
func (s *Store) Close() {
	s.http.CloseIdleConnections()
}

// WaitForReady polls Ping until the endpoint responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return db.WaitForReady(ctx, s, timeout)
}

// call sends one request. body is JSON-encoded when non-nil; out is decoded when non-nil.
func (s *Store) call(
	ctx context.Context, method, path string, header http.Header, body, out any,
) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.base+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	if apiErr.Code == codeFunctionNotFound || (resp.StatusCode == http.StatusNotFound && isRPC(resp.Request)) {
		return fmt.Errorf("%w: %w", db.ErrOperatorNotFound, apiErr)
	}
	return apiErr
}

func isRPC(req *http.Request) bool {
	return req != nil && req.URL != nil && strings.Contains(req.URL.Path, "/rpc/")
}
