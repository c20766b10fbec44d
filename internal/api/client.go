package api

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

	"github.com/savoria-app/storefront-client/pkg/config"
	pkgerrors "github.com/savoria-app/storefront-client/pkg/errors"
	"github.com/savoria-app/storefront-client/pkg/logger"
	"github.com/savoria-app/storefront-client/pkg/metrics"
	"github.com/savoria-app/storefront-client/pkg/types"
)

const maxResponseBytes = 4 << 20

// Client is the single request pipeline every domain service goes through.
// It attaches the bearer token, unwraps the uniform response envelope, and
// clears the token store on any 401.
type Client struct {
	base    *url.URL
	http    *http.Client
	tokens  *TokenStore
	logg    *logger.Logger
	metrics *metrics.RequestMetrics
}

// Params bundles the dependencies required to build a client.
type Params struct {
	Config     config.APIConfig
	Tokens     *TokenStore
	Logger     *logger.Logger
	Metrics    *metrics.RequestMetrics
	HTTPClient *http.Client
}

// NewClient constructs the request pipeline.
func NewClient(params Params) (*Client, error) {
	if params.Tokens == nil {
		return nil, fmt.Errorf("token store is required")
	}
	base, err := url.Parse(params.Config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}

	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: params.Config.RequestTimeout}
	}

	return &Client{
		base:    base,
		http:    httpClient,
		tokens:  params.Tokens,
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

// Tokens exposes the token store bound to this pipeline.
func (c *Client) Tokens() *TokenStore {
	return c.tokens
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	endpoint := endpointLabel(path)

	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding request body")
		}
		payload = bytes.NewReader(encoded)
	}

	pathOnly, query, _ := strings.Cut(path, "?")
	target := c.base.JoinPath(pathOnly)
	target.RawQuery = query
	req, err := http.NewRequestWithContext(ctx, method, target.String(), payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Current(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.ObserveDuration(endpoint, time.Since(start))
	if err != nil {
		c.metrics.IncFailure(endpoint, string(pkgerrors.CodeNetwork))
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.metrics.IncFailure(endpoint, string(pkgerrors.CodeNetwork))
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "reading response")
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// Global policy: a 401 from any endpoint invalidates the stored
		// token. The session manager observes the cleared store lazily.
		c.tokens.Clear(ctx)
		if c.logg != nil {
			c.logg.Warn(c.logg.WithEndpoint(ctx, method, path), "token cleared after 401")
		}
		c.metrics.IncFailure(endpoint, string(pkgerrors.CodeUnauthorized))
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
	}

	var envelope types.Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		code := pkgerrors.CodeDecode
		if resp.StatusCode >= 400 {
			code = pkgerrors.CodeRejected
		}
		c.metrics.IncFailure(endpoint, string(code))
		return pkgerrors.Wrap(code, err, fmt.Sprintf("unexpected response (status %d)", resp.StatusCode))
	}

	if !envelope.Success {
		message := strings.TrimSpace(envelope.Message)
		if message == "" {
			message = "request rejected"
		}
		code := pkgerrors.CodeRejected
		if resp.StatusCode == http.StatusNotFound {
			code = pkgerrors.CodeNotFound
		}
		c.metrics.IncFailure(endpoint, string(code))
		return pkgerrors.New(code, message)
	}

	if out != nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			c.metrics.IncFailure(endpoint, string(pkgerrors.CodeDecode))
			return pkgerrors.Wrap(pkgerrors.CodeDecode, err, "decoding response data")
		}
	}

	c.metrics.IncSuccess(endpoint)
	return nil
}

func endpointLabel(path string) string {
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		path = path[:idx]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}
