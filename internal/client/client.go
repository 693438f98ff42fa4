// Package client is a Go client for the car inventory REST API. Reads are
// cached and every successful write invalidates the affected entries.
package client

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

	"github.com/dgraph-io/ristretto/v2"
	"go.uber.org/zap"

	"car-inventory-api/internal/models"
)

const (
	// DefaultTimeout bounds each HTTP round trip.
	DefaultTimeout = 10 * time.Second
	// DefaultCacheTTL is how long a read result is served from the cache.
	DefaultCacheTTL = 30 * time.Second

	listCacheKey = "cars"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
	Field      string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsValidation reports whether err is a 400 from the API.
func IsValidation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
	cache      *ristretto.Cache[string, []models.Car]
	cacheTTL   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client. A nil client is ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout. The client passed to
// WithHTTPClient is copied, never modified.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithCacheTTL sets how long reads stay cached. Zero or less disables the
// cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.cacheTTL = ttl
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New returns a client for the API rooted at baseURL, e.g.
// "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, []models.Car]{
		NumCounters:        10_000,
		MaxCost:            1_000,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop(),
		cache:      cache,
		cacheTTL:   DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

// Close releases the cache.
func (c *Client) Close() {
	c.cache.Close()
}

func carCacheKey(id string) string {
	return "car:" + id
}

func (c *Client) ListCars(ctx context.Context) ([]models.Car, error) {
	if cars, ok := c.cache.Get(listCacheKey); ok {
		return cloneCars(cars), nil
	}

	var cars []models.Car
	if err := c.do(ctx, http.MethodGet, "/api/cars", nil, &cars); err != nil {
		return nil, err
	}
	if cars == nil {
		cars = []models.Car{}
	}

	c.store(listCacheKey, cars)
	return cloneCars(cars), nil
}

func (c *Client) GetCar(ctx context.Context, id string) (*models.Car, error) {
	key := carCacheKey(id)
	if cached, ok := c.cache.Get(key); ok && len(cached) == 1 {
		car := cached[0]
		return &car, nil
	}

	var car models.Car
	if err := c.do(ctx, http.MethodGet, carPath(id), nil, &car); err != nil {
		return nil, err
	}

	c.store(key, []models.Car{car})
	return &car, nil
}

func (c *Client) CreateCar(ctx context.Context, input models.CarInput) (*models.Car, error) {
	var car models.Car
	if err := c.do(ctx, http.MethodPost, "/api/cars", input, &car); err != nil {
		return nil, err
	}

	c.invalidate(listCacheKey)
	return &car, nil
}

// UpdateCar sends only the non-nil fields of patch.
func (c *Client) UpdateCar(ctx context.Context, id string, patch models.CarPatch) (*models.Car, error) {
	var car models.Car
	if err := c.do(ctx, http.MethodPut, carPath(id), patch, &car); err != nil {
		return nil, err
	}

	c.invalidate(listCacheKey, carCacheKey(id))
	return &car, nil
}

func (c *Client) DeleteCar(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, carPath(id), nil, nil); err != nil {
		return err
	}

	c.invalidate(listCacheKey, carCacheKey(id))
	return nil
}

func carPath(id string) string {
	return "/api/cars/" + url.PathEscape(id)
}

// store caches value for cacheTTL and waits for the write to land so a
// following invalidate cannot be overtaken by it.
func (c *Client) store(key string, cars []models.Car) {
	if c.cacheTTL <= 0 {
		return
	}
	c.cache.SetWithTTL(key, cloneCars(cars), 1, c.cacheTTL)
	c.cache.Wait()
}

func (c *Client) invalidate(keys ...string) {
	for _, key := range keys {
		c.cache.Del(key)
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("API response",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var payload struct {
		Error string `json:"error"`
		Field string `json:"field"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		apiErr.Message = payload.Error
		apiErr.Field = payload.Field
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func cloneCars(cars []models.Car) []models.Car {
	out := make([]models.Car, len(cars))
	copy(out, cars)
	return out
}
