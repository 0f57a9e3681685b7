package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/eeeflix-contacts/internal/dto"
	"github.com/noah-isme/eeeflix-contacts/internal/middleware"
	"github.com/noah-isme/eeeflix-contacts/internal/models"
	"github.com/noah-isme/eeeflix-contacts/pkg/response"
)

const (
	updatePath = "/api/updateContacts"
	loginPath  = "/api/auth/login"

	defaultTimeout = 10 * time.Second
	maxErrorBody   = 64 << 10
)

// APIError is a non-2xx answer of the contacts API.
type APIError struct {
	Status  int
	Err     string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err, e.Message)
	}
	return e.Err
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Options configures Client.
type Options struct {
	BaseURL string
	// StorePath is the URL path of the raw store file.
	StorePath  string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to the contacts API. Every call is bounded by the configured timeout.
type Client struct {
	baseURL   string
	storePath string
	apiKey    string
	http      *http.Client
	logger    *zap.Logger

	mu    sync.RWMutex
	token string
}

// New constructs a Client.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	storePath := opts.StorePath
	if storePath != "" && !strings.HasPrefix(storePath, "/") {
		storePath = "/" + storePath
	}
	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		storePath: storePath,
		apiKey:    opts.APIKey,
		http:      httpClient,
		logger:    opts.Logger,
	}
}

// SetToken makes later requests carry a Bearer token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// FetchContacts downloads the raw store file and returns its records and ETag.
func (c *Client) FetchContacts(ctx context.Context) ([]models.Contact, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.storePath, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build fetch request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch contacts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", decodeError(resp)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read contacts: %w", err)
	}
	contacts, err := models.UnmarshalContacts(raw)
	if err != nil {
		return nil, "", fmt.Errorf("parse contacts: %w", err)
	}
	return contacts, resp.Header.Get("ETag"), nil
}

// UpdateContact replaces one student's phone and facebook link.
func (c *Client) UpdateContact(ctx context.Context, studentID int, contactNo, fbLink string) (string, error) {
	return c.update(ctx, dto.UpdateContactsRequest{StudentID: studentID, ContactNo: contactNo, FBLink: fbLink})
}

// UpdateAll replaces the whole store with contacts.
func (c *Client) UpdateAll(ctx context.Context, contacts []models.Contact) (string, error) {
	if contacts == nil {
		contacts = []models.Contact{}
	}
	return c.update(ctx, dto.UpdateContactsRequest{UpdateAll: true, AllStudents: contacts})
}

// Login exchanges administrator credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	payload, err := json.Marshal(models.LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	resp, err := c.post(ctx, loginPath, payload)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	var envelope struct {
		Data models.LoginResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	c.SetToken(envelope.Data.AccessToken)
	return &envelope.Data, nil
}

func (c *Client) update(ctx context.Context, body dto.UpdateContactsRequest) (string, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(body); err != nil {
		return "", fmt.Errorf("encode update: %w", err)
	}
	resp, err := c.post(ctx, updatePath, buf.Bytes())
	if err != nil {
		c.logger.Warn("contact update request failed", zap.Error(err))
		return "", fmt.Errorf("update contacts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := decodeError(resp)
		c.logger.Warn("contact update rejected", zap.Int("status", resp.StatusCode), zap.Error(apiErr))
		return "", apiErr
	}
	var outcome response.Outcome
	if err := json.NewDecoder(resp.Body).Decode(&outcome); err != nil {
		return "", fmt.Errorf("decode update response: %w", err)
	}
	return outcome.Message, nil
}

func (c *Client) post(ctx context.Context, path string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set(middleware.APIKeyHeader, c.apiKey)
	}
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.http.Do(req)
}

// decodeError reads either the {"error","message"} body of the update endpoint
// or the envelope of the other routes.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Err: http.StatusText(resp.StatusCode)}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return apiErr
	}

	var failure response.Failure
	if json.Unmarshal(raw, &failure) == nil && failure.Error != "" {
		apiErr.Err = failure.Error
		apiErr.Message = failure.Message
		return apiErr
	}
	var envelope struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error != nil && envelope.Error.Message != "" {
		apiErr.Err = envelope.Error.Message
	}
	return apiErr
}
