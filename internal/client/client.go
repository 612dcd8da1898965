package client

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

	"github.com/TimurManjosov/segmentfilter/internal/choice"
	"github.com/TimurManjosov/segmentfilter/internal/segment"
	"github.com/TimurManjosov/segmentfilter/internal/store"
	"github.com/TimurManjosov/segmentfilter/internal/widget"
)

// Client is an HTTP client for the segment filter API
type Client struct {
	BaseURL    string
	APIKey     string
	Locale     string
	HTTPClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("API error (status %d, %s): %s", e.Status, e.Code, e.Message)
}

// OperatorLabel is an operator with its display label.
type OperatorLabel struct {
	Operator   string `json:"operator"`
	Label      string `json:"label"`
	Expr       string `json:"expr,omitempty"`
	NegateExpr string `json:"negateExpr,omitempty"`
}

// ChoiceFields names the field types and aliases that carry choices.
type ChoiceFields struct {
	Types   []string `json:"types"`
	Aliases []string `json:"aliases"`
}

// ScheduledExport is the result of scheduling an export.
type ScheduledExport struct {
	Export  store.ExportScheduler `json:"export"`
	Warning string                `json:"warning,omitempty"`
}

// FieldTypes lists every field type with operators.
func (c *Client) FieldTypes(ctx context.Context) ([]string, error) {
	var result struct {
		FieldTypes []string `json:"fieldTypes"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/field-types", nil, nil, &result); err != nil {
		return nil, err
	}
	return result.FieldTypes, nil
}

// Operators lists the operators of fieldType.
func (c *Client) Operators(ctx context.Context, fieldType string) ([]OperatorLabel, error) {
	var result struct {
		Operators []OperatorLabel `json:"operators"`
	}
	path := "/v1/field-types/" + url.PathEscape(fieldType) + "/operators"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &result); err != nil {
		return nil, err
	}
	return result.Operators, nil
}

// ChoiceFields lists the field types and aliases with choices for userID.
func (c *Client) ChoiceFields(ctx context.Context, userID int64) (*ChoiceFields, error) {
	q := url.Values{}
	if userID > 0 {
		q.Set("user", strconv.FormatInt(userID, 10))
	}
	var result ChoiceFields
	if err := c.do(ctx, http.MethodGet, "/v1/choice-fields", q, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Choices fetches the choices of a field type or alias as seen by userID.
func (c *Client) Choices(ctx context.Context, fieldType, alias string, userID int64) (choice.Set, error) {
	q := url.Values{}
	if fieldType != "" {
		q.Set("type", fieldType)
	}
	if alias != "" {
		q.Set("alias", alias)
	}
	if userID > 0 {
		q.Set("user", strconv.FormatInt(userID, 10))
	}
	var result struct {
		Choices choice.Set `json:"choices"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/choices", q, nil, &result); err != nil {
		return nil, err
	}
	return result.Choices, nil
}

// FilterControl asks the server which control renders req.
func (c *Client) FilterControl(ctx context.Context, req segment.FilterRequest) (*widget.Control, error) {
	var ctrl widget.Control
	if err := c.do(ctx, http.MethodPost, "/v1/filters/control", nil, req, &ctrl); err != nil {
		return nil, err
	}
	return &ctrl, nil
}

// ScheduleExport queues a contact export for userID. Requires the admin key.
func (c *Client) ScheduleExport(ctx context.Context, userID int64, filters map[string]any) (*ScheduledExport, error) {
	body := map[string]any{"userId": userID}
	if filters != nil {
		body["filters"] = filters
	}
	var result ScheduledExport
	if err := c.do(ctx, http.MethodPost, "/v1/exports", nil, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Notifications lists a user's notifications, newest first.
func (c *Client) Notifications(ctx context.Context, userID int64) ([]store.Notification, error) {
	var result struct {
		Notifications []store.Notification `json:"notifications"`
	}
	path := "/v1/users/" + strconv.FormatInt(userID, 10) + "/notifications"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &result); err != nil {
		return nil, err
	}
	return result.Notifications, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	if c.Locale != "" {
		req.Header.Set("Accept-Language", c.Locale)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(bodyBytes, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = string(bodyBytes)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
