package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	pkgerrors "github.com/durent/durent-backend/pkg/errors"
)

const (
	defaultExpoBaseURL          = "https://exp.host"
	expoSendPath                = "/--/api/v2/push/send"
	responseBodyReadLimit int64 = 1024
)

var expoUUIDToken = regexp.MustCompile(`(?i)^[a-z\d]{8}-[a-z\d]{4}-[a-z\d]{4}-[a-z\d]{4}-[a-z\d]{12}$`)

// IsExpoPushToken mirrors the format check of the Expo server SDKs.
func IsExpoPushToken(token string) bool {
	if (strings.HasPrefix(token, "ExponentPushToken[") || strings.HasPrefix(token, "ExpoPushToken[")) &&
		strings.HasSuffix(token, "]") {
		return true
	}
	return expoUUIDToken.MatchString(token)
}

// ExpoClient talks to the Expo push service.
type ExpoClient struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
}

// Option configures optional client behavior.
type Option func(*ExpoClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *ExpoClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the Expo host.
func WithBaseURL(baseURL string) Option {
	return func(c *ExpoClient) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithAccessToken enables Expo enhanced push security.
func WithAccessToken(token string) Option {
	return func(c *ExpoClient) {
		c.accessToken = strings.TrimSpace(token)
	}
}

func NewExpoClient(opts ...Option) *ExpoClient {
	client := &ExpoClient{
		baseURL:    defaultExpoBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient.Timeout == 0 {
		client.httpClient.Timeout = 10 * time.Second
	}
	return client
}

func (c *ExpoClient) Provider() string { return "expo" }

func (c *ExpoClient) ValidToken(token string) bool {
	return IsExpoPushToken(token)
}

type expoMessage struct {
	To    string         `json:"to"`
	Title string         `json:"title,omitempty"`
	Body  string         `json:"body,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
	Sound string         `json:"sound,omitempty"`
}

type expoTicket struct {
	Status  string `json:"status"`
	ID      string `json:"id"`
	Message string `json:"message"`
	Details struct {
		Error string `json:"error"`
	} `json:"details"`
}

type expoResponse struct {
	Data   []expoTicket `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Send posts one message and returns its ticket.
func (c *ExpoClient) Send(ctx context.Context, msg Message) (Ticket, error) {
	if c == nil {
		return Ticket{}, pkgerrors.New(pkgerrors.CodeDependency, "expo client not configured")
	}
	if !IsExpoPushToken(msg.To) {
		return Ticket{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid expo push token")
	}

	payload, err := json.Marshal([]expoMessage{{
		To:    msg.To,
		Title: msg.Title,
		Body:  msg.Body,
		Data:  msg.Data,
		Sound: "default",
	}})
	if err != nil {
		return Ticket{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal expo message")
	}

	url := strings.TrimRight(c.baseURL, "/") + expoSendPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Ticket{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build expo request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Ticket{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute expo request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return Ticket{}, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), "expo push request failed")
	}

	var decoded expoResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Ticket{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode expo response")
	}
	if len(decoded.Errors) > 0 {
		first := decoded.Errors[0]
		return Ticket{}, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("expo error %s: %s", first.Code, first.Message))
	}
	if len(decoded.Data) == 0 {
		return Ticket{}, pkgerrors.New(pkgerrors.CodeDependency, "expo response missing ticket")
	}

	raw := decoded.Data[0]
	ticket := Ticket{
		Status:  TicketStatus(raw.Status),
		ID:      raw.ID,
		Message: raw.Message,
		Reason:  raw.Details.Error,
	}
	if ticket.Status != TicketStatusOK {
		ticket.Status = TicketStatusError
	}
	return ticket, nil
}
