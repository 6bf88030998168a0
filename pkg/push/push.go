package push

import (
	"context"
	"fmt"
	"net/http"

	"github.com/durent/durent-backend/pkg/config"
)

// Message is a single push addressed to one device token.
type Message struct {
	To    string
	Title string
	Body  string
	Data  map[string]any
}

type TicketStatus string

const (
	TicketStatusOK    TicketStatus = "ok"
	TicketStatusError TicketStatus = "error"
)

// Ticket is the provider's per-message verdict.
type Ticket struct {
	Status  TicketStatus
	ID      string
	Message string
	Reason  string
}

// OK reports whether the provider accepted the message.
func (t Ticket) OK() bool {
	return t.Status == TicketStatusOK
}

// Gateway delivers push messages. Send returns an error for transport or
// provider-level failures and a Ticket for per-message outcomes.
type Gateway interface {
	Provider() string
	ValidToken(token string) bool
	Send(ctx context.Context, msg Message) (Ticket, error)
}

// New builds the gateway selected in config.
func New(ctx context.Context, cfg config.PushConfig) (Gateway, error) {
	switch cfg.NormalizedProvider() {
	case config.PushProviderExpo:
		return NewExpoClient(
			WithBaseURL(cfg.ExpoBaseURL),
			WithAccessToken(cfg.ExpoAccessToken),
			WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		), nil
	case config.PushProviderFCM:
		return NewFCMClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported push provider %q", cfg.Provider)
	}
}
