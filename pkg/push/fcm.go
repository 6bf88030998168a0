package push

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/durent/durent-backend/pkg/config"
	pkgerrors "github.com/durent/durent-backend/pkg/errors"
	"google.golang.org/api/option"
)

type fcmSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMClient delivers through Firebase Cloud Messaging using native device
// tokens.
type FCMClient struct {
	sender fcmSender
}

func NewFCMClient(ctx context.Context, cfg config.PushConfig) (*FCMClient, error) {
	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(cfg.FirebaseCredsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.FirebaseCredsJSON)))
	case strings.TrimSpace(cfg.FirebaseCredentials) != "":
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentials))
	default:
		return nil, fmt.Errorf("firebase credentials are required")
	}

	var fbCfg *firebase.Config
	if cfg.FirebaseProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}

	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase messaging: %w", err)
	}
	return &FCMClient{sender: client}, nil
}

func (c *FCMClient) Provider() string { return "fcm" }

// ValidToken rejects empty tokens, whitespace and Expo-wrapped tokens, which
// FCM cannot route.
func (c *FCMClient) ValidToken(token string) bool {
	if token == "" || strings.ContainsAny(token, " \t\n") {
		return false
	}
	return !IsExpoPushToken(token)
}

func (c *FCMClient) Send(ctx context.Context, msg Message) (Ticket, error) {
	if c == nil || c.sender == nil {
		return Ticket{}, pkgerrors.New(pkgerrors.CodeDependency, "fcm client not configured")
	}
	if !c.ValidToken(msg.To) {
		return Ticket{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid fcm registration token")
	}

	data, err := stringifyData(msg.Data)
	if err != nil {
		return Ticket{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "encode fcm data")
	}

	id, err := c.sender.Send(ctx, &messaging.Message{
		Token: msg.To,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	})
	if err != nil {
		if messaging.IsUnregistered(err) || messaging.IsInvalidArgument(err) {
			return Ticket{Status: TicketStatusError, Message: err.Error(), Reason: "DeviceNotRegistered"}, nil
		}
		return Ticket{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fcm send failed")
	}
	return Ticket{Status: TicketStatusOK, ID: id}, nil
}

// FCM data payloads only carry strings.
func stringifyData(data map[string]any) (map[string]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(data))
	for key, value := range data {
		switch v := value.(type) {
		case string:
			out[key] = v
		case fmt.Stringer:
			out[key] = v.String()
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", key, err)
			}
			out[key] = string(encoded)
		}
	}
	return out, nil
}
