package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/durent/durent-backend/pkg/db"
	"github.com/durent/durent-backend/pkg/db/models"
	"github.com/durent/durent-backend/pkg/enums"
	"github.com/durent/durent-backend/pkg/logger"
	"github.com/durent/durent-backend/pkg/metrics"
	"github.com/durent/durent-backend/pkg/push"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// clearSentAtTimeout bounds the sent_at revert, which runs detached from the
// caller's cancellation.
const clearSentAtTimeout = 5 * time.Second

// DispatcherParams wires the dispatcher dependencies.
type DispatcherParams struct {
	Repo    Repository
	Gateway push.Gateway
	Logger  *logger.Logger
	Metrics *metrics.NotificationMetrics
}

// Dispatcher creates notification rows and pushes them to the recipient's
// device, honouring their notification settings.
type Dispatcher struct {
	repo    Repository
	gateway push.Gateway
	logg    *logger.Logger
	metrics *metrics.NotificationMetrics
	now     func() time.Time
}

func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("push gateway required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Dispatcher{
		repo:    params.Repo,
		gateway: params.Gateway,
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

// Outcome is the result of one dispatch attempt.
type Outcome string

const (
	OutcomeSent       Outcome = metrics.OutcomeSent
	OutcomeFailed     Outcome = metrics.OutcomeFailed
	OutcomeSuppressed Outcome = metrics.OutcomeSuppressed
	OutcomeIneligible Outcome = metrics.OutcomeIneligible
	OutcomeError      Outcome = metrics.OutcomeError
)

// Settled reports whether retrying could not change anything: either a row
// exists for the recipient or they cannot receive this notification at all.
// Only OutcomeError (lookup or persist failure) is worth retrying.
func (o Outcome) Settled() bool {
	return o != OutcomeError
}

// Dispatch sends a typed payload; see CreateAndSend.
func (d *Dispatcher) Dispatch(ctx context.Context, userID uuid.UUID, title, body string, payload Payload) bool {
	return d.Deliver(ctx, userID, title, body, payload) == OutcomeSent
}

// Deliver is Dispatch with the full outcome.
func (d *Dispatcher) Deliver(ctx context.Context, userID uuid.UUID, title, body string, payload Payload) Outcome {
	return d.createAndSend(ctx, userID, payload.Type(), title, body, payload.Fields())
}

// CreateAndSend persists a notification for userID and pushes it. It returns
// true only when the row was stored and the gateway accepted the message.
// Ineligible recipients (unknown user, no push token, category disabled)
// produce no row. Failed deliveries keep the row with a nil SentAt.
func (d *Dispatcher) CreateAndSend(ctx context.Context, userID uuid.UUID, notificationType enums.NotificationType, title, body string, data map[string]any) bool {
	return d.createAndSend(ctx, userID, notificationType, title, body, data) == OutcomeSent
}

func (d *Dispatcher) createAndSend(ctx context.Context, userID uuid.UUID, notificationType enums.NotificationType, title, body string, data map[string]any) Outcome {
	ctx = d.logg.WithFields(ctx, map[string]any{
		"user_id":           userID.String(),
		"notification_type": string(notificationType),
	})

	user, err := d.repo.FindRecipient(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			d.logg.Debug(ctx, "notification.dispatch.user_missing")
			return d.finish(notificationType, OutcomeIneligible)
		}
		d.logg.Error(ctx, "notification.dispatch.lookup_failed", err)
		return d.finish(notificationType, OutcomeError)
	}

	token := user.PushToken()
	if token == "" {
		d.logg.Debug(ctx, "notification.dispatch.no_token")
		return d.finish(notificationType, OutcomeIneligible)
	}

	if !Allowed(notificationType, user.NotificationSettings) {
		d.logg.Debug(ctx, "notification.dispatch.disabled_by_settings")
		return d.finish(notificationType, OutcomeSuppressed)
	}

	sentAt := d.now().UTC()
	notification := &models.Notification{
		UserID: userID,
		Type:   notificationType,
		Title:  title,
		Body:   body,
		Data:   datatypes.JSONMap(copyData(data)),
		SentAt: &sentAt,
	}
	if err := d.repo.Create(ctx, notification); err != nil {
		d.logg.Error(ctx, "notification.dispatch.persist_failed", err)
		return d.finish(notificationType, OutcomeError)
	}
	ctx = d.logg.WithField(ctx, "notification_id", notification.ID.String())

	if err := d.deliver(ctx, token, notification); err != nil {
		d.logg.Warn(d.logg.WithField(ctx, "reason", err.Error()), "notification.dispatch.push_failed")
		d.clearSentAt(ctx, notification.ID)
		return d.finish(notificationType, OutcomeFailed)
	}

	d.logg.Info(ctx, "notification.dispatch.sent")
	return d.finish(notificationType, OutcomeSent)
}

func (d *Dispatcher) finish(notificationType enums.NotificationType, outcome Outcome) Outcome {
	d.metrics.IncDispatch(string(notificationType), string(outcome))
	return outcome
}

// clearSentAt must land even when ctx was cancelled during the push,
// otherwise the row keeps a sent_at for a message that never went out.
func (d *Dispatcher) clearSentAt(ctx context.Context, notificationID uuid.UUID) {
	revertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), clearSentAtTimeout)
	defer cancel()
	if err := d.repo.ClearSentAt(revertCtx, notificationID); err != nil {
		d.logg.Error(ctx, "notification.dispatch.clear_sent_at_failed", err)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, token string, notification *models.Notification) error {
	if !d.gateway.ValidToken(token) {
		return fmt.Errorf("push token has invalid format")
	}

	data := copyData(notification.Data)
	data["notificationId"] = notification.ID.String()

	started := d.now()
	ticket, err := d.gateway.Send(ctx, push.Message{
		To:    token,
		Title: notification.Title,
		Body:  notification.Body,
		Data:  data,
	})
	d.metrics.ObservePush(d.gateway.Provider(), d.now().Sub(started).Seconds())
	if err != nil {
		return err
	}
	if !ticket.OK() {
		return fmt.Errorf("push rejected: %s %s", ticket.Reason, ticket.Message)
	}
	return nil
}

func copyData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	return out
}
