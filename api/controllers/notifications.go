package controllers

import (
	"context"
	"math"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/durent/durent-backend/api/middleware"
	"github.com/durent/durent-backend/api/responses"
	"github.com/durent/durent-backend/api/validators"
	"github.com/durent/durent-backend/internal/notifications"
	pkgerrors "github.com/durent/durent-backend/pkg/errors"
	"github.com/durent/durent-backend/pkg/logger"
	"github.com/durent/durent-backend/pkg/pagination"
)

type successResponse struct {
	Success bool `json:"success"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

// TestPusher sends the literal diagnostic notification.
type TestPusher interface {
	SendTestPush(ctx context.Context, userID uuid.UUID) bool
}

// ListNotifications returns the caller's notifications, newest first.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireCaller(w, r, logg)
		if !ok {
			return
		}

		// oversized limits are capped by the service
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, math.MaxInt32)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.List(r.Context(), notifications.ListParams{
			UserID: userID,
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

func UnreadNotificationCount(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireCaller(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, countResponse{Count: svc.UnreadCount(r.Context(), userID)})
	}
}

// MarkNotificationRead flags a single notification as read. Already-read
// notifications report success.
func MarkNotificationRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireCaller(w, r, logg)
		if !ok {
			return
		}
		notificationID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, successResponse{Success: svc.MarkAsRead(r.Context(), userID, notificationID)})
	}
}

func MarkAllNotificationsRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireCaller(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, successResponse{Success: svc.MarkAllAsRead(r.Context(), userID)})
	}
}

func DeleteNotification(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireCaller(w, r, logg)
		if !ok {
			return
		}
		notificationID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, successResponse{Success: svc.Delete(r.Context(), userID, notificationID)})
	}
}

// GetNotificationSettings returns the caller's toggles, creating the defaults on first read.
func GetNotificationSettings(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireCaller(w, r, logg)
		if !ok {
			return
		}
		settings, err := svc.Settings(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settings)
	}
}

func UpdateNotificationSettings(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireCaller(w, r, logg)
		if !ok {
			return
		}
		var patch notifications.SettingsPatch
		if err := validators.DecodeJSONBody(r, &patch); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		settings, err := svc.UpdateSettings(r.Context(), userID, patch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settings)
	}
}

// SendTestNotification pushes the diagnostic notification to the caller.
func SendTestNotification(pusher TestPusher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireCaller(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, successResponse{Success: pusher.SendTestPush(r.Context(), userID)})
	}
}

func requireCaller(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, bool) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return uuid.Nil, false
	}
	return caller.UserID, true
}
