package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/durent/durent-backend/api/middleware"
	"github.com/durent/durent-backend/internal/notifications"
	"github.com/durent/durent-backend/pkg/db/models"
	"github.com/durent/durent-backend/pkg/enums"
	"github.com/durent/durent-backend/pkg/logger"
)

type testNotificationsService struct {
	listFn           func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error)
	unreadFn         func(ctx context.Context, userID uuid.UUID) int64
	markReadFn       func(ctx context.Context, userID, notificationID uuid.UUID) bool
	markAllReadFn    func(ctx context.Context, userID uuid.UUID) bool
	deleteFn         func(ctx context.Context, userID, notificationID uuid.UUID) bool
	settingsFn       func(ctx context.Context, userID uuid.UUID) (*models.NotificationSettings, error)
	updateSettingsFn func(ctx context.Context, userID uuid.UUID, patch notifications.SettingsPatch) (*models.NotificationSettings, error)
}

func (s *testNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &notifications.ListResult{Items: []models.Notification{}}, nil
}

func (s *testNotificationsService) UnreadCount(ctx context.Context, userID uuid.UUID) int64 {
	if s.unreadFn != nil {
		return s.unreadFn(ctx, userID)
	}
	return 0
}

func (s *testNotificationsService) MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) bool {
	if s.markReadFn != nil {
		return s.markReadFn(ctx, userID, notificationID)
	}
	return false
}

func (s *testNotificationsService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) bool {
	if s.markAllReadFn != nil {
		return s.markAllReadFn(ctx, userID)
	}
	return true
}

func (s *testNotificationsService) Delete(ctx context.Context, userID, notificationID uuid.UUID) bool {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, userID, notificationID)
	}
	return false
}

func (s *testNotificationsService) Settings(ctx context.Context, userID uuid.UUID) (*models.NotificationSettings, error) {
	if s.settingsFn != nil {
		return s.settingsFn(ctx, userID)
	}
	settings := models.DefaultNotificationSettings(userID)
	return &settings, nil
}

func (s *testNotificationsService) UpdateSettings(ctx context.Context, userID uuid.UUID, patch notifications.SettingsPatch) (*models.NotificationSettings, error) {
	if s.updateSettingsFn != nil {
		return s.updateSettingsFn(ctx, userID, patch)
	}
	return nil, nil
}

type testPusher struct {
	calls []uuid.UUID
	ok    bool
}

func (p *testPusher) SendTestPush(ctx context.Context, userID uuid.UUID) bool {
	p.calls = append(p.calls, userID)
	return p.ok
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func authedRequest(method, target, body string, userID uuid.UUID) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	return req.WithContext(middleware.WithCaller(req.Context(), middleware.Caller{UserID: userID, Role: enums.UserRoleTenant}))
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func decodeData(t *testing.T, body []byte, dest any) {
	t.Helper()
	envelope := struct {
		Data any `json:"data"`
	}{Data: dest}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
}

func decodeErrorCode(t *testing.T, body []byte) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	return envelope.Error.Code
}

func TestListNotificationsPassesParams(t *testing.T) {
	userID := uuid.New()
	var captured notifications.ListParams
	svc := &testNotificationsService{
		listFn: func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
			captured = params
			return &notifications.ListResult{
				Items:  []models.Notification{{ID: uuid.New(), UserID: userID, Title: "Rent due"}},
				Cursor: "next",
			}, nil
		},
	}

	req := authedRequest(http.MethodGet, "/api/notifications?limit=500&cursor=abc", "", userID)
	resp := httptest.NewRecorder()
	ListNotifications(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if captured.UserID != userID || captured.Limit != 500 || captured.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", captured)
	}

	var data notifications.ListResult
	decodeData(t, resp.Body.Bytes(), &data)
	if len(data.Items) != 1 || data.Items[0].Title != "Rent due" || data.Cursor != "next" {
		t.Fatalf("unexpected payload %+v", data)
	}
}

func TestListNotificationsDefaultLimit(t *testing.T) {
	userID := uuid.New()
	var limit int
	svc := &testNotificationsService{
		listFn: func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
			limit = params.Limit
			return &notifications.ListResult{}, nil
		},
	}

	resp := httptest.NewRecorder()
	ListNotifications(svc, testLogger())(resp, authedRequest(http.MethodGet, "/api/notifications", "", userID))
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if limit != 50 {
		t.Fatalf("expected default limit 50, got %d", limit)
	}
}

func TestListNotificationsRejectsBadLimit(t *testing.T) {
	resp := httptest.NewRecorder()
	ListNotifications(&testNotificationsService{}, testLogger())(resp, authedRequest(http.MethodGet, "/api/notifications?limit=zero", "", uuid.New()))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestNotificationRoutesRequireCaller(t *testing.T) {
	handlers := map[string]http.HandlerFunc{
		"list":   ListNotifications(&testNotificationsService{}, testLogger()),
		"unread": UnreadNotificationCount(&testNotificationsService{}, testLogger()),
		"all":    MarkAllNotificationsRead(&testNotificationsService{}, testLogger()),
	}
	for name, handler := range handlers {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		resp := httptest.NewRecorder()
		handler(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", name, resp.Code)
		}
	}
}

func TestUnreadNotificationCount(t *testing.T) {
	userID := uuid.New()
	svc := &testNotificationsService{
		unreadFn: func(ctx context.Context, id uuid.UUID) int64 {
			if id != userID {
				t.Fatalf("unexpected user %s", id)
			}
			return 7
		},
	}

	resp := httptest.NewRecorder()
	UnreadNotificationCount(svc, testLogger())(resp, authedRequest(http.MethodGet, "/api/notifications/unread-count", "", userID))

	var data countResponse
	decodeData(t, resp.Body.Bytes(), &data)
	if data.Count != 7 {
		t.Fatalf("expected count 7, got %d", data.Count)
	}
}

func TestMarkNotificationReadSuccess(t *testing.T) {
	userID := uuid.New()
	notificationID := uuid.New()
	called := false
	svc := &testNotificationsService{
		markReadFn: func(ctx context.Context, uid, nid uuid.UUID) bool {
			called = true
			if uid != userID {
				t.Fatalf("unexpected user %s", uid)
			}
			if nid != notificationID {
				t.Fatalf("unexpected notification %s", nid)
			}
			return true
		},
	}

	req := authedRequest(http.MethodPatch, "/api/notifications/"+notificationID.String()+"/read", "", userID)
	req = addRouteParam(req, "id", notificationID.String())
	resp := httptest.NewRecorder()
	MarkNotificationRead(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if !called {
		t.Fatal("expected service called")
	}
	var data successResponse
	decodeData(t, resp.Body.Bytes(), &data)
	if !data.Success {
		t.Fatal("expected success=true")
	}
}

func TestMarkNotificationReadMissingRow(t *testing.T) {
	req := authedRequest(http.MethodPatch, "/", "", uuid.New())
	req = addRouteParam(req, "id", uuid.NewString())
	resp := httptest.NewRecorder()
	MarkNotificationRead(&testNotificationsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var data successResponse
	decodeData(t, resp.Body.Bytes(), &data)
	if data.Success {
		t.Fatal("expected success=false for a missing notification")
	}
}

func TestMarkNotificationReadInvalidID(t *testing.T) {
	req := authedRequest(http.MethodPatch, "/api/notifications/invalid/read", "", uuid.New())
	req = addRouteParam(req, "id", "invalid")
	resp := httptest.NewRecorder()
	MarkNotificationRead(&testNotificationsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestMarkAllNotificationsRead(t *testing.T) {
	userID := uuid.New()
	calls := 0
	svc := &testNotificationsService{
		markAllReadFn: func(ctx context.Context, uid uuid.UUID) bool {
			calls++
			return true
		},
	}

	for i := 0; i < 2; i++ {
		resp := httptest.NewRecorder()
		MarkAllNotificationsRead(svc, testLogger())(resp, authedRequest(http.MethodPatch, "/api/notifications/mark-all-read", "", userID))
		var data successResponse
		decodeData(t, resp.Body.Bytes(), &data)
		if !data.Success {
			t.Fatalf("call %d: expected success", i)
		}
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestDeleteNotification(t *testing.T) {
	userID := uuid.New()
	notificationID := uuid.New()
	svc := &testNotificationsService{
		deleteFn: func(ctx context.Context, uid, nid uuid.UUID) bool {
			return uid == userID && nid == notificationID
		},
	}

	req := addRouteParam(authedRequest(http.MethodDelete, "/", "", userID), "id", notificationID.String())
	resp := httptest.NewRecorder()
	DeleteNotification(svc, testLogger())(resp, req)

	var data successResponse
	decodeData(t, resp.Body.Bytes(), &data)
	if !data.Success {
		t.Fatal("expected delete success")
	}
}

func TestGetNotificationSettingsDefaults(t *testing.T) {
	userID := uuid.New()
	resp := httptest.NewRecorder()
	GetNotificationSettings(&testNotificationsService{}, testLogger())(resp, authedRequest(http.MethodGet, "/api/notifications/settings", "", userID))

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var data models.NotificationSettings
	decodeData(t, resp.Body.Bytes(), &data)
	if data.UserID != userID || !data.Messages || !data.PaymentReminders {
		t.Fatalf("unexpected settings %+v", data)
	}
}

func TestUpdateNotificationSettingsPartial(t *testing.T) {
	userID := uuid.New()
	var captured notifications.SettingsPatch
	svc := &testNotificationsService{
		updateSettingsFn: func(ctx context.Context, uid uuid.UUID, patch notifications.SettingsPatch) (*models.NotificationSettings, error) {
			captured = patch
			settings := models.DefaultNotificationSettings(uid)
			settings.Messages = false
			return &settings, nil
		},
	}

	req := authedRequest(http.MethodPut, "/api/notifications/settings", `{"messages":false}`, userID)
	resp := httptest.NewRecorder()
	UpdateNotificationSettings(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if captured.Messages == nil || *captured.Messages {
		t.Fatalf("expected messages=false in patch, got %+v", captured)
	}
	if captured.PaymentReminders != nil || captured.TenantUpdates != nil {
		t.Fatalf("expected other fields absent, got %+v", captured)
	}
	var data models.NotificationSettings
	decodeData(t, resp.Body.Bytes(), &data)
	if data.Messages {
		t.Fatal("expected messages disabled in response")
	}
}

func TestUpdateNotificationSettingsRejectsEmptyBody(t *testing.T) {
	called := false
	svc := &testNotificationsService{
		updateSettingsFn: func(ctx context.Context, uid uuid.UUID, patch notifications.SettingsPatch) (*models.NotificationSettings, error) {
			called = true
			return nil, nil
		},
	}

	resp := httptest.NewRecorder()
	UpdateNotificationSettings(svc, testLogger())(resp, authedRequest(http.MethodPut, "/api/notifications/settings", `{}`, uuid.New()))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if called {
		t.Fatal("service should not be called for an empty patch")
	}
	if code := decodeErrorCode(t, resp.Body.Bytes()); code != "VALIDATION_ERROR" {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestSendTestNotification(t *testing.T) {
	userID := uuid.New()
	pusher := &testPusher{ok: true}

	resp := httptest.NewRecorder()
	SendTestNotification(pusher, testLogger())(resp, authedRequest(http.MethodPost, "/api/notifications/test-push", "", userID))

	if len(pusher.calls) != 1 || pusher.calls[0] != userID {
		t.Fatalf("unexpected pusher calls %v", pusher.calls)
	}
	var data successResponse
	decodeData(t, resp.Body.Bytes(), &data)
	if !data.Success {
		t.Fatal("expected success")
	}
}
