package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/durent/durent-backend/api/controllers"
	"github.com/durent/durent-backend/api/middleware"
	"github.com/durent/durent-backend/internal/cron"
	"github.com/durent/durent-backend/internal/notifications"
	"github.com/durent/durent-backend/pkg/config"
	"github.com/durent/durent-backend/pkg/logger"
	"github.com/durent/durent-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	notificationsService notifications.Service,
	testPusher controllers.TestPusher,
	jobs controllers.JobRunner,
	sweeper controllers.EndRequestSweeper,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	deps := map[string]controllers.Pinger{"database": dbP}
	if redisClient != nil {
		deps["redis"] = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	triggerLimit := func(name string) func(http.Handler) http.Handler {
		policy := middleware.NewTriggerRateLimitPolicy(name, cfg.Trigger.RateLimitWindow, cfg.Trigger.RateLimit).
			WithTrustedProxies(cfg.Trigger.TrustedProxyHops)
		// a typed nil client would defeat the limiter's nil check
		if redisClient == nil {
			return middleware.TriggerRateLimit(policy, nil, logg)
		}
		return middleware.TriggerRateLimit(policy, redisClient, logg)
	}
	triggerSecret := middleware.TriggerSecret(cfg.Trigger.Secret, logg)
	bearer := middleware.Auth(cfg.JWT, logg)

	r.Route("/api", func(r chi.Router) {
		r.Route("/notifications", func(r chi.Router) {
			r.Use(bearer)
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(notificationsService, logg))
			r.Patch("/mark-all-read", controllers.MarkAllNotificationsRead(notificationsService, logg))
			r.Get("/settings", controllers.GetNotificationSettings(notificationsService, logg))
			r.Put("/settings", controllers.UpdateNotificationSettings(notificationsService, logg))
			r.With(middleware.RequireNonProd(cfg.App, logg)).Post("/test-push", controllers.SendTestNotification(testPusher, logg))
			r.Patch("/{id}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Delete("/{id}", controllers.DeleteNotification(notificationsService, logg))
		})

		r.With(triggerSecret, triggerLimit("zone-digest")).
			Post("/zone-notifications/trigger-digest", controllers.TriggerJob(jobs, cron.ZoneDigestJobName, logg))
		r.With(bearer, triggerLimit("payment-reminders")).
			Post("/payment-reminders/trigger-manual", controllers.TriggerJob(jobs, cron.PaymentRemindersJobName, logg))
		r.With(triggerSecret, triggerLimit("end-request-sweep")).
			Post("/end-requests/auto-accept", controllers.TriggerEndRequestSweep(jobs, sweeper, logg))
	})

	return r
}
