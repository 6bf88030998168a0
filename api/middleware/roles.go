package middleware

import (
	"net/http"

	"github.com/durent/durent-backend/api/responses"
	"github.com/durent/durent-backend/pkg/config"
	pkgerrors "github.com/durent/durent-backend/pkg/errors"
	"github.com/durent/durent-backend/pkg/logger"
)

// RequireNonProd hides diagnostic routes in production by answering 404.
func RequireNonProd(app config.AppConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if app.IsProd() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "not found"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
