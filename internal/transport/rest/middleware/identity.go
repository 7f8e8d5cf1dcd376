package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/paulexconde/surveyengine/internal/services"
)

type contextKey string

const (
	UserIDKey      contextKey = "userId"
	CompanyIDKey   contextKey = "companyId"
	CompanyNameKey contextKey = "companyName"
)

// Identity headers set by the gateway in front of the engine.
const (
	HeaderUserID      = "X-User-ID"
	HeaderCompanyID   = "X-Company-ID"
	HeaderCompanyName = "X-Company-Name"
)

// Identify copies the identity headers into the request context.
func Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = context.WithValue(ctx, UserIDKey, strings.TrimSpace(r.Header.Get(HeaderUserID)))
		ctx = context.WithValue(ctx, CompanyIDKey, strings.TrimSpace(r.Header.Get(HeaderCompanyID)))
		ctx = context.WithValue(ctx, CompanyNameKey, strings.TrimSpace(r.Header.Get(HeaderCompanyName)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects requests without a user id.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserID(r.Context()) == "" {
			w.Header().Set("Content-Type", "application/json")
			http.Error(w, `{"error":"missing user"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(UserIDKey).(string)
	return id
}

// GetViewer returns who is making the request.
func GetViewer(ctx context.Context) services.Viewer {
	companyID, _ := ctx.Value(CompanyIDKey).(string)
	companyName, _ := ctx.Value(CompanyNameKey).(string)
	return services.Viewer{
		UserID:      GetUserID(ctx),
		CompanyID:   companyID,
		CompanyName: companyName,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging writes one line per request.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		slog.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
