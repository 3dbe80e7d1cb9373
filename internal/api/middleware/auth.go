package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/vladislavdragonenkov/commerce/internal/authz"
)

type contextKey string

const callerKey contextKey = "caller"

// WithCaller извлекает вызывающего из заголовков запроса и кладёт его
// в контекст. Пустые заголовки дают гостевого вызывающего: сами операции
// решают, что гостю разрешено.
func WithCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := authz.Caller{
			UserID:  strings.TrimSpace(r.Header.Get("X-User-ID")),
			StoreID: strings.TrimSpace(r.Header.Get("X-Store-ID")),
		}
		if raw := r.Header.Get("X-Roles"); raw != "" {
			for _, role := range strings.Split(raw, ",") {
				if role = strings.TrimSpace(role); role != "" {
					caller.Roles = append(caller.Roles, role)
				}
			}
		}

		ctx := context.WithValue(r.Context(), callerKey, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CallerFrom возвращает вызывающего из контекста запроса.
func CallerFrom(ctx context.Context) authz.Caller {
	if caller, ok := ctx.Value(callerKey).(authz.Caller); ok {
		return caller
	}
	return authz.Caller{}
}
