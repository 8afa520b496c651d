package api

import (
	"context"
	"net/http"
	"time"

	"unibio.dev/workbench/internal/auth"
	"unibio.dev/workbench/internal/core"
	"unibio.dev/workbench/internal/logging"
)

const SessionCookie = "unibio_session"

type contextKey struct{}

// SessionMiddleware resolves the signed session cookie to a workbench. Requests without
// a valid cookie get a fresh session and a new cookie; a cookie past half its lifetime is
// re-issued so active sessions do not expire.
func (h *Handler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		var issued time.Time
		if c, err := r.Cookie(SessionCookie); err == nil {
			id, issued, err = auth.ParseSessionToken(h.secret, c.Value)
			if err != nil {
				logging.Logger.Debug("ignoring session cookie", "error", err)
			}
		}

		wb, err := h.manager.Open(r.Context(), id)
		if err != nil {
			logging.Logger.Error("failed to open session", "session", id, "error", err)
			http.Error(w, "Failed to open session", http.StatusInternalServerError)
			return
		}

		if wb.ID != id || time.Since(issued) > h.cookieTTL/2 {
			if err := h.setSessionCookie(w, wb.ID); err != nil {
				logging.Logger.Error("failed to issue session cookie", "session", wb.ID, "error", err)
				http.Error(w, "Failed to start session", http.StatusInternalServerError)
				return
			}
		}

		ctx := context.WithValue(r.Context(), contextKey{}, wb)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, sessionID string) error {
	token, err := auth.GenerateSessionToken(h.secret, sessionID, h.cookieTTL)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cookieTTL),
		MaxAge:   int(h.cookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func workbenchFrom(ctx context.Context) *core.Workbench {
	wb, _ := ctx.Value(contextKey{}).(*core.Workbench)
	return wb
}
