package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	VisitorCookie = "funnel_visitor"
	SessionCookie = "funnel_session"
)

// visitorCookieAge keeps the visitor cookie as long as browsers allow.
const visitorCookieAge = 400 * 24 * time.Hour

type ctxKey int

const (
	visitorKey ctxKey = iota
	sessionKey
)

// Identity is the pair of ids a request acts on.
type Identity struct {
	VisitorID string
	SessionID string
}

// IdentityFrom returns the ids attached by the identity middleware.
func IdentityFrom(ctx context.Context) Identity {
	v, _ := ctx.Value(visitorKey).(string)
	s, _ := ctx.Value(sessionKey).(string)
	return Identity{VisitorID: v, SessionID: s}
}

// identify assigns missing or malformed id cookies and stores both ids in the context.
func identify(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			visitor := cookieID(r, VisitorCookie)
			if visitor == "" {
				visitor = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     VisitorCookie,
					Value:    visitor,
					Path:     "/",
					MaxAge:   int(visitorCookieAge.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			sess := cookieID(r, SessionCookie)
			if sess == "" {
				sess = uuid.NewString()
				// No MaxAge: the browser drops it with the session.
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    sess,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), visitorKey, visitor)
			ctx = context.WithValue(ctx, sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// cookieID returns the cookie value when it is a valid uuid.
func cookieID(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	id, err := uuid.Parse(c.Value)
	if err != nil {
		return ""
	}
	return id.String()
}
