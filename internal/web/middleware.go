package web

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/erazemk/slascicarna/internal/auth"
	"github.com/erazemk/slascicarna/internal/shop"
	"github.com/erazemk/slascicarna/internal/store"
)

type webContextKey string

const webClaimsKey webContextKey = "webclaims"

const authCookie = "token"

// loginURL is where unauthenticated visitors are sent.
const loginURL = "/login/"

// CookieAuthMiddleware validates the JWT cookie, checks token revocation,
// and adds claims to context. Visitors without a valid session are
// redirected to the login page with a 302 and a next parameter.
func CookieAuthMiddleware(secret string, db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := sessionClaims(w, r, secret, db)
			if claims == nil {
				http.Redirect(w, r, loginURL+"?next="+url.QueryEscape(r.URL.Path), http.StatusFound)
				return
			}

			ctx := context.WithValue(r.Context(), webClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthMiddleware adds claims to context when a valid session exists
// and lets the request through either way.
func OptionalAuthMiddleware(secret string, db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims := sessionClaims(w, r, secret, db); claims != nil {
				r = r.WithContext(context.WithValue(r.Context(), webClaimsKey, claims))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// sessionClaims returns the claims of a valid, unrevoked session cookie.
// A bad cookie is cleared.
func sessionClaims(w http.ResponseWriter, r *http.Request, secret string, db *sql.DB) *auth.Claims {
	cookie, err := r.Cookie(authCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}

	claims, err := auth.ValidateToken(secret, cookie.Value)
	if err != nil {
		clearAuthCookie(w)
		return nil
	}

	if claims.ID != "" {
		revoked, err := store.IsTokenRevoked(r.Context(), db, claims.ID)
		if err != nil {
			slog.Error("failed to check token revocation", "error", err)
			clearAuthCookie(w)
			return nil
		}
		if revoked {
			clearAuthCookie(w)
			return nil
		}
	}

	return claims
}

// setAuthCookie stores a session token in the browser.
func setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(auth.TokenExpiry.Seconds()),
	})
}

// clearAuthCookie clears the authentication cookie with consistent attributes.
func clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// GetWebClaims retrieves the JWT claims from web context.
func GetWebClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(webClaimsKey).(*auth.Claims)
	return claims
}

// identity converts session claims into the caller of an order.
func identity(claims *auth.Claims) *shop.Identity {
	if claims == nil {
		return nil
	}
	return &shop.Identity{UserID: claims.UserID, Username: claims.Username}
}
