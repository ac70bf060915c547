package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"resumelens/internal/session"
)

type contextKey string

const sessionContextKey contextKey = "resumelens.session"

// sessionMiddleware guarantees every request carries a valid session token.
// The cookie value is "<token>.<hmac>" so forged or stale tokens are
// replaced instead of trusted.
func (s *Server) sessionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := s.sessionFromCookie(r)
		if !ok {
			newSID, err := session.NewSessionID()
			if err != nil {
				s.Logger.LogError(err, "Failed to mint session token")
				writeErrorResponse(w, "Internal error", "Could not establish a session", http.StatusInternalServerError)
				return
			}
			sid = newSID
			http.SetCookie(w, &http.Cookie{
				Name:     s.CookieName,
				Value:    s.signSession(sid),
				Path:     "/",
				HttpOnly: true,
				Secure:   s.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, sid)
		next(w, r.WithContext(ctx))
	}
}

// sessionFromCookie extracts and verifies the session token from the request.
func (s *Server) sessionFromCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(s.CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	token, sig, found := strings.Cut(cookie.Value, ".")
	if !found || token == "" {
		return "", false
	}

	expected := s.sessionSignature(token)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		s.Logger.Debug("Rejected session cookie with bad signature",
			"client_ip", getClientIP(r))
		return "", false
	}

	return token, true
}

// signSession produces the cookie value for a session token.
func (s *Server) signSession(token string) string {
	return token + "." + s.sessionSignature(token)
}

func (s *Server) sessionSignature(token string) string {
	mac := hmac.New(sha256.New, s.cookieKey)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// sessionID returns the verified session token placed by sessionMiddleware.
func sessionID(ctx context.Context) string {
	if sid, ok := ctx.Value(sessionContextKey).(string); ok {
		return sid
	}
	return ""
}
