package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// CookieName is the name of the session cookie
	CookieName = "ota_session"
	// CookieMaxAge is how long a browser keeps the session cookie.
	CookieMaxAge = 7 * 24 * time.Hour

	sessionHeader = "X-Session-Id"
	sessionQuery  = "sessionId"
)

// SetSessionCookie sets an HTTP-only session cookie. It is marked Secure
// when the request arrived over TLS.
func SetSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(CookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
}

// GetSessionCookie reads the session ID from the cookie
func GetSessionCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

// getSessionID looks at the cookie, then the X-Session-Id header, then the
// sessionId query parameter.
func getSessionID(r *http.Request) string {
	if sid, err := GetSessionCookie(r); err == nil && sid != "" {
		return sid
	}
	if sid := r.Header.Get(sessionHeader); sid != "" {
		return sid
	}
	return r.URL.Query().Get(sessionQuery)
}

// getOrCreateSessionID returns the caller's session id, minting one and
// setting the cookie when there is none. The id is always echoed in the
// X-Session-Id response header.
func (s *Server) getOrCreateSessionID(w http.ResponseWriter, r *http.Request) string {
	sid := getSessionID(r)
	if sid == "" {
		sid = uuid.NewString()
		s.logger.Debug("creating new session", zap.String("session", sid), zap.String("path", r.URL.Path))
		SetSessionCookie(w, r, sid)
	}
	w.Header().Set(sessionHeader, sid)
	return sid
}
