package httpserver

import (
	"net/http"
	"time"

	"github.com/dexquiz/dexquiz/internal/quizstate"
)

const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"
	quizCookie    = "quiz_session_id"
)

type Cookies struct {
	Secure bool
}

func (k Cookies) create(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   k.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (k Cookies) quiz(sessionID string) *http.Cookie {
	return k.create(quizCookie, sessionID, quizstate.TTL)
}

func (k Cookies) delete(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   k.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
