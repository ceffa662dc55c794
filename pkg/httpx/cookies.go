package httpx

import "net/http"

// Cookie helpers for the transient login cookies. Everything issued here
// is HttpOnly on path "/" so scripts can never read correlation state or
// refresh tokens.

// GetCookie returns the named request cookie, if present.
func GetCookie(r *http.Request, name string) (*http.Cookie, bool) {
	c, err := r.Cookie(name)
	if err != nil {
		return nil, false
	}
	return c, true
}

// SetCookie issues a bounded-lifetime HttpOnly cookie on path "/".
func SetCookie(w http.ResponseWriter, name, value string, maxAgeSeconds int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAgeSeconds,
	})
}

// DeleteCookie overwrites the named cookie with an empty value and an
// explicit Max-Age=0 expiry instruction. Deleting a cookie the request
// never carried is harmless, so no presence check is made and the call
// is idempotent.
func DeleteCookie(r *http.Request, w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1, // serialized as Max-Age=0
	})
}
