package middleware

import (
	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"net/http"
)

const (
	SessionKey        = "session"
	SessionCookieName = "commentui_session"
)

// SessionMiddleware makes sure every request carries a session id, minting one when the cookie is
// missing or not a valid UUID.
func SessionMiddleware(maxAge int, secure bool) func(c *ginext.Context) {
	return func(c *ginext.Context) {
		id, err := c.Cookie(SessionCookieName)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.New().String()
		}
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     SessionCookieName,
			Value:    id,
			Path:     "/",
			MaxAge:   maxAge,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
		c.Set(SessionKey, id)
		c.Next()
	}
}
