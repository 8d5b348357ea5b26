package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderUserID carries the caller's economy account id. There is no
// authentication layer; the value is trusted as given.
const HeaderUserID = "X-User-ID"

// ctxKeyUserID is where an upstream auth layer would store the user id.
const ctxKeyUserID = "userID"

// UserIDFrom returns the caller identity: the "userID" context value when
// set, else the X-User-ID header, else "".
func UserIDFrom(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c.Request != nil {
		return strings.TrimSpace(c.GetHeader(HeaderUserID))
	}
	return ""
}

// routeOf returns the matched route template, or the raw path when no route
// matched.
func routeOf(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}
