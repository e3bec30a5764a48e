package server

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/mindcanvas/internal/common"
	"github.com/gin-gonic/gin"
)

// SessionCookie names the cookie that carries the session token.
const SessionCookie = "session"

const (
	tokenKey    = "session_token"
	usernameKey = "username"
)

// tokensFromRequest returns the session cookie and the
// "Authorization: Bearer" token, in that order, skipping empty ones.
func tokensFromRequest(c *gin.Context) []string {
	var tokens []string
	if v, err := c.Cookie(SessionCookie); err == nil && v != "" {
		tokens = append(tokens, v)
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		if v := strings.TrimSpace(h[7:]); v != "" {
			tokens = append(tokens, v)
		}
	}
	return tokens
}

// RequireSession accepts the first valid token the request carries and
// stores it with its username on the context for handlers. A stale cookie
// does not hide a valid bearer token.
func (h *Handler) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := fmt.Errorf("%w: no session token", common.ErrorUnauthorized)
		for _, token := range tokensFromRequest(c) {
			username, perr := h.Tokens.Username(token)
			if perr != nil {
				err = fmt.Errorf("%w: %w", common.ErrorUnauthorized, perr)
				continue
			}
			c.Set(tokenKey, token)
			c.Set(usernameKey, username)
			c.Next()
			return
		}

		h.Logger.Debug(c.Request.Context(), "session rejected", "path", c.Request.URL.Path, "error", err)
		h.writeError(c, err)
		c.Abort()
	}
}

// Observe logs each request and records it in the HTTP metrics.
func (h *Handler) Observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		status := c.Writer.Status()

		if h.Metrics != nil {
			h.Metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
			h.Metrics.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())
		}
		h.Logger.Debug(c.Request.Context(), "request",
			"method", c.Request.Method, "route", route, "status", status, "duration", elapsed)
	}
}
