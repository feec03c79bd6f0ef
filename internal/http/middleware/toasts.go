// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file attaches the per-request toast tray. Global failures (5xx and
// network errors) raised by the query cache's error hook are queued in the
// tray and rendered by the layout header once the page's queries are done.
// Toasts() must run before any handler that issues backend queries.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/tbourn/planner-admin/internal/present"
)

// Toasts attaches an empty toast tray to each request context. The global
// query error hook pushes into it and the page renderer drains it into the
// layout header.
func Toasts() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(present.WithTray(c.Request.Context(), &present.Tray{}))
		c.Next()
	}
}
