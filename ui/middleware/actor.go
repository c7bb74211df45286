package middleware

import (
	"strings"

	"github.com/pgocasting/ipatrollersys-sub002/ports"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// Header names carrying the signed-in dashboard user.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
	HeaderUserRole = "X-User-Role"
)

// Actor resolves the calling user from request headers and stores it on
// the context. Requests without identity run as "system".
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ports.Actor{
			ID:   strings.TrimSpace(c.GetHeader(HeaderUserID)),
			Name: strings.TrimSpace(c.GetHeader(HeaderUserName)),
			Role: strings.TrimSpace(c.GetHeader(HeaderUserRole)),
		}
		if actor.ID == "" && actor.Name == "" {
			actor.ID = "system"
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// ActorFrom returns the actor stored by Actor.
func ActorFrom(c *gin.Context) ports.Actor {
	if v, ok := c.Get(actorKey); ok {
		if a, ok := v.(ports.Actor); ok {
			return a
		}
	}
	return ports.Actor{ID: "system"}
}
