package authgin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/playkit/adapters/gin/handlers"
	"github.com/open-rails/playkit/adapters/ginutil"
	"github.com/open-rails/playkit/core"
	"github.com/open-rails/playkit/jobs"
	"github.com/open-rails/playkit/player"
)

// RegisterRoutes mounts the player API under /v1. Everything except /me is
// behind the JWT gate; /me uses the optional gate so anonymous callers get a
// "none" snapshot instead of a 401.
func RegisterRoutes(r *gin.Engine, svc *core.Service, store player.Store, q jobs.Enqueuer, rl ginutil.RateLimiter) {
	v1 := r.Group("/v1")

	v1.GET("/me", AuthOptional(svc), func(c *gin.Context) {
		view, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"data": view})
	})

	authed := v1.Group("", AuthRequired(svc))
	authed.POST("/scores", handlers.HandleScoreSubmitPOST(store, rl))
	authed.GET("/profile", handlers.HandleProfileGET(store))
	authed.PUT("/profile", handlers.HandleProfilePUT(store, rl))
	authed.POST("/messages", handlers.HandleMessageSendPOST(store, q, rl))
	authed.GET("/messages", handlers.HandleMessagesGET(store))
}
