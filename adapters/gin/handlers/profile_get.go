package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/playkit/adapters/ginutil"
	"github.com/open-rails/playkit/player"
)

func HandleProfileGET(store player.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, _ := c.Get("auth.user_id")
		p, err := store.GetProfile(c.Request.Context(), uid.(string))
		if err != nil {
			ginutil.ServerErr(c, "failed_to_load_profile")
			return
		}
		if p == nil {
			ginutil.NotFound(c, "profile_not_found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": p})
	}
}
