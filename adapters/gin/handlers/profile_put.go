package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/playkit/adapters/ginutil"
	"github.com/open-rails/playkit/player"
)

func HandleProfilePUT(store player.Store, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLProfileUpdate) {
			ginutil.TooMany(c)
			return
		}
		uid, _ := c.Get("auth.user_id")

		var req struct {
			DisplayName string `json:"display_name"`
			AvatarURL   string `json:"avatar_url"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			ginutil.BadRequest(c, "invalid_profile")
			return
		}
		if strings.TrimSpace(req.DisplayName) == "" {
			ginutil.BadRequest(c, "missing_display_name")
			return
		}

		p := &player.Profile{
			UserID:      uid.(string),
			DisplayName: req.DisplayName,
			AvatarURL:   req.AvatarURL,
			UpdatedAt:   time.Now(),
		}
		if err := store.UpsertProfile(c.Request.Context(), p); err != nil {
			ginutil.ServerErr(c, "failed_to_update_profile")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": p})
	}
}
