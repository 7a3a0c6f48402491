package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/open-rails/playkit/adapters/ginutil"
	"github.com/open-rails/playkit/player"
)

func HandleScoreSubmitPOST(store player.Store, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLScoreSubmit) {
			ginutil.TooMany(c)
			return
		}
		uid, _ := c.Get("auth.user_id")

		var req struct {
			GameID string `json:"game_id"`
			Points int64  `json:"points"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.GameID) == "" {
			ginutil.BadRequest(c, "invalid_score")
			return
		}
		if req.Points < 0 {
			ginutil.BadRequest(c, "negative_points")
			return
		}

		sc := &player.Score{
			ID:        uuid.New(),
			UserID:    uid.(string),
			GameID:    req.GameID,
			Points:    req.Points,
			CreatedAt: time.Now(),
		}
		if err := store.InsertScore(c.Request.Context(), sc); err != nil {
			ginutil.ServerErr(c, "failed_to_submit_score")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": sc})
	}
}
