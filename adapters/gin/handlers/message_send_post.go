package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/open-rails/playkit/adapters/ginutil"
	"github.com/open-rails/playkit/jobs"
	"github.com/open-rails/playkit/player"
)

const maxMessageBytes = 4096

func HandleMessageSendPOST(store player.Store, q jobs.Enqueuer, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLMessageSend) {
			ginutil.TooMany(c)
			return
		}
		uid, _ := c.Get("auth.user_id")
		from := uid.(string)

		var req struct {
			ToUserID string `json:"to_user_id"`
			Body     string `json:"body"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			ginutil.BadRequest(c, "invalid_message")
			return
		}
		if strings.TrimSpace(req.ToUserID) == "" || strings.TrimSpace(req.Body) == "" {
			ginutil.BadRequest(c, "missing_recipient_or_body")
			return
		}
		if len(req.Body) > maxMessageBytes {
			ginutil.BadRequest(c, "message_too_long")
			return
		}
		if req.ToUserID == from {
			ginutil.BadRequest(c, "cannot_message_self")
			return
		}

		m := &player.Message{
			ID:         uuid.New(),
			FromUserID: from,
			ToUserID:   req.ToUserID,
			Body:       req.Body,
			CreatedAt:  time.Now(),
		}
		if err := store.InsertMessage(c.Request.Context(), m); err != nil {
			ginutil.ServerErr(c, "failed_to_send_message")
			return
		}
		if q != nil {
			// Delivery is best-effort and out of band; the message row is
			// already persisted.
			_, _ = q.Insert(c.Request.Context(), jobs.MessageDeliverArgs{MessageID: m.ID}, nil)
		}
		c.JSON(http.StatusOK, gin.H{"data": m})
	}
}
