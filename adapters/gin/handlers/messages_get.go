package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/playkit/adapters/ginutil"
	"github.com/open-rails/playkit/player"
)

func HandleMessagesGET(store player.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, _ := c.Get("auth.user_id")
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		size, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
		page, size = player.ClampPage(page, size)

		items, err := store.ListInbox(c.Request.Context(), uid.(string), page, size)
		if err != nil {
			ginutil.ServerErr(c, "failed_to_list_messages")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": items, "page": page, "page_size": size})
	}
}
