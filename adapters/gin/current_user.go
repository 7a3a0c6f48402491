package authgin

import "github.com/gin-gonic/gin"

// UserView is a unified snapshot of the caller for handlers that render
// "who am I" style responses.
type UserView struct {
	UserID string         `json:"user_id"`
	Claims map[string]any `json:"claims,omitempty"`

	// Source is "token" when the JWT gate ran, "none" otherwise.
	Source string `json:"source"`
}

// CurrentUser returns a unified user snapshot for handlers.
func CurrentUser(c *gin.Context) (UserView, bool) {
	uid, ok := UserID(c)
	if !ok {
		return UserView{Source: "none"}, false
	}
	claims, _ := ClaimsFromGin(c)
	return UserView{UserID: uid, Claims: claims, Source: "token"}, true
}
