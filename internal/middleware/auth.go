package middleware

import (
	"lawjournal/internal/logger"
	"lawjournal/internal/models"
	"lawjournal/internal/services"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const CheckUserKey = "user"

// SessionUserKey is where the logged-in user's id lives in the session.
const SessionUserKey = "user_id"

// LoadUser retrieves the user from the session and sets it on the context.
// A session pointing at a deleted user is cleared.
func LoadUser(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if userID, ok := session.Get(SessionUserKey).(uint); ok {
			user, err := users.GetUser(c.Request.Context(), userID)
			switch {
			case err == nil:
				c.Set(CheckUserKey, user)
			case services.IsNotFound(err):
				session.Delete(SessionUserKey)
				session.Save()
			default:
				logger.For("auth").Errorf("load session user %d: %v", userID, err)
			}
		}
		c.Next()
	}
}

// CurrentUser returns the user loaded by LoadUser, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if u, exists := c.Get(CheckUserKey); exists {
		if user, ok := u.(*models.User); ok {
			return user
		}
	}
	return nil
}

// CurrentActor is the capability handed to the service layer.
func CurrentActor(c *gin.Context) services.Actor {
	return services.ActorFor(CurrentUser(c))
}

// AdminRequired sends anyone who is not a logged-in admin to the login page.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentActor(c).IsAdmin() {
			session := sessions.Default(c)
			session.AddFlash("Please log in as an admin to continue.", "error")
			session.Save()
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}
