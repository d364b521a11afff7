package handlers

import (
	"lawjournal/internal/middleware"
	"lawjournal/internal/services"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	users   *services.UserService
	captcha *services.CaptchaService
}

func NewAuthHandler(d Deps) *AuthHandler {
	return &AuthHandler{users: d.Users, captcha: d.Captcha}
}

// registrationAllowed renders the 403 page when the actor may not register admins.
func (h *AuthHandler) registrationAllowed(c *gin.Context) bool {
	open, err := h.users.RegistrationOpen(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		renderServiceError(c, err)
		return false
	}
	if !open {
		RenderError(c, http.StatusForbidden, "Only administrators can create new admin accounts.")
		return false
	}
	return true
}

func (h *AuthHandler) ShowRegister(c *gin.Context) {
	if !h.registrationAllowed(c) {
		return
	}
	Render(c, http.StatusOK, "admin/register.html", gin.H{
		"Title":   "Register admin",
		"Captcha": newCaptcha(c, h.captcha),
	})
}

func (h *AuthHandler) Register(c *gin.Context) {
	if !h.registrationAllowed(c) {
		return
	}

	in := services.RegisterInput{
		Username: c.PostForm("username"),
		Email:    c.PostForm("email"),
		Password: c.PostForm("password"),
		Confirm:  c.PostForm("confirm_password"),
	}
	renderForm := func(code int, message string) {
		Render(c, code, "admin/register.html", gin.H{
			"Title":    "Register admin",
			"Username": in.Username,
			"Email":    in.Email,
			"Error":    message,
			"Captcha":  newCaptcha(c, h.captcha),
		})
	}

	if !checkCaptcha(c, h.captcha) {
		renderForm(http.StatusBadRequest, "Incorrect answer to the security question.")
		return
	}
	user, err := h.users.RegisterAdmin(c.Request.Context(), middleware.CurrentActor(c), in)
	if err != nil {
		renderForm(statusOf(err), msg(c, err))
		return
	}

	if middleware.CurrentUser(c) != nil {
		redirectWithFlash(c, "/admin/dashboard", flashSuccess, "Admin "+user.Username+" created.")
		return
	}
	redirectWithFlash(c, "/admin/login", flashSuccess, "Registration successful. Please log in.")
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	if middleware.CurrentActor(c).IsAdmin() {
		c.Redirect(http.StatusFound, "/admin/dashboard")
		return
	}
	Render(c, http.StatusOK, "admin/login.html", gin.H{"Title": "Admin login"})
}

func (h *AuthHandler) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	user, err := h.users.Authenticate(c.Request.Context(), username, c.PostForm("password"))
	if err != nil && !services.IsUnauthorized(err) {
		renderServiceError(c, err)
		return
	}
	if err != nil || !user.IsAdmin {
		Render(c, http.StatusUnauthorized, "admin/login.html", gin.H{
			"Title":    "Admin login",
			"Username": username,
			"Error":    "Invalid credentials or not an admin.",
		})
		return
	}

	session := sessions.Default(c)
	session.Clear()
	session.Set(middleware.SessionUserKey, user.ID)
	session.AddFlash("Welcome back, "+user.Username+".", flashSuccess)
	session.Save()
	c.Redirect(http.StatusFound, "/admin/dashboard")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.AddFlash("You have been logged out.", flashSuccess)
	session.Save()
	c.Redirect(http.StatusFound, "/")
}
