package handlers

import (
	"lawjournal/internal/services"
	"net/http"

	"github.com/gin-gonic/gin"
)

type PageHandler struct {
	messages *services.MessageService
	captcha  *services.CaptchaService
}

func NewPageHandler(d Deps) *PageHandler {
	return &PageHandler{messages: d.Messages, captcha: d.Captcha}
}

func (h *PageHandler) About(c *gin.Context) {
	Render(c, http.StatusOK, "about.html", gin.H{"Title": "About"})
}

func (h *PageHandler) ShowContact(c *gin.Context) {
	Render(c, http.StatusOK, "contact.html", gin.H{
		"Title":   "Contact",
		"Form":    services.MessageInput{},
		"Captcha": newCaptcha(c, h.captcha),
	})
}

func (h *PageHandler) Contact(c *gin.Context) {
	in := services.MessageInput{
		Name:    c.PostForm("name"),
		Email:   c.PostForm("email"),
		Content: c.PostForm("message"),
	}
	renderForm := func(code int, message string) {
		Render(c, code, "contact.html", gin.H{
			"Title":   "Contact",
			"Form":    in,
			"Error":   message,
			"Captcha": newCaptcha(c, h.captcha),
		})
	}

	if !checkCaptcha(c, h.captcha) {
		renderForm(http.StatusBadRequest, "Incorrect answer to the security question.")
		return
	}
	if _, err := h.messages.CreateMessage(c.Request.Context(), in); err != nil {
		renderForm(statusOf(err), msg(c, err))
		return
	}
	redirectWithFlash(c, "/contact", flashSuccess, "Thank you! Your message has been sent.")
}
