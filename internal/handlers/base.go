package handlers

import (
	"lawjournal/internal/logger"
	"lawjournal/internal/middleware"
	"lawjournal/internal/services"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Deps carries the services the handlers are built from.
type Deps struct {
	Articles   *services.ArticleService
	Comments   *services.CommentService
	Visits     *services.VisitService
	Moderation *services.ModerationService
	Messages   *services.MessageService
	Users      *services.UserService
	Captcha    *services.CaptchaService

	SiteURL        string
	UploadDir      string
	MaxUploadBytes int64
}

const (
	flashSuccess = "success"
	flashError   = "error"
	captchaKey   = "captcha_answer"
)

// Render helper to inject common variables like the current user and flashes.
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	if user := middleware.CurrentUser(c); user != nil {
		obj["CurrentUser"] = user
	}
	obj["IsAdmin"] = middleware.CurrentActor(c).IsAdmin()
	obj["CurrentPath"] = c.Request.URL.Path

	session := sessions.Default(c)
	if msgs := session.Flashes(flashSuccess); len(msgs) > 0 {
		obj["FlashSuccess"] = msgs
	}
	if msgs := session.Flashes(flashError); len(msgs) > 0 {
		obj["FlashError"] = msgs
	}
	session.Save()

	c.HTML(code, name, obj)
}

// RenderError shows the error page.
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Error": message, "Code": code})
}

func flash(c *gin.Context, kind, message string) {
	session := sessions.Default(c)
	session.AddFlash(message, kind)
	session.Save()
}

func redirectWithFlash(c *gin.Context, path, kind, message string) {
	flash(c, kind, message)
	c.Redirect(http.StatusFound, path)
}

// statusOf maps a service error to an HTTP status.
func statusOf(err error) int {
	code := services.StatusCode(err)
	if code < 400 || code > 599 {
		return http.StatusInternalServerError
	}
	return code
}

// msg is the text shown to the visitor; store failures are logged, not shown.
func msg(c *gin.Context, err error) string {
	if statusOf(err) >= http.StatusInternalServerError {
		logger.For("http").Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		return "Something went wrong. Please try again later."
	}
	return services.Message(err)
}

// renderServiceError shows the error page with the status the error maps to.
func renderServiceError(c *gin.Context, err error) {
	RenderError(c, statusOf(err), msg(c, err))
}

// newCaptcha puts a fresh challenge in the session and returns the question.
func newCaptcha(c *gin.Context, captcha *services.CaptchaService) string {
	question, answer := captcha.GenerateMathProblem()
	session := sessions.Default(c)
	session.Set(captchaKey, answer)
	session.Save()
	return question
}

// checkCaptcha consumes the stored answer; each challenge is good for one try.
func checkCaptcha(c *gin.Context, captcha *services.CaptchaService) bool {
	session := sessions.Default(c)
	stored := session.Get(captchaKey)
	session.Delete(captchaKey)
	session.Save()
	return captcha.Verify(stored, c.PostForm("captcha"))
}
