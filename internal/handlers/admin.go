package handlers

import (
	"context"
	"lawjournal/internal/middleware"
	"lawjournal/internal/models"
	"lawjournal/internal/services"
	"lawjournal/internal/utils"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	articles   *services.ArticleService
	moderation *services.ModerationService
	visits     *services.VisitService
	messages   *services.MessageService
}

func NewAdminHandler(d Deps) *AdminHandler {
	return &AdminHandler{
		articles:   d.Articles,
		moderation: d.Moderation,
		visits:     d.Visits,
		messages:   d.Messages,
	}
}

// Dashboard shows both moderation queues and the traffic summary.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	queues, err := h.articles.AdminQueues(ctx, middleware.CurrentActor(c),
		utils.ParsePage(c.Query("pending_page")),
		utils.ParsePage(c.Query("approved_page")))
	if err != nil {
		renderServiceError(c, err)
		return
	}
	traffic, err := h.visits.TrafficStats(ctx, time.Now().UTC())
	if err != nil {
		renderServiceError(c, err)
		return
	}

	Render(c, http.StatusOK, "admin/dashboard.html", gin.H{
		"Title":    "Dashboard",
		"Pending":  queues.Pending,
		"Approved": queues.Approved,
		"Traffic":  traffic,
	})
}

func (h *AdminHandler) Approve(c *gin.Context) {
	h.moderate(c, h.moderation.Approve, "approved")
}

func (h *AdminHandler) Disapprove(c *gin.Context) {
	h.moderate(c, h.moderation.Disapprove, "disapproved")
}

func (h *AdminHandler) moderate(c *gin.Context, apply func(context.Context, services.Actor, uint) (*models.Article, error), verb string) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusNotFound, "Article not found.")
		return
	}

	article, err := apply(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		if statusOf(err) >= http.StatusInternalServerError {
			renderServiceError(c, err)
			return
		}
		redirectWithFlash(c, "/admin/dashboard", flashError, msg(c, err))
		return
	}
	redirectWithFlash(c, "/admin/dashboard", flashSuccess, "\""+article.Title+"\" has been "+verb+".")
}

func (h *AdminHandler) Messages(c *gin.Context) {
	messages, err := h.messages.ListMessages(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		renderServiceError(c, err)
		return
	}
	Render(c, http.StatusOK, "admin/messages.html", gin.H{
		"Title":    "Messages",
		"Messages": messages,
	})
}
