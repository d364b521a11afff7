package handlers

import (
	"errors"
	"fmt"
	"lawjournal/internal/logger"
	"lawjournal/internal/middleware"
	"lawjournal/internal/models"
	"lawjournal/internal/services"
	"lawjournal/internal/utils"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ArticleHandler struct {
	articles       *services.ArticleService
	comments       *services.CommentService
	visits         *services.VisitService
	maxUploadBytes int64
	log            *logrus.Entry
}

func NewArticleHandler(d Deps) *ArticleHandler {
	return &ArticleHandler{
		articles:       d.Articles,
		comments:       d.Comments,
		visits:         d.Visits,
		maxUploadBytes: d.MaxUploadBytes,
		log:            logger.For("articles"),
	}
}

// Home lists approved articles, optionally filtered by category and search.
func (h *ArticleHandler) Home(c *gin.Context) {
	ctx := c.Request.Context()
	category := strings.TrimSpace(c.Query("category"))
	search := strings.TrimSpace(c.Query("search"))

	page, err := h.articles.PublicFeed(ctx, category, search, utils.ParsePage(c.Query("page")))
	if err != nil {
		renderServiceError(c, err)
		return
	}
	categories, err := h.articles.Categories(ctx)
	if err != nil {
		renderServiceError(c, err)
		return
	}

	Render(c, http.StatusOK, "article/list.html", gin.H{
		"Title":      "Law Journal",
		"Page":       page,
		"Categories": categories,
		"Category":   category,
		"Search":     search,
	})
}

func (h *ArticleHandler) articleID(c *gin.Context) (uint, bool) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusNotFound, "Article not found.")
	}
	return id, ok
}

// Read shows an article and counts the visit. Admins may open unpublished
// articles here too; those reads are not counted.
func (h *ArticleHandler) Read(c *gin.Context) {
	id, ok := h.articleID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	article, err := h.articles.GetVisibleArticle(ctx, middleware.CurrentActor(c), id)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	if article.IsPublished() {
		if err := h.visits.RecordVisit(ctx, id); err != nil {
			h.log.Warnf("record visit for article %d: %v", id, err)
		} else {
			article.Views++
		}
	}

	h.renderArticle(c, article, false)
}

// Preview shows an article in any state to admins without counting a visit.
func (h *ArticleHandler) Preview(c *gin.Context) {
	id, ok := h.articleID(c)
	if !ok {
		return
	}
	article, err := h.articles.GetVisibleArticle(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	h.renderArticle(c, article, true)
}

func (h *ArticleHandler) renderArticle(c *gin.Context, article *models.Article, preview bool) {
	comments, err := h.comments.ListComments(c.Request.Context(), article.ID)
	if err != nil {
		renderServiceError(c, err)
		return
	}

	Render(c, http.StatusOK, "article/read.html", gin.H{
		"Title":        article.Title,
		"Article":      article,
		"Content":      utils.RenderMarkdown(article.Content),
		"Description":  utils.Excerpt(article.Content, 150),
		"Comments":     services.BuildCommentTree(comments),
		"CommentCount": len(comments),
		"Preview":      preview,
	})
}

func (h *ArticleHandler) Like(c *gin.Context) {
	id, ok := h.articleID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if _, err := h.articles.GetVisibleArticle(ctx, middleware.CurrentActor(c), id); err != nil {
		renderServiceError(c, err)
		return
	}
	if err := h.articles.IncrementLikes(ctx, id); err != nil {
		renderServiceError(c, err)
		return
	}
	redirectWithFlash(c, fmt.Sprintf("/read/%d", id), flashSuccess, "Thanks for liking this article!")
}

func (h *ArticleHandler) ShowSubmit(c *gin.Context) {
	Render(c, http.StatusOK, "article/submit.html", gin.H{
		"Title":      "Submit an article",
		"Categories": models.Categories,
		"Form":       services.ArticleInput{},
	})
}

// Submit accepts the multipart submission form with an optional cover image
// and document.
func (h *ArticleHandler) Submit(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		// two files plus the text fields
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 2*h.maxUploadBytes+1<<20)
	}

	var in services.ArticleInput
	renderForm := func(code int, message string) {
		Render(c, code, "article/submit.html", gin.H{
			"Title":      "Submit an article",
			"Categories": models.Categories,
			"Form":       in,
			"Error":      message,
		})
	}

	var maxErr *http.MaxBytesError
	if _, err := c.MultipartForm(); err != nil && errors.As(err, &maxErr) {
		renderForm(http.StatusRequestEntityTooLarge, "The upload is too large.")
		return
	}

	in = services.ArticleInput{
		Title:    c.PostForm("title"),
		Content:  c.PostForm("content"),
		Author:   c.PostForm("author"),
		Email:    c.PostForm("email"),
		Category: c.PostForm("category"),
	}

	var uploads []services.FileUpload
	for _, f := range []struct {
		field string
		kind  services.UploadKind
	}{
		{"cover_image", services.KindCoverImage},
		{"document", services.KindDocument},
	} {
		header, err := c.FormFile(f.field)
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) || (err == nil && header.Filename == "") {
			continue
		}
		if err != nil {
			renderForm(http.StatusBadRequest, "Could not read the uploaded file.")
			return
		}
		file, err := header.Open()
		if err != nil {
			renderForm(http.StatusBadRequest, "Could not read the uploaded file.")
			return
		}
		defer file.Close()
		uploads = append(uploads, services.FileUpload{
			Kind:     f.kind,
			Filename: header.Filename,
			Size:     header.Size,
			Body:     file,
		})
	}

	if _, err := h.articles.CreateArticle(c.Request.Context(), in, uploads...); err != nil {
		renderForm(statusOf(err), msg(c, err))
		return
	}
	redirectWithFlash(c, "/", flashSuccess, "Article submitted! It will be published once an editor approves it.")
}

// Comment adds a comment or, with parent_id, a reply.
func (h *ArticleHandler) Comment(c *gin.Context) {
	id, ok := h.articleID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	back := fmt.Sprintf("/read/%d#comments", id)

	if _, err := h.articles.GetVisibleArticle(ctx, middleware.CurrentActor(c), id); err != nil {
		renderServiceError(c, err)
		return
	}

	in := services.CommentInput{
		Name:    c.PostForm("name"),
		Email:   c.PostForm("email"),
		Content: c.PostForm("content"),
	}
	if raw := strings.TrimSpace(c.PostForm("parent_id")); raw != "" {
		pid, ok := utils.ParseID(raw)
		if !ok {
			redirectWithFlash(c, back, flashError, "Invalid reply target.")
			return
		}
		in.ParentID = &pid
	}

	if _, err := h.comments.AddComment(ctx, id, in); err != nil {
		if statusOf(err) >= http.StatusInternalServerError {
			renderServiceError(c, err)
			return
		}
		redirectWithFlash(c, back, flashError, msg(c, err))
		return
	}
	redirectWithFlash(c, back, flashSuccess, "Your comment has been posted.")
}
