package router

import (
	"lawjournal/internal/handlers"
	"lawjournal/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires every URL of the site. LoadUser and sessions must
// already be installed on r.
func RegisterRoutes(r *gin.Engine, d handlers.Deps) {
	articleHandler := handlers.NewArticleHandler(d)
	pageHandler := handlers.NewPageHandler(d)
	authHandler := handlers.NewAuthHandler(d)
	adminHandler := handlers.NewAdminHandler(d)
	seoHandler := handlers.NewSEOHandler(d)

	// Public
	r.GET("/", articleHandler.Home)                        // approved articles, ?page ?category ?search
	r.GET("/read/:id", articleHandler.Read)                // article page, counts a visit
	r.GET("/article/:id", articleHandler.Preview)          // preview without a visit
	r.POST("/like/:id", articleHandler.Like)               // like an article
	r.GET("/submit", articleHandler.ShowSubmit)            // submission form
	r.POST("/submit", articleHandler.Submit)               // submit for review
	r.POST("/article/:id/comment", articleHandler.Comment) // comment or reply
	r.GET("/about", pageHandler.About)                     // about page
	r.GET("/contact", pageHandler.ShowContact)             // contact form
	r.POST("/contact", pageHandler.Contact)                // send a message

	r.GET("/robots.txt", seoHandler.RobotsTxt)
	r.GET("/sitemap.xml", seoHandler.SitemapXML)
	r.GET("/feed.xml", seoHandler.RSSFeed)

	if d.UploadDir != "" {
		r.Static("/uploads", d.UploadDir)
	}

	// Admin auth
	r.GET("/admin/register", authHandler.ShowRegister)
	r.POST("/admin/register", authHandler.Register)
	r.GET("/admin/login", authHandler.ShowLogin)
	r.POST("/admin/login", authHandler.Login)
	r.GET("/admin/logout", authHandler.Logout)

	// Admin only
	admin := r.Group("/")
	admin.Use(middleware.AdminRequired())
	{
		admin.GET("/admin/dashboard", adminHandler.Dashboard)        // queues and traffic
		admin.POST("/admin/approve/:id", adminHandler.Approve)       // publish
		admin.POST("/admin/disapprove/:id", adminHandler.Disapprove) // reject or unpublish
		admin.GET("/messages", adminHandler.Messages)                // contact-form messages
	}
}
