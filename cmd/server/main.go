package main

import (
	"fmt"
	"html/template"
	"lawjournal/internal/config"
	"lawjournal/internal/db"
	"lawjournal/internal/handlers"
	"lawjournal/internal/logger"
	"lawjournal/internal/middleware"
	"lawjournal/internal/router"
	"lawjournal/internal/services"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func main() {
	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.File); err != nil {
		logger.Log.Fatalf("Failed to init logger: %v", err)
	}

	// Initialize Database
	db.Init(cfg.Database)

	// Services
	mail := services.NewMailService(cfg.SMTP, cfg.SiteURL)
	articles := services.NewArticleService(db.DB, services.NewLocalStorage(cfg.Upload.Dir, cfg.Upload.MaxUploadBytes()))
	deps := handlers.Deps{
		Articles:       articles,
		Comments:       services.NewCommentService(db.DB),
		Visits:         services.NewVisitService(db.DB),
		Moderation:     services.NewModerationService(db.DB, articles.Cache(), mail),
		Messages:       services.NewMessageService(db.DB),
		Users:          services.NewUserService(db.DB),
		Captcha:        services.NewCaptchaService(),
		SiteURL:        cfg.SiteURL,
		UploadDir:      cfg.Upload.Dir,
		MaxUploadBytes: cfg.Upload.MaxUploadBytes(),
	}

	// Initialize Gin
	r := gin.Default()
	r.MaxMultipartMemory = 8 << 20

	// Setup Sessions
	store := cookie.NewStore([]byte(cfg.Session.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 86400 * 7, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(cfg.Session.Name, store))

	// Load Templates using Multitemplate so each view gets its own layout set
	r.HTMLRender = loadTemplates("./web/templates")

	// Static Assets
	r.Static("/static", "./web/static")

	// Middleware
	r.Use(middleware.LoadUser(deps.Users))

	router.RegisterRoutes(r, deps)

	logger.Log.Infof("Law journal starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Log.Fatal(err)
	}
}

func loadTemplates(templatesDir string) multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	layouts, err := filepath.Glob(templatesDir + "/layouts/*.html")
	if err != nil {
		panic(err)
	}
	includes, err := filepath.Glob(templatesDir + "/includes/*.html")
	if err != nil {
		panic(err)
	}

	assemble := func(view string) []string {
		files := make([]string, 0, len(layouts)+len(includes)+1)
		files = append(files, layouts...)
		files = append(files, includes...)
		files = append(files, filepath.Join(templatesDir, "views", view))
		return files
	}

	funcMap := template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"add": func(a, b int) int {
			return a + b
		},
		"timeAgo": func(t time.Time) string {
			seconds := int(time.Since(t).Seconds())
			switch {
			case seconds < 60:
				return "just now"
			case seconds < 3600:
				return plural(seconds/60, "minute")
			case seconds < 86400:
				return plural(seconds/3600, "hour")
			case seconds < 2592000:
				return plural(seconds/86400, "day")
			case seconds < 31536000:
				return plural(seconds/2592000, "month")
			}
			return plural(seconds/31536000, "year")
		},
		"date": func(t time.Time) string {
			return t.Format("January 2, 2006")
		},
		"eq": func(a, b interface{}) bool {
			return a == b
		},
		"gt": func(a, b int) bool {
			return a > b
		},
		"mul": func(a, b int) int {
			return a * b
		},
		"pageURL": func(param string, page int, extra string) template.URL {
			return template.URL(fmt.Sprintf("?%s=%d%s", param, page, extra))
		},
		"upload": func(ref string) string {
			return "/uploads/" + url.PathEscape(ref)
		},
		"initial": func(s string) string {
			s = strings.TrimSpace(s)
			if s == "" {
				return "?"
			}
			return strings.ToUpper(string([]rune(s)[0]))
		},
		"urlquery": func(s string) string {
			return url.QueryEscape(s)
		},
	}

	views := []string{
		"article/list.html",
		"article/read.html",
		"article/submit.html",
		"about.html",
		"contact.html",
		"admin/login.html",
		"admin/register.html",
		"admin/dashboard.html",
		"admin/messages.html",
		"error.html",
	}
	for _, v := range views {
		r.AddFromFilesFuncs(v, funcMap, assemble(v)...)
	}
	return r
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
