package handlers

import (
	"fmt"
	"html"
	"lawjournal/internal/services"
	"lawjournal/internal/utils"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type SEOHandler struct {
	articles *services.ArticleService
	siteURL  string
	cache    *utils.GlobalCache
}

func NewSEOHandler(d Deps) *SEOHandler {
	siteURL := strings.TrimRight(d.SiteURL, "/")
	if siteURL == "" {
		siteURL = "http://localhost:8080"
	}
	return &SEOHandler{
		articles: d.Articles,
		siteURL:  siteURL,
		cache:    d.Articles.Cache(),
	}
}

func (h *SEOHandler) RobotsTxt(c *gin.Context) {
	content := fmt.Sprintf(`User-agent: *
Allow: /

Disallow: /admin/
Disallow: /messages
Disallow: /article/
Disallow: /like/

Sitemap: %s/sitemap.xml
`, h.siteURL)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, content)
}

// SitemapXML lists the static pages and the 500 newest published articles.
func (h *SEOHandler) SitemapXML(c *gin.Context) {
	if cached, ok := h.cache.Get(services.SitemapCacheKey).(string); ok {
		c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(cached))
		return
	}

	articles, err := h.articles.Latest(c.Request.Context(), 500)
	if err != nil {
		c.String(http.StatusInternalServerError, msg(c, err))
		return
	}

	now := time.Now().UTC().Format("2006-01-02")
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
`)
	writeURL := func(loc, lastmod, changefreq string, priority float64) {
		fmt.Fprintf(&b, `  <url>
    <loc>%s</loc>
    <lastmod>%s</lastmod>
    <changefreq>%s</changefreq>
    <priority>%.1f</priority>
  </url>
`, escapeXML(loc), lastmod, changefreq, priority)
	}

	writeURL(h.siteURL+"/", now, "daily", 1.0)
	writeURL(h.siteURL+"/about", now, "monthly", 0.5)
	writeURL(h.siteURL+"/contact", now, "monthly", 0.5)
	for _, a := range articles {
		priority, changefreq := 0.6, "weekly"
		if time.Since(a.PostedAt) < 7*24*time.Hour {
			priority, changefreq = 0.8, "daily"
		}
		writeURL(fmt.Sprintf("%s/read/%d", h.siteURL, a.ID), a.PostedAt.Format("2006-01-02"), changefreq, priority)
	}
	b.WriteString(`</urlset>`)

	xml := b.String()
	h.cache.Set(services.SitemapCacheKey, xml, 10*time.Minute)
	c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(xml))
}

// RSSFeed renders an RSS 2.0 feed of the 20 newest published articles.
func (h *SEOHandler) RSSFeed(c *gin.Context) {
	if cached, ok := h.cache.Get(services.FeedCacheKey).(string); ok {
		c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(cached))
		return
	}

	articles, err := h.articles.Latest(c.Request.Context(), 20)
	if err != nil {
		c.String(http.StatusInternalServerError, msg(c, err))
		return
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">
  <channel>
    <title>Law Journal</title>
    <link>` + h.siteURL + `</link>
    <description>Peer-submitted articles on law, reviewed by our editors</description>
    <language>en</language>
    <lastBuildDate>` + time.Now().UTC().Format(time.RFC1123Z) + `</lastBuildDate>
    <atom:link href="` + h.siteURL + `/feed.xml" rel="self" type="application/rss+xml"/>
`)

	for _, a := range articles {
		link := fmt.Sprintf("%s/read/%d", h.siteURL, a.ID)
		content := truncateByParagraph(string(utils.RenderMarkdown(a.Content)), 3)
		content += fmt.Sprintf(`<p><a href="%s">Read the full article →</a></p>`, link)

		b.WriteString(`    <item>
      <title>` + escapeXML(a.Title) + `</title>
      <link>` + link + `</link>
      <description><![CDATA[` + strings.ReplaceAll(content, "]]>", "]]&gt;") + `]]></description>
      <author>` + escapeXML(a.Author) + `</author>
      <category>` + escapeXML(a.Category) + `</category>
      <pubDate>` + a.PostedAt.UTC().Format(time.RFC1123Z) + `</pubDate>
      <guid isPermaLink="true">` + link + `</guid>
    </item>
`)
	}
	b.WriteString(`  </channel>
</rss>`)

	feed := b.String()
	h.cache.Set(services.FeedCacheKey, feed, 5*time.Minute)
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(feed))
}

func escapeXML(s string) string {
	return html.EscapeString(s)
}

var (
	blockElement = regexp.MustCompile(`(?s)(<(?:p|div|h[1-6]|ul|ol|blockquote|pre)[^>]*>.*?</(?:p|div|h[1-6]|ul|ol|blockquote|pre)>)`)
	anyTag       = regexp.MustCompile(`<[^>]*>`)
)

// truncateByParagraph keeps the first maxBlocks block elements of an HTML body.
func truncateByParagraph(content string, maxBlocks int) string {
	matches := blockElement.FindAllString(content, maxBlocks)
	if len(matches) == 0 {
		runes := []rune(anyTag.ReplaceAllString(content, ""))
		if len(runes) > 300 {
			return string(runes[:300]) + "..."
		}
		return content
	}
	return strings.Join(matches, "\n")
}
