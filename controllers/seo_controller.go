package controller

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"occupancyos/config"
)

// Sitemap serves the crawler sitemap. Pages are static, so the list is too.
func Sitemap(c *fiber.Ctx) error {
	baseURL := config.AppConfig.SiteURL
	today := time.Now().Format("2006-01-02")

	pages := []struct {
		path       string
		changefreq string
		priority   string
	}{
		{"/", "weekly", "1.0"},
		{"/audit", "weekly", "0.9"},
		{"/signup", "monthly", "0.8"},
		{"/login", "monthly", "0.7"},
		{"/tos", "yearly", "0.3"},
		{"/privacy", "yearly", "0.3"},
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	for _, p := range pages {
		fmt.Fprintf(&b, "  <url>\n    <loc>%s%s</loc>\n    <lastmod>%s</lastmod>\n    <changefreq>%s</changefreq>\n    <priority>%s</priority>\n  </url>\n",
			baseURL, p.path, today, p.changefreq, p.priority)
	}
	b.WriteString("</urlset>")

	c.Set("Content-Type", "application/xml")
	return c.SendString(b.String())
}

// Robots serves crawler directives.
func Robots(c *fiber.Ctx) error {
	content := fmt.Sprintf(`User-agent: *
Allow: /
Disallow: /api/
Disallow: /dashboard

Sitemap: %s/sitemap.xml`, config.AppConfig.SiteURL)

	c.Set("Content-Type", "text/plain")
	return c.SendString(content)
}
