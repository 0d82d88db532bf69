package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"net/url"
	"time"

	"github.com/lysyi3m/news-comb/app/database"
)

// Generator renders the recent articles of a topic as an RSS 2.0 channel
type Generator struct {
	baseURL string
	version string
}

func NewGenerator(baseURL, version string) *Generator {
	return &Generator{
		baseURL: baseURL,
		version: version,
	}
}

func (g *Generator) Run(topic string, articles []database.Article) (string, error) {
	if topic == "" {
		return "", fmt.Errorf("topic is required")
	}

	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", fmt.Sprintf("News Comb: %s", topic), 4)
	g.writeElement(&buf, "link", g.topicLink(topic, "articles"), 4)
	g.writeElement(&buf, "description", fmt.Sprintf("Latest articles classified as %s", topic), 4)

	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(g.topicLink(topic, "rss"))))

	lastBuildDate := time.Now().UTC()
	if len(articles) > 0 {
		lastBuildDate = articles[0].CreatedAt
		if articles[0].PublishDate != nil {
			lastBuildDate = *articles[0].PublishDate
		}
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("News-Comb/%s", g.version), 4)

	for _, article := range articles {
		g.writeItem(&buf, article)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, article database.Article) {
	buf.WriteString("    <item>\n")

	buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", isURL(article.URL)))
	xml.EscapeText(buf, []byte(article.URL))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", article.Title, 6)
	g.writeElement(buf, "link", article.URL, 6)

	description := "No description available"
	if article.Summary != nil && *article.Summary != "" {
		description = *article.Summary
	}
	g.writeElement(buf, "description", description, 6)

	if article.PublishDate != nil {
		g.writeElement(buf, "pubDate", article.PublishDate.Format(time.RFC1123Z), 6)
	}

	g.writeElement(buf, "category", article.Topic, 6)
	for _, keyword := range article.Keywords {
		g.writeElement(buf, "category", keyword, 6)
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) topicLink(topic, suffix string) string {
	base := cmp.Or(g.baseURL, "http://localhost:8080")
	return fmt.Sprintf("%s/topics/%s/%s", base, url.PathEscape(topic), suffix)
}
