package ingest

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"

	"linkmon/internal/models"
	"linkmon/internal/urlutil"
)

var (
	fenceRe   = regexp.MustCompile("(?s)```(?:json)?[ \\t]*\\r?\\n?(.*?)```")
	bareURLRe = regexp.MustCompile("https?://[^\\s\"'<>()\\[\\]{}`]+")
)

type bodyPayload struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	Avatar     string `json:"avatar"`
	Screenshot string `json:"screenshot"`
}

// ParseIssueBody extracts a candidate from free issue text. A fenced JSON block
// with a "url" field wins; otherwise the earliest link in the body is used,
// whether bare text, markdown or an <a href>, and the first <img> becomes the
// avatar. ok is false when no valid URL is found.
func ParseIssueBody(body string) (models.Candidate, bool) {
	if c, ok := parseFenced(body); ok {
		return c, true
	}

	c := models.Candidate{URL: firstBareURL(body)}
	if c.URL == "" {
		return models.Candidate{}, false
	}
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(body)); err == nil {
		if src, ok := doc.Find("img[src]").First().Attr("src"); ok && urlutil.Validate(src) == nil {
			c.Avatar = src
		}
	}
	return c, true
}

func parseFenced(body string) (models.Candidate, bool) {
	for _, m := range fenceRe.FindAllStringSubmatch(body, -1) {
		var p bodyPayload
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &p); err != nil {
			continue
		}
		p.URL = strings.TrimSpace(p.URL)
		if urlutil.Validate(p.URL) != nil {
			continue
		}
		return models.Candidate{
			URL:        p.URL,
			Title:      strings.TrimSpace(p.Title),
			Avatar:     strings.TrimSpace(p.Avatar),
			Screenshot: strings.TrimSpace(p.Screenshot),
		}, true
	}
	return models.Candidate{}, false
}

// firstBareURL returns the earliest valid http(s) URL in body, skipping image sources.
func firstBareURL(body string) string {
	for _, loc := range bareURLRe.FindAllStringIndex(body, -1) {
		if isImageSource(body[:loc[0]]) {
			continue
		}
		m := strings.TrimRight(html.UnescapeString(body[loc[0]:loc[1]]), ".,;:!?'\"")
		if urlutil.Validate(m) == nil {
			return m
		}
	}
	return ""
}

// isImageSource reports whether the text before a match ends in a src= attribute.
func isImageSource(before string) bool {
	before = strings.TrimRight(before, "\"'")
	before = strings.TrimRight(before, " \t")
	return strings.HasSuffix(strings.ToLower(before), "src=")
}
