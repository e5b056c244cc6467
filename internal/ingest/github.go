// Package ingest pulls monitoring candidates out of a GitHub issue tracker.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"linkmon/internal/models"
)

// Config describes which issues to list and how.
type Config struct {
	BaseURL   string
	Repo      string // owner/repo
	Label     string
	State     string
	Sort      string
	Direction string
	PerPage   int
	MaxPages  int
	Token     string
	UserAgent string
	RateLimit float64 // page requests per second, <= 0 disables pacing
}

// StatusError is returned for a non-2xx issue listing response.
type StatusError struct {
	Code int
	Page int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("issue source returned HTTP %d for page %d", e.Code, e.Page)
}

type issue struct {
	Number      int       `json:"number"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Labels      []label   `json:"labels"`
	PullRequest *struct{} `json:"pull_request"`
}

type label struct {
	Name string `json:"name"`
}

// GitHubSource lists candidates from GitHub issues.
type GitHubSource struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
}

// NewGitHubSource creates a GitHubSource. A nil client uses http.DefaultClient.
func NewGitHubSource(cfg Config, client *http.Client) *GitHubSource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.github.com"
	}
	if cfg.PerPage <= 0 || cfg.PerPage > 100 {
		cfg.PerPage = 100
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 1
	}
	if client == nil {
		client = http.DefaultClient
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return &GitHubSource{cfg: cfg, client: client, limiter: limiter}
}

// FetchCandidates pages through the issue list and returns every labelled issue
// whose body yields a URL. A 404 ends paging; any other non-2xx aborts the fetch.
func (s *GitHubSource) FetchCandidates(ctx context.Context) ([]models.Candidate, error) {
	var issues []issue
	for page := 1; page <= s.cfg.MaxPages; page++ {
		batch, err := s.fetchPage(ctx, page)
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			logrus.WithField("page", page).Debug("issue source has no more pages")
			break
		}
		if err != nil {
			return nil, err
		}
		logrus.WithFields(logrus.Fields{"page": page, "issues": len(batch)}).Debug("fetched issue page")
		issues = append(issues, batch...)
		if len(batch) < s.cfg.PerPage {
			break
		}
	}

	var candidates []models.Candidate
	for _, is := range issues {
		if is.PullRequest != nil || !s.hasLabel(is) {
			continue
		}
		c, ok := ParseIssueBody(is.Body)
		if !ok {
			logrus.WithField("issue", is.Number).Debug("issue body has no usable URL")
			continue
		}
		c.IssueTitle = is.Title
		if c.Title == "" {
			c.Title = is.Title
		}
		candidates = append(candidates, c)
	}
	logrus.WithFields(logrus.Fields{"issues": len(issues), "candidates": len(candidates)}).Info("ingestion complete")
	return candidates, nil
}

func (s *GitHubSource) hasLabel(is issue) bool {
	if s.cfg.Label == "" {
		return true
	}
	for _, l := range is.Labels {
		if strings.EqualFold(l.Name, s.cfg.Label) {
			return true
		}
	}
	return false
}

func (s *GitHubSource) pageURL(page int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(s.cfg.PerPage))
	for k, v := range map[string]string{"labels": s.cfg.Label, "state": s.cfg.State, "sort": s.cfg.Sort, "direction": s.cfg.Direction} {
		if v != "" {
			q.Set(k, v)
		}
	}
	return fmt.Sprintf("%s/repos/%s/issues?%s", strings.TrimRight(s.cfg.BaseURL, "/"), s.cfg.Repo, q.Encode())
}

func (s *GitHubSource) fetchPage(ctx context.Context, page int) ([]issue, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.pageURL(page), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build issue request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "token "+s.cfg.Token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch issue page %d: %w", page, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Page: page}
	}

	var batch []issue
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return nil, fmt.Errorf("failed to decode issue page %d: %w", page, err)
	}
	return batch, nil
}
