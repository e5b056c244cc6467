package checker

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/publicsuffix"

	"linkmon/internal/models"
	"linkmon/internal/urlutil"
)

// BlockedStatuses are primary responses that usually mean a bot wall rather than a dead site.
var BlockedStatuses = map[int]struct{}{
	http.StatusForbidden:       {},
	http.StatusNotAcceptable:   {},
	http.StatusTooManyRequests: {},
}

// DefaultPrimary is the browser-like identity used for the first attempt.
var DefaultPrimary = models.Identity{
	Name:      "chrome",
	UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	Referer:   "https://www.google.com/",
}

// DefaultFallbacks is the ordered ladder tried after a blocked or failed primary attempt.
var DefaultFallbacks = []models.Identity{
	{Name: "googlebot", UserAgent: "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", Referer: "https://www.google.com/"},
	{Name: "bingbot", UserAgent: "Mozilla/5.0 (compatible; bingbot/2.0; +http://www.bing.com/bingbot.htm)", Referer: "https://www.bing.com/"},
	{Name: "baiduspider", UserAgent: "Mozilla/5.0 (compatible; Baiduspider/2.0; +http://www.baidu.com/search/spider.html)", Referer: "https://www.baidu.com/"},
	{Name: "mobile-safari", UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1", Referer: "https://m.baidu.com/"},
	{Name: "firefox", UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0", Referer: "https://duckduckgo.com/"},
}

const (
	maxRedirects = 10
	maxDrain     = 64 << 10
)

// ErrTooManyRedirects ends an attempt whose redirect chain exceeds the cap.
var ErrTooManyRedirects = fmt.Errorf("stopped after %d redirects", maxRedirects)

// ProbeConfig tunes a Prober. Zero values fall back to defaults.
type ProbeConfig struct {
	Timeout      time.Duration
	Primary      models.Identity
	Fallbacks    []models.Identity
	MaxFallbacks int // 0 = whole ladder
	BackoffMin   time.Duration
	BackoffMax   time.Duration
}

// Prober performs a single reachability check per URL, walking the identity ladder when blocked.
// It is safe for concurrent use.
type Prober struct {
	cfg    ProbeConfig
	client *http.Client
	// ownJar gives every Probe call a fresh cookie jar.
	ownJar bool

	mu  sync.Mutex
	rnd *rand.Rand

	now func() time.Time
}

// ProberOption customizes a Prober.
type ProberOption func(*Prober)

// WithRandSource replaces the source used for fallback backoff jitter.
func WithRandSource(src rand.Source) ProberOption {
	return func(p *Prober) { p.rnd = rand.New(src) }
}

// WithHTTPClient replaces the HTTP client. Its redirect and TLS policy are the caller's.
func WithHTTPClient(c *http.Client) ProberOption {
	return func(p *Prober) {
		p.client = c
		p.ownJar = false
	}
}

// NewProber creates a Prober.
func NewProber(cfg ProbeConfig, opts ...ProberOption) *Prober {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Primary.UserAgent == "" {
		cfg.Primary = DefaultPrimary
	}
	if cfg.Fallbacks == nil {
		cfg.Fallbacks = DefaultFallbacks
	}
	if cfg.BackoffMax < cfg.BackoffMin {
		cfg.BackoffMax = cfg.BackoffMin
	}

	p := &Prober{
		cfg:    cfg,
		ownJar: true,
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return ErrTooManyRedirects
				}
				return nil
			},
		},
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type probeState int

const (
	stateAttemptPrimary probeState = iota
	stateAttemptFallback
	stateResolved
	stateExhausted
)

type attemptResult struct {
	status    int
	err       error
	malformed bool
}

// IsBlocked reports whether a primary response should trigger the fallback ladder.
func IsBlocked(status int) bool {
	_, ok := BlockedStatuses[status]
	return ok
}

// IsAvailable reports whether a status counts as up.
func IsAvailable(status int) bool {
	return status >= 200 && status < 400
}

// Probe checks one URL. It never fails: every failure mode is folded into the outcome.
func (p *Prober) Probe(ctx context.Context, rawURL string) models.CheckOutcome {
	url := urlutil.Normalize(rawURL)
	start := p.now()
	ladder := p.ladder()
	client := p.sessionClient()
	log := logrus.WithFields(logrus.Fields{"url": url, "host": urlutil.Host(url)})

	var (
		state   = stateAttemptPrimary
		next    int
		status  int
		gotHTTP bool
		lastErr error
	)
	observe := func(id models.Identity, res attemptResult) {
		if res.err != nil {
			lastErr = res.err
			log.WithField("identity", id.Name).WithError(res.err).Debug("probe attempt failed")
			return
		}
		status = res.status
		gotHTTP = true
		log.WithFields(logrus.Fields{"identity": id.Name, "status": res.status}).Debug("probe attempt answered")
	}

	for state != stateResolved && state != stateExhausted {
		switch state {
		case stateAttemptPrimary:
			res := p.attempt(ctx, client, url, p.cfg.Primary)
			observe(p.cfg.Primary, res)
			switch {
			case res.malformed:
				state = stateExhausted
			case res.err == nil && !IsBlocked(res.status):
				state = stateResolved
			default:
				state = stateAttemptFallback
			}
		case stateAttemptFallback:
			if next >= len(ladder) || p.wait(ctx) != nil {
				state = stateExhausted
				continue
			}
			id := ladder[next]
			next++
			res := p.attempt(ctx, client, url, id)
			observe(id, res)
			if res.err == nil && IsAvailable(res.status) {
				state = stateResolved
			}
		}
	}

	end := p.now()
	outcome := models.CheckOutcome{
		URL:          url,
		ResponseTime: end.Sub(start).Milliseconds(),
		CheckedAt:    end,
	}
	if gotHTTP {
		outcome.Status = status
		outcome.Available = IsAvailable(status)
	} else if lastErr != nil {
		outcome.Error = lastErr.Error()
	}
	return outcome
}

// sessionClient returns the client for one Probe call. Cookies set by a bot wall
// survive redirects and identity switches within the call, never across calls.
func (p *Prober) sessionClient() *http.Client {
	if !p.ownJar {
		return p.client
	}
	c := *p.client
	c.Jar, _ = cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return &c
}

// LadderLen is the number of identities a Probe may try, primary included.
func (p *Prober) LadderLen() int {
	return 1 + len(p.ladder())
}

func (p *Prober) ladder() []models.Identity {
	if n := p.cfg.MaxFallbacks; n > 0 && n < len(p.cfg.Fallbacks) {
		return p.cfg.Fallbacks[:n]
	}
	return p.cfg.Fallbacks
}

func (p *Prober) attempt(ctx context.Context, client *http.Client, url string, id models.Identity) attemptResult {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return attemptResult{err: err, malformed: true}
	}
	req.Header.Set("User-Agent", id.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	if id.Referer != "" {
		req.Header.Set("Referer", id.Referer)
	}

	resp, err := client.Do(req)
	if err != nil {
		return attemptResult{err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
	return attemptResult{status: resp.StatusCode}
}

// wait sleeps a random duration in [BackoffMin, BackoffMax] before a fallback attempt.
func (p *Prober) wait(ctx context.Context) error {
	d := p.cfg.BackoffMin
	if span := p.cfg.BackoffMax - p.cfg.BackoffMin; span > 0 {
		p.mu.Lock()
		d += time.Duration(p.rnd.Int63n(int64(span) + 1))
		p.mu.Unlock()
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
