package ingestion

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

const (
	FetchTimeout     = 15 * time.Second
	MaxCharsPerURL   = 10000
	maxResponseBytes = 5 << 20
	userAgent        = "InterviewBriefEngine/1.0 (Academic Research)"
)

// Fetcher returns the visible text of a web page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type httpFetcher struct {
	client *http.Client
	log    *logger.Logger
}

func NewHTTPFetcher(baseLog *logger.Logger) Fetcher {
	return &httpFetcher{
		client: &http.Client{Timeout: FetchTimeout},
		log:    baseLog.With("service", "URLFetcher"),
	}
}

func (f *httpFetcher) Fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return VisibleText(io.LimitReader(resp.Body, maxResponseBytes), MaxCharsPerURL)
}

var skipTags = map[string]bool{
	"script": true,
	"style":  true,
	"nav":    true,
	"footer": true,
	"header": true,
}

// VisibleText tokenizes HTML, drops script/style/nav/footer/header content,
// collapses whitespace and keeps at most maxChars characters.
func VisibleText(r io.Reader, maxChars int) (string, error) {
	z := html.NewTokenizer(r)
	var parts []string
	skipDepth := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != nil && err != io.EOF {
				return "", err
			}
			return truncateRunes(strings.Join(parts, " "), maxChars), nil
		case html.StartTagToken:
			name, _ := z.TagName()
			if skipTags[string(name)] {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if skipTags[string(name)] && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			if t := strings.Join(strings.Fields(string(z.Text())), " "); t != "" {
				parts = append(parts, t)
			}
		}
	}
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
