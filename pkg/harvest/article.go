package harvest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-shiori/go-readability"
)

// MaxBodySize caps how much HTML FetchArticle reads from a response.
const MaxBodySize = 10 * 1024 * 1024

// Article is the readable part of a web page.
type Article struct {
	URL      string
	Title    string
	Byline   string
	SiteName string
	Text     string
}

// DefaultClient is used by FetchArticle when no client is given.
var DefaultClient = &http.Client{Timeout: 30 * time.Second}

// FetchArticle downloads rawURL, strips ruby annotations and extracts the
// article text. client may be nil.
func FetchArticle(ctx context.Context, client *http.Client, rawURL string) (Article, error) {
	if client == nil {
		client = DefaultClient
	}
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return Article{}, fmt.Errorf("parse url %q: %w", rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Article{}, fmt.Errorf("create request: %w", err)
	}
	// Many news sites reject requests that do not look like a browser.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ja,en-US;q=0.9,en;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return Article{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Article{}, fmt.Errorf("fetch %s: unexpected status %s", rawURL, resp.Status)
	}
	if resp.ContentLength > MaxBodySize {
		return Article{}, fmt.Errorf("fetch %s: content length %d exceeds limit of %d bytes", rawURL, resp.ContentLength, MaxBodySize)
	}

	// Read one byte past the limit to tell a full body from a truncated one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return Article{}, fmt.Errorf("read %s: %w", rawURL, err)
	}
	if len(body) > MaxBodySize {
		return Article{}, fmt.Errorf("fetch %s: body exceeds limit of %d bytes", rawURL, MaxBodySize)
	}

	return ParseArticle(body, pageURL)
}

// ParseArticle extracts the readable article from an HTML page.
func ParseArticle(html []byte, pageURL *url.URL) (Article, error) {
	parsed, err := readability.FromReader(bytes.NewReader(SanitizeRuby(html)), pageURL)
	if err != nil {
		return Article{}, fmt.Errorf("extract article: %w", err)
	}
	a := Article{
		Title:    parsed.Title,
		Byline:   parsed.Byline,
		SiteName: parsed.SiteName,
		Text:     parsed.TextContent,
	}
	if pageURL != nil {
		a.URL = pageURL.String()
	}
	return a, nil
}
