// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tool

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-shiori/go-readability"

	"github.com/pdiddy/deepresearch/pkg/types"
)

// PageContent is a browser fetch result: the readable article extracted
// from a rendered page.
type PageContent struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// BrowserTool fetches pages that need JavaScript rendering with a headless
// browser and extracts the readable article text. Plans reach for it when a
// search snippet is not enough and the page resists a plain GET.
//
// Parameters: "url" (required).
type BrowserTool struct {
	// Timeout bounds one fetch including browser startup.
	Timeout time.Duration

	// MaxChars truncates the extracted text (0 means unlimited).
	MaxChars int

	UserAgent string

	// render is swappable in tests to avoid launching a browser.
	render func(ctx context.Context, pageURL string) (string, error)
}

func (t *BrowserTool) Name() string               { return "browser_fetch" }
func (t *BrowserTool) Capability() types.TaskType { return types.TaskBrowser }

func (t *BrowserTool) Execute(ctx context.Context, params map[string]any) types.ToolResult {
	start := time.Now()

	pageURL := strParam(params, "url")
	if strings.TrimSpace(pageURL) == "" {
		return types.Failure(fmt.Errorf("browser step has no url"), time.Since(start))
	}

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	render := t.render
	if render == nil {
		render = t.renderHTML
	}

	html, err := render(ctx, pageURL)
	if err != nil {
		return types.Failure(fmt.Errorf("rendering %s: %w", pageURL, err), time.Since(start))
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		parsed = &url.URL{}
	}
	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return types.Failure(fmt.Errorf("extracting article from %s: %w", pageURL, err), time.Since(start))
	}

	text := strings.TrimSpace(article.TextContent)
	if t.MaxChars > 0 && len(text) > t.MaxChars {
		text = text[:t.MaxChars]
	}

	return types.ToolResult{
		Success: true,
		Output: PageContent{
			URL:   pageURL,
			Title: strings.TrimSpace(article.Title),
			Text:  text,
		},
		Duration: time.Since(start),
	}
}

// renderHTML loads the page in a headless browser and returns the rendered
// document.
func (t *BrowserTool) renderHTML(ctx context.Context, pageURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
	)
	if t.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(t.UserAgent))
	}

	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}
