package document

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/inkframe/inkframe/api"
	"github.com/inkframe/inkframe/raster"
)

// BrowserGenerator renders the baked scene in headless Chromium and prints it
// to PDF. It preserves vector text, which the built-in embedder cannot, but
// may download a browser on first use, so it is opt-in.
type BrowserGenerator struct {
	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
}

// NewBrowserGenerator creates a new Playwright-backed generator.
func NewBrowserGenerator() *BrowserGenerator {
	return &BrowserGenerator{}
}

// Name returns the name of this generator.
func (g *BrowserGenerator) Name() string {
	return "browser"
}

// IsAvailable reports availability; the heavy initialization is lazy and
// happens on first Generate.
func (g *BrowserGenerator) IsAvailable() bool {
	return true
}

func (g *BrowserGenerator) ensureBrowser() (playwright.Browser, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.browser != nil {
		return g.browser, nil
	}

	if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
		return nil, NewGeneratorError(g.Name(), "install browser", err)
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, NewGeneratorError(g.Name(), "start playwright", err)
	}
	browser, err := pw.Chromium.Launch()
	if err != nil {
		pw.Stop() //nolint:errcheck
		return nil, NewGeneratorError(g.Name(), "launch browser", err)
	}
	g.pw = pw
	g.browser = browser
	return browser, nil
}

// Generate prints the baked scene to a PDF sized to the plan's output.
func (g *BrowserGenerator) Generate(ctx context.Context, svg []byte, buf *raster.Buffer, plan api.RenderPlan) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewGeneratorError(g.Name(), "generate", err)
	}

	browser, err := g.ensureBrowser()
	if err != nil {
		return nil, err
	}

	page, err := browser.NewPage()
	if err != nil {
		return nil, NewGeneratorError(g.Name(), "create page", err)
	}
	defer page.Close() //nolint:errcheck

	var background string
	if !plan.Transparent && plan.Background != "" {
		background = fmt.Sprintf("background: %s;", plan.Background)
	}
	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <style>
        body { margin: 0; padding: 0; %s }
        svg { display: block; width: 100vw; height: 100vh; }
    </style>
</head>
<body>
%s
</body>
</html>`, background, strings.TrimSpace(string(svg)))

	if err := page.SetContent(html); err != nil {
		return nil, NewGeneratorError(g.Name(), "set content", err)
	}

	width := fmt.Sprintf("%dpx", plan.OutputW)
	height := fmt.Sprintf("%dpx", plan.OutputH)
	pdf, err := page.PDF(playwright.PagePdfOptions{
		Width:           &width,
		Height:          &height,
		PrintBackground: playwright.Bool(!plan.Transparent),
	})
	if err != nil {
		return nil, NewGeneratorError(g.Name(), "print document", err)
	}
	return pdf, nil
}

// Close shuts down the browser and the Playwright driver.
func (g *BrowserGenerator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.browser != nil {
		if err := g.browser.Close(); err != nil {
			return err
		}
		g.browser = nil
	}
	if g.pw != nil {
		if err := g.pw.Stop(); err != nil {
			return err
		}
		g.pw = nil
	}
	return nil
}
