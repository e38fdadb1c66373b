package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/spigell/cvbuilder/internal/cv"
)

const (
	DefaultTimeout = 60 * time.Second

	// A4 in inches.
	paperWidth  = 8.27
	paperHeight = 11.69
)

// Renderer prints rendered HTML to PDF with headless Chrome.
type Renderer struct {
	chromePath string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewRenderer creates a Renderer. An empty chromePath lets chromedp find the browser.
func NewRenderer(chromePath string, timeout time.Duration, logger *zap.Logger) *Renderer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{chromePath: chromePath, timeout: timeout, logger: logger}
}

// Render produces the PDF for the record in the given style.
func (r *Renderer) Render(ctx context.Context, rec *cv.Record, key Template) ([]byte, error) {
	html, err := RenderHTML(rec, key)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	pdf, err := r.printPDF(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}

	r.logger.Info("cv rendered",
		zap.String("template", string(key)),
		zap.Int("pdf_size", len(pdf)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return pdf, nil
}

func (r *Renderer) printPDF(ctx context.Context, html string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancel := context.WithTimeout(browserCtx, r.timeout)
	defer cancel()

	dir, err := os.MkdirTemp("", "cvbuilder-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	htmlPath := filepath.Join(dir, "index.html")
	if err := os.WriteFile(htmlPath, []byte(html), 0o600); err != nil {
		return nil, fmt.Errorf("write html: %w", err)
	}

	var pdf []byte
	err = chromedp.Run(runCtx,
		chromedp.Navigate("file://"+htmlPath),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidth).
				WithPaperHeight(paperHeight).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdf, nil
}
