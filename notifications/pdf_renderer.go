package notifications

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

type PDFRenderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// ChromePool renders HTML to PDF in tabs of one shared headless browser.
// At most size renders run at once; the browser is launched on first use and
// relaunched if it dies.
type ChromePool struct {
	slots   chan struct{}
	timeout time.Duration
	log     *zap.Logger

	mu            sync.Mutex
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
}

func NewChromePool(size int, timeout time.Duration, log *zap.Logger) *ChromePool {
	if size < 1 {
		size = 1
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChromePool{
		slots:   make(chan struct{}, size),
		timeout: timeout,
		log:     log,
	}
}

func (p *ChromePool) browser() (context.Context, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.browserCtx != nil && p.browserCtx.Err() == nil {
		return p.browserCtx, nil
	}
	p.shutdownLocked()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, err
	}

	p.browserCtx, p.browserCancel, p.allocCancel = browserCtx, browserCancel, allocCancel
	p.log.Info("✅ Headless browser started for PDF rendering", zap.Int("slots", cap(p.slots)))
	return browserCtx, nil
}

func (p *ChromePool) Render(ctx context.Context, htmlContent string) ([]byte, error) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-p.slots }()

	browserCtx, err := p.browser()
	if err != nil {
		return nil, err
	}

	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, p.timeout)
	defer cancelTimeout()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var pdfBuffer []byte
	err = chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	if len(pdfBuffer) == 0 {
		return nil, errors.New("browser returned an empty PDF")
	}
	return pdfBuffer, nil
}

func (p *ChromePool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shutdownLocked()
}

func (p *ChromePool) shutdownLocked() {
	if p.browserCancel != nil {
		p.browserCancel()
	}
	if p.allocCancel != nil {
		p.allocCancel()
	}
	p.browserCtx, p.browserCancel, p.allocCancel = nil, nil, nil
}
